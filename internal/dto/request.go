package dto

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/fazamuttaqien/lendora/internal/domain"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

const minimumAge = 18

type RegisterRequest struct {
	Email          string `json:"email" form:"email" validate:"required,email"`
	Password       string `json:"password" form:"password" validate:"required,min=6"`
	FullName       string `json:"full_name" form:"full_name" validate:"required,min=2,personname"`
	NationalID     string `json:"national_id" form:"national_id" validate:"required,numeric,min=8"`
	DateOfBirth    string `json:"date_of_birth" form:"date_of_birth" validate:"required,datetime=2006-01-02,adult"`
	Phone          string `json:"phone" form:"phone" validate:"required,phone"`
	EmploymentType string `json:"employment_type" form:"employment_type" validate:"required"`
	ECNumber       string `json:"ec_number" form:"ec_number"`
}

type UpdateProfileRequest struct {
	FullName        string  `json:"full_name" validate:"required,min=2,personname"`
	Phone           string  `json:"phone" validate:"required,phone"`
	EmploymentType  string  `json:"employment_type" validate:"required"`
	ECNumber        string  `json:"ec_number"`
	MonthlyIncome   float64 `json:"monthly_income" validate:"gte=0"`
	MonthlyExpenses float64 `json:"monthly_expenses" validate:"gte=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type KYCDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	Reason string `json:"reason" validate:"required_if=Status REJECTED"`
}

type QuoteRequest struct {
	LenderID      uint64  `json:"lender_id" validate:"required"`
	LoanProductID *uint64 `json:"loan_product_id"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TermMonths    int     `json:"term_months" validate:"required,gt=0,lte=360"`
}

type EligibilityRequest struct {
	LenderID        uint64   `json:"lender_id" validate:"required"`
	Amount          float64  `json:"amount" validate:"required,gt=0"`
	TermMonths      int      `json:"term_months" validate:"required,gt=0,lte=360"`
	MonthlyIncome   *float64 `json:"monthly_income" validate:"omitempty,gte=0"`
	MonthlyExpenses *float64 `json:"monthly_expenses" validate:"omitempty,gte=0"`
}

type ApplicationRequest struct {
	LenderID        uint64  `json:"lender_id" validate:"required"`
	LoanProductID   *uint64 `json:"loan_product_id"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	TermMonths      int     `json:"term_months" validate:"required,gt=0"`
	Purpose         string  `json:"purpose" validate:"required,min=3,max=255"`
	Collateral      string  `json:"collateral" validate:"max=255"`
	MonthlyIncome   float64 `json:"monthly_income" validate:"required,gt=0"`
	MonthlyExpenses float64 `json:"monthly_expenses" validate:"gte=0"`
}

type ApplicationStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=UNDER_REVIEW APPROVED REJECTED DISBURSED"`
	Message string `json:"message" validate:"max=255"`
}

type CartItemRequest struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=99"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type BankDetailsRequest struct {
	BankName      string `json:"bank_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,numeric"`
	AccountType   string `json:"account_type" validate:"required,oneof=Savings Current"`
	BranchName    string `json:"branch_name"`
	RoutingCode   string `json:"routing_code"`
}

type CheckoutRequest struct {
	TermMonths    int                `json:"term_months" validate:"required"`
	DownPayment   float64            `json:"down_payment" validate:"gte=0"`
	AnnualIncome  float64            `json:"annual_income" validate:"gte=0"`
	CreditHistory string             `json:"credit_history" validate:"max=50"`
	Bank          BankDetailsRequest `json:"bank" validate:"required"`
}

func RegisterToEntity(req RegisterRequest) (*domain.Customer, error) {
	dob, err := time.Parse(DateLayout, req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	return &domain.Customer{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Password:       req.Password,
		FullName:       strings.TrimSpace(req.FullName),
		NationalID:     req.NationalID,
		Phone:          req.Phone,
		DateOfBirth:    dob,
		EmploymentType: req.EmploymentType,
		ECNumber:       strings.TrimSpace(req.ECNumber),
	}, nil
}

func (b BankDetailsRequest) ToEntity() domain.BankDetails {
	return domain.BankDetails{
		BankName:      b.BankName,
		AccountNumber: b.AccountNumber,
		AccountType:   b.AccountType,
		BranchName:    b.BranchName,
		RoutingCode:   b.RoutingCode,
	}
}

var personNamePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

// NewValidator returns a validator with the registration rules installed.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		digits := 0
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsDigit(r):
				digits++
			case r == '+' || r == '-' || r == '(' || r == ')' || unicode.IsSpace(r):
			default:
				return false
			}
		}
		return digits >= 10
	})
	_ = v.RegisterValidation("adult", func(fl validator.FieldLevel) bool {
		dob, err := time.Parse(DateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return !dob.AddDate(minimumAge, 0, 0).After(time.Now())
	})

	v.RegisterStructValidation(employerNumberRule, RegisterRequest{}, UpdateProfileRequest{})

	return v
}

// employerNumberRule requires an EC number of at least three characters
// from private sector employees.
func employerNumberRule(sl validator.StructLevel) {
	var employment, ecNumber string
	switch req := sl.Current().Interface().(type) {
	case RegisterRequest:
		employment, ecNumber = req.EmploymentType, req.ECNumber
	case UpdateProfileRequest:
		employment, ecNumber = req.EmploymentType, req.ECNumber
	default:
		return
	}

	if employment == domain.PrivateSectorEmployment && len(strings.TrimSpace(ecNumber)) < 3 {
		sl.ReportError(ecNumber, "ECNumber", "ec_number", "ec_required", "")
	}
}
