package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	AdminRole    Role = "admin"
	CustomerRole Role = "customer"
)

const PrivateSectorEmployment = "Private Sector"

type Customer struct {
	ID                    uint64
	Email                 string
	Password              string
	FullName              string
	NationalID            string
	Phone                 string
	DateOfBirth           time.Time
	EmploymentType        string
	ECNumber              string
	MonthlyIncome         float64
	MonthlyExpenses       float64
	VerifiedMonthlyIncome float64
	Role                  Role
	KYCStatus             KYCStatus
	KYCRejectReason       string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	KYCDocuments []KYCDocument
}

// IdentityVerified reports whether the customer passed KYC.
func (c *Customer) IdentityVerified() bool {
	return c.KYCStatus == KYCVerified
}

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "NOT_SUBMITTED"
	KYCPending      KYCStatus = "PENDING"
	KYCVerified     KYCStatus = "VERIFIED"
	KYCRejected     KYCStatus = "REJECTED"
)

type DocumentType string

const (
	DocumentNationalID DocumentType = "NATIONAL_ID"
	DocumentSelfie     DocumentType = "SELFIE"
	DocumentPayslip    DocumentType = "PAYSLIP"
)

type KYCDocument struct {
	ID         uint64
	CustomerID uint64
	Type       DocumentType
	URL        string
	UploadedAt time.Time
}

type LenderKind string

const (
	LenderCompany LenderKind = "COMPANY"
	LenderBank    LenderKind = "BANK"
)

type Lender struct {
	ID                  uint64
	Code                string
	Name                string
	Kind                LenderKind
	Description         string
	InterestRatePercent float64
	MinAmount           float64
	MaxAmount           float64
	MinTermMonths       int
	MaxTermMonths       int
	Rating              float64
	ProcessingTime      string
	Specialties         []string

	LoanProducts []LoanProduct
	Reviews      []Review
}

type LoanProduct struct {
	ID                  uint64
	LenderID            uint64
	Name                string
	MinAmount           float64
	MaxAmount           float64
	InterestRatePercent float64
	MinTermMonths       int
	MaxTermMonths       int
	Features            []string
}

type Review struct {
	ID       uint64
	LenderID uint64
	UserName string
	Rating   int
	Comment  string
	Date     time.Time
}

type Product struct {
	ID          uint64
	SKU         string
	Name        string
	Description string
	Category    string
	Price       float64
}

type CartItem struct {
	ProductID uint64  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	CustomerID uint64
	Items      []CartItem
	Subtotal   float64
	ItemCount  int
}

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "PENDING"
	ApplicationUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationApproved    ApplicationStatus = "APPROVED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationDisbursed   ApplicationStatus = "DISBURSED"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:     {ApplicationUnderReview, ApplicationRejected},
	ApplicationUnderReview: {ApplicationApproved, ApplicationRejected},
	ApplicationApproved:    {ApplicationDisbursed},
}

// CanTransitionTo reports whether an application may move from s to next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type LoanApplication struct {
	ID                  uint64
	Reference           string
	CustomerID          uint64
	LenderID            uint64
	LoanProductID       *uint64
	Amount              float64
	TermMonths          int
	InterestRatePercent float64
	MonthlyPayment      float64
	Purpose             string
	Collateral          string
	MonthlyIncome       float64
	MonthlyExpenses     float64
	Status              ApplicationStatus
	AppliedAt           time.Time
	ApprovedAt          *time.Time
	DisbursedAt         *time.Time

	Lender        *Lender
	StatusUpdates []StatusUpdate
}

// AllowedTermMonths lists the repayment terms offered on loan applications
// and store credit.
var AllowedTermMonths = []int{6, 12, 18, 24, 36}

func IsAllowedTerm(months int) bool {
	for _, m := range AllowedTermMonths {
		if m == months {
			return true
		}
	}
	return false
}

// LoanQuote is the cost of a loan at a lender's advertised rate.
type LoanQuote struct {
	LenderID            uint64
	LoanProductID       *uint64
	Amount              float64
	TermMonths          int
	InterestRatePercent float64
	MonthlyPayment      float64
	TotalPayment        float64
	TotalInterest       float64
}

// EligibilityCheck is the affordability decision together with the inputs
// it was taken on.
type EligibilityCheck struct {
	Eligible            bool
	MaxLoanAmount       float64
	SuggestedEMI        float64
	RequestedEMI        float64
	InterestRatePercent float64
	MonthlyIncome       float64
	MonthlyExpenses     float64
	IdentityVerified    bool
}

type StatusUpdate struct {
	ID            uint64
	ApplicationID uint64
	Status        ApplicationStatus
	Message       string
	CreatedAt     time.Time
}

type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderApproved OrderStatus = "APPROVED"
	OrderRejected OrderStatus = "REJECTED"
)

type BankDetails struct {
	BankName      string
	AccountNumber string
	AccountType   string
	BranchName    string
	RoutingCode   string
}

type CreditOrder struct {
	ID                  string
	CustomerID          uint64
	Subtotal            float64
	DownPayment         float64
	FinancedAmount      float64
	TermMonths          int
	InterestRatePercent float64
	MonthlyInstallment  float64
	AnnualIncome        float64
	CreditHistory       string
	Status              OrderStatus
	Bank                BankDetails
	CreatedAt           time.Time

	Items []OrderItem
}

type OrderItem struct {
	ID        uint64
	OrderID   string
	ProductID uint64
	Name      string
	Price     float64
	Quantity  int
}

type JwtCustomClaims struct {
	UserID uint64 `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

type Params struct {
	Status string
	Page   int
	Limit  int
}

type Paginated struct {
	Data       any
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
