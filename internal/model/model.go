package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents the customers table
type Customer struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email                 string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password              string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName              string    `gorm:"type:varchar(255);not null" json:"full_name"`
	NationalID            string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"national_id"`
	Phone                 string    `gorm:"type:varchar(32);not null" json:"phone"`
	DateOfBirth           time.Time `gorm:"type:date;not null" json:"date_of_birth"`
	EmploymentType        string    `gorm:"type:varchar(50)" json:"employment_type"`
	ECNumber              string    `gorm:"type:varchar(50)" json:"ec_number"`
	MonthlyIncome         float64   `gorm:"type:decimal(15,2);not null;default:0" json:"monthly_income"`
	MonthlyExpenses       float64   `gorm:"type:decimal(15,2);not null;default:0" json:"monthly_expenses"`
	VerifiedMonthlyIncome float64   `gorm:"type:decimal(15,2);not null;default:0" json:"verified_monthly_income"`
	Role                  Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	KYCStatus             KYCStatus `gorm:"type:varchar(20);not null;default:'NOT_SUBMITTED'" json:"kyc_status"`
	KYCRejectReason       string    `gorm:"type:varchar(255)" json:"kyc_reject_reason"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	KYCDocuments     []KYCDocument     `gorm:"foreignKey:CustomerID" json:"kyc_documents,omitempty"`
	LoanApplications []LoanApplication `gorm:"foreignKey:CustomerID" json:"loan_applications,omitempty"`
}

type Role string

const (
	AdminRole    Role = "admin"
	CustomerRole Role = "customer"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "NOT_SUBMITTED"
	KYCPending      KYCStatus = "PENDING"
	KYCVerified     KYCStatus = "VERIFIED"
	KYCRejected     KYCStatus = "REJECTED"
)

// KYCDocument represents the kyc_documents table
type KYCDocument struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint64    `gorm:"not null;index" json:"customer_id"`
	Type       string    `gorm:"type:varchar(20);not null" json:"type"`
	URL        string    `gorm:"type:varchar(255);not null" json:"url"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

// Lender represents the lenders table; companies and banks share it
type Lender struct {
	ID                  uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                string   `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name                string   `gorm:"type:varchar(255);not null" json:"name"`
	Kind                string   `gorm:"type:varchar(20);not null;index" json:"kind"`
	Description         string   `gorm:"type:text" json:"description"`
	InterestRatePercent float64  `gorm:"type:decimal(6,3);not null" json:"interest_rate_percent"`
	MinAmount           float64  `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount           float64  `gorm:"type:decimal(15,2);not null" json:"max_amount"`
	MinTermMonths       int      `gorm:"not null" json:"min_term_months"`
	MaxTermMonths       int      `gorm:"not null" json:"max_term_months"`
	Rating              float64  `gorm:"type:decimal(3,2)" json:"rating"`
	ProcessingTime      string   `gorm:"type:varchar(50)" json:"processing_time"`
	Specialties         []string `gorm:"type:text;serializer:json" json:"specialties"`

	LoanProducts []LoanProduct  `gorm:"foreignKey:LenderID" json:"loan_products,omitempty"`
	Reviews      []LenderReview `gorm:"foreignKey:LenderID" json:"reviews,omitempty"`
}

// LoanProduct represents the loan_products table
type LoanProduct struct {
	ID                  uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	LenderID            uint64   `gorm:"not null;index" json:"lender_id"`
	Name                string   `gorm:"type:varchar(255);not null" json:"name"`
	MinAmount           float64  `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount           float64  `gorm:"type:decimal(15,2);not null" json:"max_amount"`
	InterestRatePercent float64  `gorm:"type:decimal(6,3);not null" json:"interest_rate_percent"`
	MinTermMonths       int      `gorm:"not null" json:"min_term_months"`
	MaxTermMonths       int      `gorm:"not null" json:"max_term_months"`
	Features            []string `gorm:"type:text;serializer:json" json:"features"`

	Lender Lender `gorm:"foreignKey:LenderID;constraint:OnDelete:CASCADE" json:"-"`
}

// LenderReview represents the lender_reviews table
type LenderReview struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	LenderID uint64    `gorm:"not null;index" json:"lender_id"`
	UserName string    `gorm:"type:varchar(255);not null" json:"user_name"`
	Rating   int       `gorm:"not null" json:"rating"`
	Comment  string    `gorm:"type:text" json:"comment"`
	Date     time.Time `gorm:"type:date" json:"date"`

	Lender Lender `gorm:"foreignKey:LenderID;constraint:OnDelete:CASCADE" json:"-"`
}

// Product represents the products table of the store catalog
type Product struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU         string  `gorm:"type:varchar(50);not null;uniqueIndex" json:"sku"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Category    string  `gorm:"type:varchar(50);not null;index" json:"category"`
	Price       float64 `gorm:"type:decimal(15,2);not null" json:"price"`
}

// LoanApplication represents the loan_applications table
type LoanApplication struct {
	ID                  uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference           string            `gorm:"type:varchar(50);not null;uniqueIndex" json:"reference"`
	CustomerID          uint64            `gorm:"not null;index" json:"customer_id"`
	LenderID            uint64            `gorm:"not null;index" json:"lender_id"`
	LoanProductID       *uint64           `json:"loan_product_id"`
	Amount              float64           `gorm:"type:decimal(15,2);not null" json:"amount"`
	TermMonths          int               `gorm:"not null" json:"term_months"`
	InterestRatePercent float64           `gorm:"type:decimal(6,3);not null" json:"interest_rate_percent"`
	MonthlyPayment      float64           `gorm:"type:decimal(15,2);not null" json:"monthly_payment"`
	Purpose             string            `gorm:"type:varchar(255);not null" json:"purpose"`
	Collateral          string            `gorm:"type:varchar(255)" json:"collateral"`
	MonthlyIncome       float64           `gorm:"type:decimal(15,2);not null" json:"monthly_income"`
	MonthlyExpenses     float64           `gorm:"type:decimal(15,2);not null" json:"monthly_expenses"`
	Status              ApplicationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AppliedAt           time.Time         `gorm:"autoCreateTime" json:"applied_at"`
	ApprovedAt          *time.Time        `json:"approved_at"`
	DisbursedAt         *time.Time        `json:"disbursed_at"`

	Customer      Customer                   `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"-"`
	Lender        Lender                     `gorm:"foreignKey:LenderID;constraint:OnDelete:RESTRICT" json:"lender"`
	StatusUpdates []ApplicationStatusUpdate `gorm:"foreignKey:ApplicationID" json:"status_updates,omitempty"`
}

// ApplicationStatus enum for loan application status
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "PENDING"
	ApplicationUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationApproved    ApplicationStatus = "APPROVED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationDisbursed   ApplicationStatus = "DISBURSED"
)

// ApplicationStatusUpdate represents the application_status_updates table
type ApplicationStatusUpdate struct {
	ID            uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicationID uint64            `gorm:"not null;index" json:"application_id"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null" json:"status"`
	Message       string            `gorm:"type:varchar(255);not null" json:"message"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// CreditOrder represents the credit_orders table
type CreditOrder struct {
	ID                  string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	CustomerID          uint64      `gorm:"not null;index" json:"customer_id"`
	Subtotal            float64     `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	DownPayment         float64     `gorm:"type:decimal(15,2);not null" json:"down_payment"`
	FinancedAmount      float64     `gorm:"type:decimal(15,2);not null" json:"financed_amount"`
	TermMonths          int         `gorm:"not null" json:"term_months"`
	InterestRatePercent float64     `gorm:"type:decimal(6,3);not null" json:"interest_rate_percent"`
	MonthlyInstallment  float64     `gorm:"type:decimal(15,2);not null" json:"monthly_installment"`
	AnnualIncome        float64     `gorm:"type:decimal(15,2)" json:"annual_income"`
	CreditHistory       string      `gorm:"type:varchar(50)" json:"credit_history"`
	Status              OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	BankName            string      `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber       string      `gorm:"type:varchar(64);not null" json:"account_number"`
	AccountType         string      `gorm:"type:varchar(32);not null" json:"account_type"`
	BranchName          string      `gorm:"type:varchar(255)" json:"branch_name"`
	RoutingCode         string      `gorm:"type:varchar(32)" json:"routing_code"`
	CreatedAt           time.Time   `gorm:"autoCreateTime;index" json:"created_at"`

	Customer Customer          `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"-"`
	Items    []CreditOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderStatus enum for credit order status
type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderApproved OrderStatus = "APPROVED"
	OrderRejected OrderStatus = "REJECTED"
)

// CreditOrderItem represents the credit_order_items table
type CreditOrderItem struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string  `gorm:"type:varchar(64);not null;index" json:"order_id"`
	ProductID uint64  `gorm:"not null" json:"product_id"`
	Name      string  `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64 `gorm:"type:decimal(15,2);not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}

func (Customer) TableName() string {
	return "customers"
}

func (KYCDocument) TableName() string {
	return "kyc_documents"
}

func (Lender) TableName() string {
	return "lenders"
}

func (LoanProduct) TableName() string {
	return "loan_products"
}

func (LenderReview) TableName() string {
	return "lender_reviews"
}

func (Product) TableName() string {
	return "products"
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

func (ApplicationStatusUpdate) TableName() string {
	return "application_status_updates"
}

func (CreditOrder) TableName() string {
	return "credit_orders"
}

func (CreditOrderItem) TableName() string {
	return "credit_order_items"
}

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&KYCDocument{},
		&Lender{},
		&LoanProduct{},
		&LenderReview{},
		&Product{},
		&LoanApplication{},
		&ApplicationStatusUpdate{},
		&CreditOrder{},
		&CreditOrderItem{},
	)
}
