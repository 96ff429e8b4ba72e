package dto

import (
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"

	"github.com/shopspring/decimal"
)

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type KYCDocumentResponse struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type CustomerResponse struct {
	ID                    uint64                `json:"id"`
	Email                 string                `json:"email"`
	FullName              string                `json:"full_name"`
	NationalID            string                `json:"national_id"`
	Phone                 string                `json:"phone"`
	DateOfBirth           string                `json:"date_of_birth"`
	EmploymentType        string                `json:"employment_type"`
	ECNumber              string                `json:"ec_number,omitempty"`
	MonthlyIncome         float64               `json:"monthly_income"`
	MonthlyExpenses       float64               `json:"monthly_expenses"`
	VerifiedMonthlyIncome float64               `json:"verified_monthly_income,omitempty"`
	Role                  string                `json:"role"`
	KYCStatus             string                `json:"kyc_status"`
	KYCRejectReason       string                `json:"kyc_reject_reason,omitempty"`
	KYCDocuments          []KYCDocumentResponse `json:"kyc_documents"`
	CreatedAt             time.Time             `json:"created_at"`
}

type KYCStatusResponse struct {
	Status                string                `json:"status"`
	RejectReason          string                `json:"reject_reason,omitempty"`
	VerifiedMonthlyIncome float64               `json:"verified_monthly_income,omitempty"`
	Documents             []KYCDocumentResponse `json:"documents"`
}

type QuoteResponse struct {
	LenderID            uint64  `json:"lender_id"`
	LoanProductID       *uint64 `json:"loan_product_id,omitempty"`
	Amount              float64 `json:"amount"`
	TermMonths          int     `json:"term_months"`
	InterestRatePercent float64 `json:"interest_rate_percent"`
	MonthlyPayment      float64 `json:"monthly_payment"`
	TotalPayment        float64 `json:"total_payment"`
	TotalInterest       float64 `json:"total_interest"`
}

type InstallmentResponse struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type ScheduleResponse struct {
	QuoteResponse
	Installments []InstallmentResponse `json:"installments"`
}

type EligibilityResponse struct {
	Eligible            bool    `json:"eligible"`
	MaxLoanAmount       float64 `json:"max_loan_amount"`
	SuggestedEMI        float64 `json:"suggested_emi"`
	RequestedEMI        float64 `json:"requested_emi"`
	InterestRatePercent float64 `json:"interest_rate_percent"`
	MonthlyIncome       float64 `json:"monthly_income"`
	MonthlyExpenses     float64 `json:"monthly_expenses"`
	IdentityVerified    bool    `json:"identity_verified"`
}

type StatusUpdateResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ApplicationResponse struct {
	ID                  uint64                 `json:"id"`
	Reference           string                 `json:"reference"`
	LenderID            uint64                 `json:"lender_id"`
	LenderName          string                 `json:"lender_name,omitempty"`
	LoanProductID       *uint64                `json:"loan_product_id,omitempty"`
	Amount              float64                `json:"amount"`
	TermMonths          int                    `json:"term_months"`
	InterestRatePercent float64                `json:"interest_rate_percent"`
	MonthlyPayment      float64                `json:"monthly_payment"`
	Purpose             string                 `json:"purpose"`
	Collateral          string                 `json:"collateral,omitempty"`
	Status              string                 `json:"status"`
	AppliedAt           time.Time              `json:"applied_at"`
	ApprovedAt          *time.Time             `json:"approved_at,omitempty"`
	DisbursedAt         *time.Time             `json:"disbursed_at,omitempty"`
	StatusUpdates       []StatusUpdateResponse `json:"status_updates,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type LoanProductResponse struct {
	ID                  uint64   `json:"id"`
	Name                string   `json:"name"`
	MinAmount           float64  `json:"min_amount"`
	MaxAmount           float64  `json:"max_amount"`
	InterestRatePercent float64  `json:"interest_rate_percent"`
	MinTermMonths       int      `json:"min_term_months"`
	MaxTermMonths       int      `json:"max_term_months"`
	Features            []string `json:"features"`
}

type ReviewResponse struct {
	ID       uint64 `json:"id"`
	UserName string `json:"user_name"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Date     string `json:"date"`
}

type LenderResponse struct {
	ID                  uint64                `json:"id"`
	Code                string                `json:"code"`
	Name                string                `json:"name"`
	Kind                string                `json:"kind"`
	Description         string                `json:"description"`
	InterestRatePercent float64               `json:"interest_rate_percent"`
	MinAmount           float64               `json:"min_amount"`
	MaxAmount           float64               `json:"max_amount"`
	MinTermMonths       int                   `json:"min_term_months"`
	MaxTermMonths       int                   `json:"max_term_months"`
	Rating              float64               `json:"rating"`
	ProcessingTime      string                `json:"processing_time"`
	Specialties         []string              `json:"specialties"`
	LoanProducts        []LoanProductResponse `json:"loan_products,omitempty"`
	Reviews             []ReviewResponse      `json:"reviews,omitempty"`
}

type ProductResponse struct {
	ID          uint64  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

type CartItemResponse struct {
	ProductID uint64  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	ItemCount int                `json:"item_count"`
}

type OrderItemResponse struct {
	ProductID uint64  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type OrderResponse struct {
	ID                  string              `json:"id"`
	Subtotal            float64             `json:"subtotal"`
	DownPayment         float64             `json:"down_payment"`
	FinancedAmount      float64             `json:"financed_amount"`
	TermMonths          int                 `json:"term_months"`
	InterestRatePercent float64             `json:"interest_rate_percent"`
	MonthlyInstallment  float64             `json:"monthly_installment"`
	Status              string              `json:"status"`
	BankName            string              `json:"bank_name"`
	AccountNumber       string              `json:"account_number"`
	AccountType         string              `json:"account_type"`
	CreatedAt           time.Time           `json:"created_at"`
	Items               []OrderItemResponse `json:"items"`
}

func CustomerFromEntity(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                    c.ID,
		Email:                 c.Email,
		FullName:              c.FullName,
		NationalID:            c.NationalID,
		Phone:                 c.Phone,
		DateOfBirth:           c.DateOfBirth.Format(DateLayout),
		EmploymentType:        c.EmploymentType,
		ECNumber:              c.ECNumber,
		MonthlyIncome:         c.MonthlyIncome,
		MonthlyExpenses:       c.MonthlyExpenses,
		VerifiedMonthlyIncome: c.VerifiedMonthlyIncome,
		Role:                  string(c.Role),
		KYCStatus:             string(c.KYCStatus),
		KYCRejectReason:       c.KYCRejectReason,
		KYCDocuments:          kycDocuments(c.KYCDocuments),
		CreatedAt:             c.CreatedAt,
	}
}

func KYCStatusFromEntity(c *domain.Customer) KYCStatusResponse {
	return KYCStatusResponse{
		Status:                string(c.KYCStatus),
		RejectReason:          c.KYCRejectReason,
		VerifiedMonthlyIncome: c.VerifiedMonthlyIncome,
		Documents:             kycDocuments(c.KYCDocuments),
	}
}

func kycDocuments(docs []domain.KYCDocument) []KYCDocumentResponse {
	out := make([]KYCDocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = KYCDocumentResponse{Type: string(d.Type), URL: d.URL, UploadedAt: d.UploadedAt}
	}
	return out
}

func QuoteFromEntity(q *domain.LoanQuote) QuoteResponse {
	return QuoteResponse{
		LenderID:            q.LenderID,
		LoanProductID:       q.LoanProductID,
		Amount:              q.Amount,
		TermMonths:          q.TermMonths,
		InterestRatePercent: q.InterestRatePercent,
		MonthlyPayment:      q.MonthlyPayment,
		TotalPayment:        q.TotalPayment,
		TotalInterest:       q.TotalInterest,
	}
}

func ScheduleFromEntity(q *domain.LoanQuote, rows []loancalc.Installment) ScheduleResponse {
	installments := make([]InstallmentResponse, len(rows))
	for i, r := range rows {
		installments[i] = InstallmentResponse{
			Month:     r.Month,
			Payment:   r.Payment,
			Principal: r.Principal,
			Interest:  r.Interest,
			Balance:   r.Balance,
		}
	}
	return ScheduleResponse{QuoteResponse: QuoteFromEntity(q), Installments: installments}
}

func EligibilityFromEntity(e *domain.EligibilityCheck) EligibilityResponse {
	return EligibilityResponse{
		Eligible:            e.Eligible,
		MaxLoanAmount:       e.MaxLoanAmount,
		SuggestedEMI:        e.SuggestedEMI,
		RequestedEMI:        e.RequestedEMI,
		InterestRatePercent: e.InterestRatePercent,
		MonthlyIncome:       e.MonthlyIncome,
		MonthlyExpenses:     e.MonthlyExpenses,
		IdentityVerified:    e.IdentityVerified,
	}
}

func StatusUpdatesFromEntity(updates []domain.StatusUpdate) []StatusUpdateResponse {
	out := make([]StatusUpdateResponse, len(updates))
	for i, u := range updates {
		out[i] = StatusUpdateResponse{Status: string(u.Status), Message: u.Message, CreatedAt: u.CreatedAt}
	}
	return out
}

func ApplicationFromEntity(a *domain.LoanApplication) ApplicationResponse {
	res := ApplicationResponse{
		ID:                  a.ID,
		Reference:           a.Reference,
		LenderID:            a.LenderID,
		LoanProductID:       a.LoanProductID,
		Amount:              a.Amount,
		TermMonths:          a.TermMonths,
		InterestRatePercent: a.InterestRatePercent,
		MonthlyPayment:      a.MonthlyPayment,
		Purpose:             a.Purpose,
		Collateral:          a.Collateral,
		Status:              string(a.Status),
		AppliedAt:           a.AppliedAt,
		ApprovedAt:          a.ApprovedAt,
		DisbursedAt:         a.DisbursedAt,
	}
	if a.Lender != nil {
		res.LenderName = a.Lender.Name
	}
	if len(a.StatusUpdates) > 0 {
		res.StatusUpdates = StatusUpdatesFromEntity(a.StatusUpdates)
	}
	return res
}

func ApplicationsFromEntity(apps []domain.LoanApplication) []ApplicationResponse {
	out := make([]ApplicationResponse, len(apps))
	for i := range apps {
		out[i] = ApplicationFromEntity(&apps[i])
	}
	return out
}

func LoanProductsFromEntity(products []domain.LoanProduct) []LoanProductResponse {
	out := make([]LoanProductResponse, len(products))
	for i, p := range products {
		out[i] = LoanProductResponse{
			ID:                  p.ID,
			Name:                p.Name,
			MinAmount:           p.MinAmount,
			MaxAmount:           p.MaxAmount,
			InterestRatePercent: p.InterestRatePercent,
			MinTermMonths:       p.MinTermMonths,
			MaxTermMonths:       p.MaxTermMonths,
			Features:            p.Features,
		}
	}
	return out
}

func ReviewsFromEntity(reviews []domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = ReviewResponse{
			ID:       r.ID,
			UserName: r.UserName,
			Rating:   r.Rating,
			Comment:  r.Comment,
			Date:     r.Date.Format(DateLayout),
		}
	}
	return out
}

func LenderFromEntity(l *domain.Lender) LenderResponse {
	res := LenderResponse{
		ID:                  l.ID,
		Code:                l.Code,
		Name:                l.Name,
		Kind:                string(l.Kind),
		Description:         l.Description,
		InterestRatePercent: l.InterestRatePercent,
		MinAmount:           l.MinAmount,
		MaxAmount:           l.MaxAmount,
		MinTermMonths:       l.MinTermMonths,
		MaxTermMonths:       l.MaxTermMonths,
		Rating:              l.Rating,
		ProcessingTime:      l.ProcessingTime,
		Specialties:         l.Specialties,
	}
	if len(l.LoanProducts) > 0 {
		res.LoanProducts = LoanProductsFromEntity(l.LoanProducts)
	}
	if len(l.Reviews) > 0 {
		res.Reviews = ReviewsFromEntity(l.Reviews)
	}
	return res
}

func LendersFromEntity(lenders []domain.Lender) []LenderResponse {
	out := make([]LenderResponse, len(lenders))
	for i := range lenders {
		out[i] = LenderFromEntity(&lenders[i])
	}
	return out
}

func ProductFromEntity(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
	}
}

func ProductsFromEntity(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ProductFromEntity(&products[i])
	}
	return out
}

func CartFromEntity(c *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = CartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.Price * float64(it.Quantity),
		}
	}
	return CartResponse{Items: items, Subtotal: c.Subtotal, ItemCount: c.ItemCount}
}

func OrderFromEntity(o *domain.CreditOrder) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return OrderResponse{
		ID:                  o.ID,
		Subtotal:            o.Subtotal,
		DownPayment:         o.DownPayment,
		FinancedAmount:      o.FinancedAmount,
		TermMonths:          o.TermMonths,
		InterestRatePercent: o.InterestRatePercent,
		MonthlyInstallment:  o.MonthlyInstallment,
		Status:              string(o.Status),
		BankName:            o.Bank.BankName,
		AccountNumber:       o.Bank.AccountNumber,
		AccountType:         o.Bank.AccountType,
		CreatedAt:           o.CreatedAt,
		Items:               items,
	}
}

func OrdersFromEntity(orders []domain.CreditOrder) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = OrderFromEntity(&orders[i])
	}
	return out
}

func PaginatedFromEntity(p *domain.Paginated, data any) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}
