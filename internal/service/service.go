package service

import (
	"context"
	"mime/multipart"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"
)

type ProfileService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.Customer, error)
	GetMyProfile(ctx context.Context, customerID uint64) (*domain.Customer, error)
	Update(ctx context.Context, customerID uint64, req dto.UpdateProfileRequest) (*domain.Customer, error)
	// SubmitKYC replaces the customer's documents. payslip holds the raw PDF
	// when one was uploaded.
	SubmitKYC(ctx context.Context, customerID uint64, docs []domain.KYCDocument, payslip []byte) (*domain.Customer, error)
	GetKYCStatus(ctx context.Context, customerID uint64) (*domain.Customer, error)
	VerifyKYC(ctx context.Context, customerID uint64, status domain.KYCStatus, reason string) (*domain.Customer, error)
}

type PrivateService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error
}

type LoanService interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (*domain.LoanQuote, error)
	Schedule(ctx context.Context, req dto.QuoteRequest) (*domain.LoanQuote, []loancalc.Installment, error)
	CheckEligibility(ctx context.Context, customerID uint64, req dto.EligibilityRequest) (*domain.EligibilityCheck, error)
	SubmitApplication(ctx context.Context, customerID uint64, req dto.ApplicationRequest) (*domain.LoanApplication, error)
	ListMyApplications(ctx context.Context, customerID uint64, params domain.Params) (*domain.Paginated, error)
	GetApplication(ctx context.Context, customerID, applicationID uint64) (*domain.LoanApplication, error)
	GetStatusUpdates(ctx context.Context, customerID, applicationID uint64) ([]domain.StatusUpdate, error)
	UpdateApplicationStatus(ctx context.Context, applicationID uint64, status domain.ApplicationStatus, message string) (*domain.LoanApplication, error)
}

type CatalogService interface {
	ListLenders(ctx context.Context, kind domain.LenderKind, category string) ([]domain.Lender, error)
	SearchLenders(ctx context.Context, query string, kind domain.LenderKind) ([]domain.Lender, error)
	GetLender(ctx context.Context, id uint64) (*domain.Lender, error)
	GetReviews(ctx context.Context, lenderID uint64) ([]domain.Review, error)
	GetLoanProducts(ctx context.Context, lenderID uint64) ([]domain.LoanProduct, error)
	ListProducts(ctx context.Context, category, query string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint64) (*domain.Product, error)
	Seed(ctx context.Context, lenders []domain.Lender, products []domain.Product) error
}

type OrderService interface {
	GetCart(ctx context.Context, customerID uint64) (*domain.Cart, error)
	AddToCart(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, customerID, productID uint64) (*domain.Cart, error)
	ClearCart(ctx context.Context, customerID uint64) error
	Checkout(ctx context.Context, customerID uint64, req dto.CheckoutRequest) (*domain.CreditOrder, error)
	ListMyOrders(ctx context.Context, customerID uint64) ([]domain.CreditOrder, error)
	GetOrder(ctx context.Context, customerID uint64, orderID string) (*domain.CreditOrder, error)
}

type CloudinaryService interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
}
