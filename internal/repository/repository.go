package repository

import (
	"context"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
)

// Finders return (nil, nil) when nothing matches.

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	FindByID(ctx context.Context, id uint64) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	SubmitKYC(ctx context.Context, customerID uint64, documents []domain.KYCDocument, verifiedIncome float64) error
	SetKYCStatus(ctx context.Context, customerID uint64, status domain.KYCStatus, reason string) error
}

type LenderRepository interface {
	Upsert(ctx context.Context, lender *domain.Lender) (*domain.Lender, error)
	FindAll(ctx context.Context, kind domain.LenderKind) ([]domain.Lender, error)
	FindByID(ctx context.Context, id uint64) (*domain.Lender, error)
	Search(ctx context.Context, query string, kind domain.LenderKind) ([]domain.Lender, error)
	FindByCategory(ctx context.Context, category string, kind domain.LenderKind) ([]domain.Lender, error)
	FindReviews(ctx context.Context, lenderID uint64) ([]domain.Review, error)
	FindLoanProducts(ctx context.Context, lenderID uint64) ([]domain.LoanProduct, error)
	FindLoanProduct(ctx context.Context, lenderID, productID uint64) (*domain.LoanProduct, error)
}

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error)
	FindAll(ctx context.Context, category, query string) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, application *domain.LoanApplication, message string) (*domain.LoanApplication, error)
	FindByID(ctx context.Context, id uint64) (*domain.LoanApplication, error)
	FindPaginatedByCustomerID(ctx context.Context, customerID uint64, params domain.Params) ([]domain.LoanApplication, int64, error)
	UpdateStatus(ctx context.Context, id uint64, from, to domain.ApplicationStatus, message string, at time.Time) error
	FindStatusUpdates(ctx context.Context, applicationID uint64) ([]domain.StatusUpdate, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.CreditOrder) (*domain.CreditOrder, error)
	FindByID(ctx context.Context, id string) (*domain.CreditOrder, error)
	FindAllByCustomerID(ctx context.Context, customerID uint64) ([]domain.CreditOrder, error)
}

type CartRepository interface {
	Get(ctx context.Context, customerID uint64) ([]domain.CartItem, error)
	GetItem(ctx context.Context, customerID, productID uint64) (*domain.CartItem, error)
	SetItem(ctx context.Context, customerID uint64, item domain.CartItem) error
	RemoveItem(ctx context.Context, customerID, productID uint64) error
	Clear(ctx context.Context, customerID uint64) error
}
