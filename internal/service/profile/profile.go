package profilesrv

import (
	"context"
	"fmt"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/password"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PayslipParser reads the net monthly pay off an uploaded payslip.
type PayslipParser interface {
	NetPay(data []byte) (float64, error)
}

type profileService struct {
	customerRepository repository.CustomerRepository
	payslipParser      PayslipParser
	hashCost           int

	rec             *telemetry.Recorder
	profilesCreated metric.Int64Counter
	profilesUpdated metric.Int64Counter
	kycSubmissions  metric.Int64Counter
	kycDecisions    metric.Int64Counter
}

// Register implements service.ProfileService.
func (p *profileService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "RegisterCustomer", "register",
		attribute.String("customer.email", req.Email),
		attribute.String("customer.employment_type", req.EmploymentType),
	)
	defer op.End()

	customer, err := dto.RegisterToEntity(req)
	if err != nil {
		return nil, op.Reject(fmt.Errorf("invalid date of birth: %w", err), "invalid_request", "Invalid registration data")
	}

	existing, err := p.customerRepository.FindByEmail(ctx, customer.Email)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to check existing e-mail")
	}
	if existing != nil {
		return nil, op.Reject(common.ErrEmailExists, "duplicate_email", "E-mail already registered",
			zap.String("email", customer.Email))
	}

	existing, err = p.customerRepository.FindByNationalID(ctx, customer.NationalID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to check existing national id")
	}
	if existing != nil {
		return nil, op.Reject(common.ErrNationalIDExists, "duplicate_national_id", "National id already registered")
	}

	hashed, err := password.HashPasswordWithCost(req.Password, p.hashCost)
	if err != nil {
		return nil, op.Fail(err, "hash_failed", "Failed to hash password")
	}

	customer.Password = hashed
	customer.Role = domain.CustomerRole
	customer.KYCStatus = domain.KYCNotSubmitted

	created, err := p.customerRepository.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, op.Fail(err, "create_failed", "Failed to create customer")
	}

	p.profilesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("service", "profile")))
	op.Span().SetAttributes(attribute.Int64("customer.id", int64(created.ID)))
	op.Succeed("Customer registered", zap.Uint64("customer_id", created.ID))

	return created, nil
}

// GetMyProfile implements service.ProfileService.
func (p *profileService) GetMyProfile(ctx context.Context, customerID uint64) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "GetMyProfile", "get_profile",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	customer, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch customer profile")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found",
			zap.Uint64("customer_id", customerID))
	}

	op.Succeed("Customer profile retrieved",
		zap.Uint64("customer_id", customerID),
		zap.String("kyc_status", string(customer.KYCStatus)),
	)

	return customer, nil
}

// Update implements service.ProfileService.
func (p *profileService) Update(ctx context.Context, customerID uint64, req dto.UpdateProfileRequest) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "UpdateProfile", "update_profile",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	customer, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch customer for update")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found")
	}

	customer.FullName = req.FullName
	customer.Phone = req.Phone
	customer.EmploymentType = req.EmploymentType
	customer.ECNumber = req.ECNumber
	customer.MonthlyIncome = req.MonthlyIncome
	customer.MonthlyExpenses = req.MonthlyExpenses

	if err := p.customerRepository.Update(ctx, customer); err != nil {
		return nil, op.Fail(err, "update_failed", "Failed to update customer")
	}

	p.profilesUpdated.Add(ctx, 1, metric.WithAttributes(attribute.String("service", "profile")))
	op.Succeed("Customer profile updated", zap.Uint64("customer_id", customerID))

	return customer, nil
}

// SubmitKYC implements service.ProfileService.
func (p *profileService) SubmitKYC(ctx context.Context, customerID uint64, docs []domain.KYCDocument, payslip []byte) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "SubmitKYC", "submit_kyc",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("kyc.documents", len(docs)),
		attribute.Bool("kyc.payslip", len(payslip) > 0),
	)
	defer op.End()

	if !hasDocument(docs, domain.DocumentNationalID) || !hasDocument(docs, domain.DocumentSelfie) {
		return nil, op.Reject(common.ErrKYCIncomplete, "kyc_incomplete", "National id and selfie are required")
	}

	customer, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch customer for KYC")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found")
	}
	if customer.KYCStatus == domain.KYCVerified {
		return nil, op.Reject(common.ErrKYCAlreadyVerified, "kyc_already_verified", "KYC already verified")
	}

	// An unreadable payslip leaves the declared income unverified.
	var verifiedIncome float64
	if len(payslip) > 0 && p.payslipParser != nil {
		verifiedIncome, err = p.payslipParser.NetPay(payslip)
		if err != nil {
			p.rec.Log().Warn("Could not read net pay from payslip",
				zap.Uint64("customer_id", customerID),
				zap.Error(err),
			)
			verifiedIncome = 0
		}
	}

	if err := p.customerRepository.SubmitKYC(ctx, customerID, docs, verifiedIncome); err != nil {
		return nil, op.Fail(err, "submit_failed", "Failed to store KYC documents")
	}

	updated, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to reload customer after KYC")
	}

	p.kycSubmissions.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("payslip_verified", verifiedIncome > 0),
	))
	op.Succeed("KYC submitted",
		zap.Uint64("customer_id", customerID),
		zap.Float64("verified_monthly_income", verifiedIncome),
	)

	return updated, nil
}

// GetKYCStatus implements service.ProfileService.
func (p *profileService) GetKYCStatus(ctx context.Context, customerID uint64) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "GetKYCStatus", "get_kyc_status",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	customer, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch KYC status")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found")
	}

	op.Succeed("KYC status retrieved", zap.String("kyc_status", string(customer.KYCStatus)))

	return customer, nil
}

// VerifyKYC implements service.ProfileService.
func (p *profileService) VerifyKYC(ctx context.Context, customerID uint64, status domain.KYCStatus, reason string) (*domain.Customer, error) {
	ctx, op := p.rec.Start(ctx, "VerifyKYC", "verify_kyc",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("kyc.decision", string(status)),
	)
	defer op.End()

	if status != domain.KYCVerified && status != domain.KYCRejected {
		return nil, op.Reject(common.ErrInvalidKYCDecision, "invalid_decision", "Invalid KYC decision")
	}

	customer, err := p.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch customer for KYC decision")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found")
	}
	if customer.KYCStatus == domain.KYCNotSubmitted {
		return nil, op.Reject(common.ErrKYCIncomplete, "kyc_not_submitted", "Customer has not submitted KYC documents")
	}

	if status == domain.KYCVerified {
		reason = ""
	}

	if err := p.customerRepository.SetKYCStatus(ctx, customerID, status, reason); err != nil {
		return nil, op.Fail(err, "update_failed", "Failed to record KYC decision")
	}

	customer.KYCStatus = status
	customer.KYCRejectReason = reason

	p.kycDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", string(status))))
	op.Succeed("KYC decision recorded",
		zap.Uint64("customer_id", customerID),
		zap.String("kyc_status", string(status)),
	)

	return customer, nil
}

func hasDocument(docs []domain.KYCDocument, docType domain.DocumentType) bool {
	for _, d := range docs {
		if d.Type == docType && d.URL != "" {
			return true
		}
	}
	return false
}

// Option tunes a profile service.
type Option func(*profileService)

// WithHashCost overrides the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(p *profileService) { p.hashCost = cost }
}

func NewProfileService(
	customerRepository repository.CustomerRepository,
	payslipParser PayslipParser,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
	opts ...Option,
) service.ProfileService {
	profilesCreated, _ := meter.Int64Counter(
		"service.profiles.created",
		metric.WithDescription("Number of profiles created"),
		metric.WithUnit("{profile}"),
	)

	profilesUpdated, _ := meter.Int64Counter(
		"service.profiles.updated",
		metric.WithDescription("Number of profiles updated"),
		metric.WithUnit("{profile}"),
	)

	kycSubmissions, _ := meter.Int64Counter(
		"kyc.submissions",
		metric.WithDescription("Number of KYC document submissions"),
		metric.WithUnit("{submission}"),
	)

	kycDecisions, _ := meter.Int64Counter(
		"kyc.decisions",
		metric.WithDescription("Number of KYC verification decisions"),
		metric.WithUnit("{decision}"),
	)

	p := &profileService{
		customerRepository: customerRepository,
		payslipParser:      payslipParser,
		hashCost:           password.DefaultCost,
		rec:                telemetry.NewRecorder(telemetry.ServiceLayer, "profile", meter, tracer, log),
		profilesCreated:    profilesCreated,
		profilesUpdated:    profilesUpdated,
		kycSubmissions:     kycSubmissions,
		kycDecisions:       kycDecisions,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}
