package loansrv

import (
	"context"
	"math"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	submittedMessage = "Submitted"
)

// Settings are the marketplace values the loan service applies on top of
// the lender catalog.
type Settings struct {
	// EligibilityRatePercent prices the requested EMI in the affordability
	// check, independently of the lender's advertised rate.
	EligibilityRatePercent float64
	DefaultMonthlyIncome   float64
	DefaultMonthlyExpenses float64
}

var statusMessages = map[domain.ApplicationStatus]string{
	domain.ApplicationUnderReview: "Application is under review",
	domain.ApplicationApproved:    "Application approved",
	domain.ApplicationRejected:    "Application rejected",
	domain.ApplicationDisbursed:   "Funds disbursed",
}

type loanService struct {
	lenderRepository      repository.LenderRepository
	applicationRepository repository.ApplicationRepository
	customerRepository    repository.CustomerRepository

	calc     loancalc.Calculator
	settings Settings
	now      func() time.Time

	rec                   *telemetry.Recorder
	eligibilityChecks     metric.Int64Counter
	applicationsSubmitted metric.Int64Counter
	statusChanges         metric.Int64Counter
}

// pricing resolves the lender, the optional loan product, and the terms
// they offer.
type pricing struct {
	lender  *domain.Lender
	product *domain.LoanProduct
}

func (p pricing) rate() float64 {
	if p.product != nil {
		return p.product.InterestRatePercent
	}
	return p.lender.InterestRatePercent
}

func (p pricing) amountRange() (float64, float64) {
	if p.product != nil {
		return p.product.MinAmount, p.product.MaxAmount
	}
	return p.lender.MinAmount, p.lender.MaxAmount
}

func (p pricing) termRange() (int, int) {
	if p.product != nil {
		return p.product.MinTermMonths, p.product.MaxTermMonths
	}
	return p.lender.MinTermMonths, p.lender.MaxTermMonths
}

func (l *loanService) resolvePricing(ctx context.Context, op *telemetry.Operation, lenderID uint64, productID *uint64) (pricing, error) {
	lender, err := l.lenderRepository.FindByID(ctx, lenderID)
	if err != nil {
		return pricing{}, op.Fail(err, "repository_error", "Failed to fetch lender")
	}
	if lender == nil {
		return pricing{}, op.Reject(common.ErrLenderNotFound, "lender_not_found", "Lender not found",
			zap.Uint64("lender_id", lenderID))
	}

	p := pricing{lender: lender}
	if productID == nil {
		return p, nil
	}

	product, err := l.lenderRepository.FindLoanProduct(ctx, lenderID, *productID)
	if err != nil {
		return pricing{}, op.Fail(err, "repository_error", "Failed to fetch loan product")
	}
	if product == nil {
		return pricing{}, op.Reject(common.ErrLoanProductNotFound, "loan_product_not_found", "Loan product not found",
			zap.Uint64("lender_id", lenderID), zap.Uint64("loan_product_id", *productID))
	}
	p.product = product

	return p, nil
}

func (l *loanService) quote(ctx context.Context, op *telemetry.Operation, req dto.QuoteRequest) (*domain.LoanQuote, loancalc.LoanRequest, error) {
	p, err := l.resolvePricing(ctx, op, req.LenderID, req.LoanProductID)
	if err != nil {
		return nil, loancalc.LoanRequest{}, err
	}

	loanReq := loancalc.LoanRequest{
		Principal:         req.Amount,
		AnnualRatePercent: p.rate(),
		TermMonths:        req.TermMonths,
	}

	q, err := l.calc.Quote(loanReq)
	if err != nil {
		return nil, loancalc.LoanRequest{}, op.Reject(err, "invalid_argument", "Loan parameters rejected")
	}

	return &domain.LoanQuote{
		LenderID:            req.LenderID,
		LoanProductID:       req.LoanProductID,
		Amount:              req.Amount,
		TermMonths:          req.TermMonths,
		InterestRatePercent: loanReq.AnnualRatePercent,
		MonthlyPayment:      q.EMI,
		TotalPayment:        q.TotalPayment,
		TotalInterest:       q.TotalInterest,
	}, loanReq, nil
}

// Quote implements service.LoanService.
func (l *loanService) Quote(ctx context.Context, req dto.QuoteRequest) (*domain.LoanQuote, error) {
	ctx, op := l.rec.Start(ctx, "Quote", "quote",
		attribute.Int64("lender.id", int64(req.LenderID)),
		attribute.Float64("loan.amount", req.Amount),
		attribute.Int("loan.term_months", req.TermMonths),
	)
	defer op.End()

	q, _, err := l.quote(ctx, op, req)
	if err != nil {
		return nil, err
	}

	op.Succeed("Loan quoted", zap.Float64("monthly_payment", q.MonthlyPayment))

	return q, nil
}

// Schedule implements service.LoanService.
func (l *loanService) Schedule(ctx context.Context, req dto.QuoteRequest) (*domain.LoanQuote, []loancalc.Installment, error) {
	ctx, op := l.rec.Start(ctx, "Schedule", "schedule",
		attribute.Int64("lender.id", int64(req.LenderID)),
		attribute.Int("loan.term_months", req.TermMonths),
	)
	defer op.End()

	q, loanReq, err := l.quote(ctx, op, req)
	if err != nil {
		return nil, nil, err
	}

	rows, err := l.calc.Schedule(loanReq)
	if err != nil {
		return nil, nil, op.Reject(err, "invalid_argument", "Loan parameters rejected")
	}

	op.Succeed("Amortization schedule built", zap.Int("installments", len(rows)))

	return q, rows, nil
}

// financials picks the applicant's cash flow: values supplied with the
// request win, then the profile (payslip-verified income first), then the
// configured defaults.
func (l *loanService) financials(customer *domain.Customer, income, expenses *float64) loancalc.ApplicantFinancials {
	fin := loancalc.ApplicantFinancials{
		MonthlyIncome:    l.settings.DefaultMonthlyIncome,
		MonthlyExpenses:  l.settings.DefaultMonthlyExpenses,
		IdentityVerified: customer.IdentityVerified(),
	}

	switch {
	case customer.VerifiedMonthlyIncome > 0:
		fin.MonthlyIncome = customer.VerifiedMonthlyIncome
		fin.MonthlyExpenses = customer.MonthlyExpenses
	case customer.MonthlyIncome > 0:
		fin.MonthlyIncome = customer.MonthlyIncome
		fin.MonthlyExpenses = customer.MonthlyExpenses
	}

	if income != nil {
		fin.MonthlyIncome = *income
	}
	if expenses != nil {
		fin.MonthlyExpenses = *expenses
	}

	return fin
}

func (l *loanService) evaluate(ctx context.Context, op *telemetry.Operation, fin loancalc.ApplicantFinancials, amount float64, term int) (loancalc.EligibilityResult, error) {
	result, err := l.calc.Evaluate(fin, loancalc.LoanRequest{
		Principal:         amount,
		AnnualRatePercent: l.settings.EligibilityRatePercent,
		TermMonths:        term,
	})
	if err != nil {
		return result, op.Reject(err, "invalid_argument", "Eligibility inputs rejected")
	}

	l.eligibilityChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("eligible", result.Eligible),
		attribute.Bool("identity_verified", fin.IdentityVerified),
	))

	return result, nil
}

func (l *loanService) findCustomer(ctx context.Context, op *telemetry.Operation, customerID uint64) (*domain.Customer, error) {
	customer, err := l.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch customer")
	}
	if customer == nil {
		return nil, op.Reject(common.ErrCustomerNotFound, "customer_not_found", "Customer not found",
			zap.Uint64("customer_id", customerID))
	}
	return customer, nil
}

// CheckEligibility implements service.LoanService.
func (l *loanService) CheckEligibility(ctx context.Context, customerID uint64, req dto.EligibilityRequest) (*domain.EligibilityCheck, error) {
	ctx, op := l.rec.Start(ctx, "CheckEligibility", "check_eligibility",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("lender.id", int64(req.LenderID)),
		attribute.Float64("loan.amount", req.Amount),
		attribute.Int("loan.term_months", req.TermMonths),
	)
	defer op.End()

	if _, err := l.resolvePricing(ctx, op, req.LenderID, nil); err != nil {
		return nil, err
	}

	customer, err := l.findCustomer(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	fin := l.financials(customer, req.MonthlyIncome, req.MonthlyExpenses)

	result, err := l.evaluate(ctx, op, fin, req.Amount, req.TermMonths)
	if err != nil {
		return nil, err
	}

	op.Span().SetAttributes(attribute.Bool("loan.eligible", result.Eligible))
	op.Succeed("Eligibility evaluated",
		zap.Uint64("customer_id", customerID),
		zap.Bool("eligible", result.Eligible),
		zap.Float64("requested_emi", result.RequestedEMI),
		zap.Float64("suggested_emi", result.SuggestedEMI),
	)

	return &domain.EligibilityCheck{
		Eligible:            result.Eligible,
		MaxLoanAmount:       result.MaxLoanAmount,
		SuggestedEMI:        result.SuggestedEMI,
		RequestedEMI:        result.RequestedEMI,
		InterestRatePercent: l.settings.EligibilityRatePercent,
		MonthlyIncome:       fin.MonthlyIncome,
		MonthlyExpenses:     fin.MonthlyExpenses,
		IdentityVerified:    fin.IdentityVerified,
	}, nil
}

// SubmitApplication implements service.LoanService.
func (l *loanService) SubmitApplication(ctx context.Context, customerID uint64, req dto.ApplicationRequest) (*domain.LoanApplication, error) {
	ctx, op := l.rec.Start(ctx, "SubmitApplication", "submit_application",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("lender.id", int64(req.LenderID)),
		attribute.Float64("loan.amount", req.Amount),
		attribute.Int("loan.term_months", req.TermMonths),
	)
	defer op.End()

	p, err := l.resolvePricing(ctx, op, req.LenderID, req.LoanProductID)
	if err != nil {
		return nil, err
	}

	minAmount, maxAmount := p.amountRange()
	if req.Amount < minAmount || req.Amount > maxAmount {
		return nil, op.Reject(common.ErrAmountOutOfRange, "amount_out_of_range", "Requested amount outside lender range",
			zap.Float64("amount", req.Amount),
			zap.Float64("min_amount", minAmount),
			zap.Float64("max_amount", maxAmount),
		)
	}

	minTerm, maxTerm := p.termRange()
	if !domain.IsAllowedTerm(req.TermMonths) || req.TermMonths < minTerm || req.TermMonths > maxTerm {
		return nil, op.Reject(common.ErrTermOutOfRange, "term_out_of_range", "Requested term not offered",
			zap.Int("term_months", req.TermMonths))
	}

	customer, err := l.findCustomer(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	fin := l.financials(customer, &req.MonthlyIncome, &req.MonthlyExpenses)

	result, err := l.evaluate(ctx, op, fin, req.Amount, req.TermMonths)
	if err != nil {
		return nil, err
	}
	if !result.Eligible {
		return nil, op.Reject(common.ErrNotEligible, "not_eligible", "Applicant not eligible",
			zap.Float64("requested_emi", result.RequestedEMI),
			zap.Float64("suggested_emi", result.SuggestedEMI),
			zap.Bool("identity_verified", fin.IdentityVerified),
		)
	}

	application := &domain.LoanApplication{
		Reference:           "APP-" + uuid.NewString(),
		CustomerID:          customerID,
		LenderID:            req.LenderID,
		LoanProductID:       req.LoanProductID,
		Amount:              req.Amount,
		TermMonths:          req.TermMonths,
		InterestRatePercent: p.rate(),
		MonthlyPayment:      result.RequestedEMI,
		Purpose:             req.Purpose,
		Collateral:          req.Collateral,
		MonthlyIncome:       fin.MonthlyIncome,
		MonthlyExpenses:     fin.MonthlyExpenses,
		Status:              domain.ApplicationPending,
		AppliedAt:           l.now(),
	}

	created, err := l.applicationRepository.Create(ctx, application, submittedMessage)
	if err != nil {
		return nil, op.Fail(err, "create_failed", "Failed to store loan application")
	}
	created.Lender = p.lender

	l.applicationsSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("lender.kind", string(p.lender.Kind)),
	))
	op.Span().SetAttributes(attribute.String("application.reference", created.Reference))
	op.Succeed("Loan application submitted",
		zap.Uint64("application_id", created.ID),
		zap.String("reference", created.Reference),
	)

	return created, nil
}

// ListMyApplications implements service.LoanService.
func (l *loanService) ListMyApplications(ctx context.Context, customerID uint64, params domain.Params) (*domain.Paginated, error) {
	ctx, op := l.rec.Start(ctx, "ListMyApplications", "list_applications",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("pagination.page", params.Page),
		attribute.Int("pagination.limit", params.Limit),
	)
	defer op.End()

	params = normalize(params)

	applications, total, err := l.applicationRepository.FindPaginatedByCustomerID(ctx, customerID, params)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch loan applications")
	}

	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	op.Succeed("Loan applications retrieved",
		zap.Int64("total", total),
		zap.Int("page", params.Page),
		zap.Int("total_pages", totalPages),
	)

	return &domain.Paginated{
		Data:       applications,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

func (l *loanService) ownedApplication(ctx context.Context, op *telemetry.Operation, customerID, applicationID uint64) (*domain.LoanApplication, error) {
	application, err := l.applicationRepository.FindByID(ctx, applicationID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch loan application")
	}
	// Another customer's application is reported as missing.
	if application == nil || application.CustomerID != customerID {
		return nil, op.Reject(common.ErrApplicationNotFound, "application_not_found", "Loan application not found",
			zap.Uint64("application_id", applicationID))
	}
	return application, nil
}

// GetApplication implements service.LoanService.
func (l *loanService) GetApplication(ctx context.Context, customerID, applicationID uint64) (*domain.LoanApplication, error) {
	ctx, op := l.rec.Start(ctx, "GetApplication", "get_application",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("application.id", int64(applicationID)),
	)
	defer op.End()

	application, err := l.ownedApplication(ctx, op, customerID, applicationID)
	if err != nil {
		return nil, err
	}

	op.Succeed("Loan application retrieved", zap.String("status", string(application.Status)))

	return application, nil
}

// GetStatusUpdates implements service.LoanService.
func (l *loanService) GetStatusUpdates(ctx context.Context, customerID, applicationID uint64) ([]domain.StatusUpdate, error) {
	ctx, op := l.rec.Start(ctx, "GetStatusUpdates", "get_status_updates",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("application.id", int64(applicationID)),
	)
	defer op.End()

	if _, err := l.ownedApplication(ctx, op, customerID, applicationID); err != nil {
		return nil, err
	}

	updates, err := l.applicationRepository.FindStatusUpdates(ctx, applicationID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch status updates")
	}

	op.Succeed("Status updates retrieved", zap.Int("count", len(updates)))

	return updates, nil
}

// UpdateApplicationStatus implements service.LoanService.
func (l *loanService) UpdateApplicationStatus(ctx context.Context, applicationID uint64, status domain.ApplicationStatus, message string) (*domain.LoanApplication, error) {
	ctx, op := l.rec.Start(ctx, "UpdateApplicationStatus", "update_application_status",
		attribute.Int64("application.id", int64(applicationID)),
		attribute.String("application.status", string(status)),
	)
	defer op.End()

	application, err := l.applicationRepository.FindByID(ctx, applicationID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch loan application")
	}
	if application == nil {
		return nil, op.Reject(common.ErrApplicationNotFound, "application_not_found", "Loan application not found")
	}

	if !application.Status.CanTransitionTo(status) {
		return nil, op.Reject(common.ErrInvalidStatusTransition, "invalid_transition", "Status transition not allowed",
			zap.String("from", string(application.Status)),
			zap.String("to", string(status)),
		)
	}

	if message == "" {
		message = statusMessages[status]
	}

	from := application.Status
	if err := l.applicationRepository.UpdateStatus(ctx, applicationID, from, status, message, l.now()); err != nil {
		return nil, op.Fail(err, "update_failed", "Failed to update application status")
	}

	updated, err := l.applicationRepository.FindByID(ctx, applicationID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to reload loan application")
	}

	l.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(status)),
	))
	op.Succeed("Loan application status updated",
		zap.Uint64("application_id", applicationID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)

	return updated, nil
}

func normalize(params domain.Params) domain.Params {
	if params.Page < 1 {
		params.Page = defaultPage
	}
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	return params
}

// Option tunes a loan service.
type Option func(*loanService)

// WithClock replaces the time source used for application dates.
func WithClock(now func() time.Time) Option {
	return func(l *loanService) { l.now = now }
}

func NewLoanService(
	lenderRepository repository.LenderRepository,
	applicationRepository repository.ApplicationRepository,
	customerRepository repository.CustomerRepository,
	calc loancalc.Calculator,
	settings Settings,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
	opts ...Option,
) service.LoanService {
	eligibilityChecks, _ := meter.Int64Counter(
		"loan.eligibility.checks",
		metric.WithDescription("Number of affordability checks by outcome"),
		metric.WithUnit("{check}"),
	)

	applicationsSubmitted, _ := meter.Int64Counter(
		"loan.applications.submitted",
		metric.WithDescription("Number of loan applications submitted"),
		metric.WithUnit("{application}"),
	)

	statusChanges, _ := meter.Int64Counter(
		"loan.applications.status_changes",
		metric.WithDescription("Number of loan application status changes"),
		metric.WithUnit("{change}"),
	)

	l := &loanService{
		lenderRepository:      lenderRepository,
		applicationRepository: applicationRepository,
		customerRepository:    customerRepository,

		calc:     calc,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },

		rec:                   telemetry.NewRecorder(telemetry.ServiceLayer, "loan", meter, tracer, log),
		eligibilityChecks:     eligibilityChecks,
		applicationsSubmitted: applicationsSubmitted,
		statusChanges:         statusChanges,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}
