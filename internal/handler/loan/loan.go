package loanhandler

import (
	"context"
	"errors"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/handler"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type LoanHandler struct {
	loanService service.LoanService
	validate    *validator.Validate
	obs         *handler.Observer
}

func NewLoanHandler(
	loanService service.LoanService,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		validate:    dto.NewValidator(),
		obs:         handler.NewObserver(meter, tracer, log),
	}
}

type failure struct {
	status    int
	errorType string
	message   string
}

// classify maps a loan service error onto the response sent to the client.
func classify(err error, fallback string) failure {
	switch {
	case errors.Is(err, common.ErrLenderNotFound):
		return failure{fiber.StatusNotFound, "lender_not_found", "Lender not found"}
	case errors.Is(err, common.ErrLoanProductNotFound):
		return failure{fiber.StatusNotFound, "loan_product_not_found", "Loan product not found"}
	case errors.Is(err, common.ErrCustomerNotFound):
		return failure{fiber.StatusNotFound, "customer_not_found", "Customer not found"}
	case errors.Is(err, common.ErrApplicationNotFound):
		return failure{fiber.StatusNotFound, "application_not_found", "Loan application not found"}
	case errors.Is(err, common.ErrAmountOutOfRange):
		return failure{fiber.StatusUnprocessableEntity, "amount_out_of_range", "Requested amount is outside the lender's range"}
	case errors.Is(err, common.ErrTermOutOfRange):
		return failure{fiber.StatusUnprocessableEntity, "term_out_of_range", "Repayment term is not offered"}
	case errors.Is(err, common.ErrNotEligible):
		return failure{fiber.StatusUnprocessableEntity, "not_eligible", "Applicant is not eligible for the requested loan"}
	case errors.Is(err, common.ErrInvalidStatusTransition):
		return failure{fiber.StatusUnprocessableEntity, "invalid_transition", "Invalid application status transition"}
	case errors.Is(err, common.ErrStaleApplication):
		return failure{fiber.StatusConflict, "stale_application", "Application was updated by someone else"}
	case errors.Is(err, loancalc.ErrInvalidArgument):
		return failure{fiber.StatusBadRequest, "invalid_argument", "Invalid loan parameters"}
	default:
		return failure{fiber.StatusInternalServerError, "service_error", fallback}
	}
}

func (h *LoanHandler) fail(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error, fallback string, fields ...zap.Field) error {
	f := classify(err, fallback)
	return h.obs.RecordError(ctx, span, c, start, err, f.status, f.errorType, f.message, fields...)
}

// Quote prices a loan at the lender's advertised rate. No login required.
func (h *LoanHandler) Quote(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Quote")
	defer span.End()

	var req dto.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.Int64("lender.id", int64(req.LenderID)),
		attribute.Float64("loan.amount", req.Amount),
		attribute.Int("loan.term_months", req.TermMonths),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	quote, err := h.loanService.Quote(serviceCtx, req)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to calculate quote")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.QuoteFromEntity(quote))
}

func (h *LoanHandler) Schedule(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Schedule")
	defer span.End()

	var req dto.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	quote, rows, err := h.loanService.Schedule(serviceCtx, req)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to build repayment schedule")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ScheduleFromEntity(quote, rows),
		zap.Int("installments", len(rows)))
}

func (h *LoanHandler) CheckEligibility(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.CheckEligibility")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	var req dto.EligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	check, err := h.loanService.CheckEligibility(serviceCtx, customerID, req)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to check eligibility",
			zap.Uint64("customer_id", customerID))
	}

	span.SetAttributes(attribute.Bool("loan.eligible", check.Eligible))

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.EligibilityFromEntity(check),
		zap.Uint64("customer_id", customerID),
		zap.Bool("eligible", check.Eligible),
	)
}

func (h *LoanHandler) SubmitApplication(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.SubmitApplication")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	var req dto.ApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	app, err := h.loanService.SubmitApplication(serviceCtx, customerID, req)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to submit loan application",
			zap.Uint64("customer_id", customerID),
			zap.Uint64("lender_id", req.LenderID),
		)
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusCreated, dto.ApplicationFromEntity(app),
		zap.Uint64("application_id", app.ID),
		zap.String("reference", app.Reference),
	)
}

func (h *LoanHandler) ListMyApplications(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.ListMyApplications")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	params := domain.Params{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	page, err := h.loanService.ListMyApplications(serviceCtx, customerID, params)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to list loan applications")
	}

	apps, _ := page.Data.([]domain.LoanApplication)

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK,
		dto.PaginatedFromEntity(page, dto.ApplicationsFromEntity(apps)),
		zap.Int64("total", page.Total),
	)
}

func (h *LoanHandler) GetApplication(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetApplication")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	applicationID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid application ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	app, err := h.loanService.GetApplication(serviceCtx, customerID, applicationID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to retrieve loan application",
			zap.Uint64("application_id", applicationID))
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ApplicationFromEntity(app),
		zap.Uint64("application_id", applicationID))
}

func (h *LoanHandler) GetStatusUpdates(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetStatusUpdates")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	applicationID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid application ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	updates, err := h.loanService.GetStatusUpdates(serviceCtx, customerID, applicationID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to retrieve status updates",
			zap.Uint64("application_id", applicationID))
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.StatusUpdatesFromEntity(updates),
		zap.Int("updates", len(updates)))
}
