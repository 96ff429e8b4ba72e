package adminhandler

import (
	"context"
	"errors"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/handler"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AdminHandler struct {
	profileService service.ProfileService
	loanService    service.LoanService
	validate       *validator.Validate
	obs            *handler.Observer
}

func NewAdminHandler(
	profileService service.ProfileService,
	loanService service.LoanService,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		profileService: profileService,
		loanService:    loanService,
		validate:       dto.NewValidator(),
		obs:            handler.NewObserver(meter, tracer, log),
	}
}

func (h *AdminHandler) VerifyCustomerKYC(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.VerifyCustomerKYC")
	defer span.End()

	customerID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid customer ID")
	}

	var req dto.KYCDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("kyc.decision", req.Status),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	customer, err := h.profileService.VerifyKYC(serviceCtx, customerID, domain.KYCStatus(req.Status), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrCustomerNotFound):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "customer_not_found", "Customer not found")
		case errors.Is(err, common.ErrKYCIncomplete):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusConflict, "kyc_not_submitted", "Customer has not submitted KYC documents")
		case errors.Is(err, common.ErrInvalidKYCDecision):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusBadRequest, "invalid_decision", "Status must be VERIFIED or REJECTED")
		default:
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusInternalServerError, "service_error", "Failed to record KYC decision")
		}
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.KYCStatusFromEntity(customer),
		zap.Uint64("customer_id", customerID),
		zap.String("kyc_status", string(customer.KYCStatus)),
	)
}

func (h *AdminHandler) UpdateApplicationStatus(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.UpdateApplicationStatus")
	defer span.End()

	applicationID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid application ID")
	}

	var req dto.ApplicationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.Int64("application.id", int64(applicationID)),
		attribute.String("application.status", req.Status),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	app, err := h.loanService.UpdateApplicationStatus(serviceCtx, applicationID, domain.ApplicationStatus(req.Status), req.Message)
	if err != nil {
		fields := []zap.Field{zap.Uint64("application_id", applicationID), zap.String("status", req.Status)}
		switch {
		case errors.Is(err, common.ErrApplicationNotFound):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "application_not_found", "Loan application not found", fields...)
		case errors.Is(err, common.ErrInvalidStatusTransition):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusUnprocessableEntity, "invalid_transition", "Invalid application status transition", fields...)
		case errors.Is(err, common.ErrStaleApplication):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusConflict, "stale_application", "Application was updated by someone else", fields...)
		default:
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusInternalServerError, "service_error", "Failed to update application status", fields...)
		}
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ApplicationFromEntity(app),
		zap.Uint64("application_id", applicationID),
		zap.String("status", string(app.Status)),
	)
}
