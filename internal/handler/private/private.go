package privatehandler

import (
	"context"
	"errors"
	"time"

	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/handler"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/middleware"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const passwordResetMessage = "Password reset instructions sent to your email"

type PrivateHandler struct {
	privateService service.PrivateService
	store          *session.Store
	secureCookie   bool
	validate       *validator.Validate
	obs            *handler.Observer
}

func NewPrivateHandler(
	privateService service.PrivateService,
	store *session.Store,
	secureCookie bool,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *PrivateHandler {
	return &PrivateHandler{
		privateService: privateService,
		store:          store,
		secureCookie:   secureCookie,
		validate:       dto.NewValidator(),
		obs:            handler.NewObserver(meter, tracer, log),
	}
}

func (h *PrivateHandler) Login(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Login")
	defer span.End()

	var req dto.LoginRequest
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

	res, err := h.privateService.Login(serviceCtx, req)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		}
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to log in")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, res)
}

func (h *PrivateHandler) Logout(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Logout")
	defer span.End()

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

// RequestPasswordReset answers the same way for known and unknown addresses.
func (h *PrivateHandler) RequestPasswordReset(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.RequestPasswordReset")
	defer span.End()

	var req dto.PasswordResetRequest
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

	if err := h.privateService.RequestPasswordReset(serviceCtx, req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to request password reset")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusAccepted, dto.MessageResponse{Message: passwordResetMessage})
}

// CSRFToken returns the session's CSRF token, minting one on first use.
func (h *PrivateHandler) CSRFToken(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.CSRFToken")
	defer span.End()

	sess, err := h.store.Get(c)
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "session_error", "Session error")
	}

	token, _ := sess.Get(middleware.CSRFSessionKey).(string)
	if token == "" {
		token, err = middleware.GenerateCSRFToken()
		if err != nil {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusInternalServerError, "csrf_error", "Failed to generate CSRF token")
		}
		sess.Set(middleware.CSRFSessionKey, token)
		if err := sess.Save(); err != nil {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusInternalServerError, "session_error", "Failed to save session")
		}
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, fiber.Map{"csrf_token": token})
}
