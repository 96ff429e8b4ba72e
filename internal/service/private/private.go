package privatesrv

import (
	"context"
	"strings"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/password"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const Issuer = "lendora"

type privateService struct {
	customerRepository repository.CustomerRepository

	jwtSecret string
	jwtTTL    time.Duration

	rec           *telemetry.Recorder
	loginAttempts metric.Int64Counter
}

// Login implements service.PrivateService.
func (p *privateService) Login(ctx context.Context, data dto.LoginRequest) (*dto.LoginResponse, error) {
	ctx, op := p.rec.Start(ctx, "Login", "login")
	defer op.End()

	email := strings.ToLower(strings.TrimSpace(data.Email))

	cust, err := p.customerRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to look up customer for login")
	}

	if cust == nil || !password.CheckPasswordHash(data.Password, cust.Password) {
		p.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid_credentials")))
		return nil, op.Reject(common.ErrInvalidCredentials, "invalid_credentials", "Login refused")
	}

	expiresAt := time.Now().Add(p.jwtTTL)
	claims := &domain.JwtCustomClaims{
		UserID: cust.ID,
		Role:   cust.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(p.jwtSecret))
	if err != nil {
		return nil, op.Fail(err, "sign_failed", "Failed to sign token")
	}

	p.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	op.Succeed("Customer logged in",
		zap.Uint64("customer_id", cust.ID),
		zap.String("role", string(cust.Role)),
	)

	return &dto.LoginResponse{Token: signedToken, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset implements service.PrivateService. The outcome is the
// same whether or not the address is registered.
func (p *privateService) RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error {
	ctx, op := p.rec.Start(ctx, "RequestPasswordReset", "password_reset")
	defer op.End()

	cust, err := p.customerRepository.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return op.Fail(err, "repository_error", "Failed to look up customer for password reset")
	}

	op.Succeed("Password reset requested", zap.Bool("known_customer", cust != nil))

	return nil
}

func NewPrivateService(
	jwtSecret string,
	jwtTTL time.Duration,
	customerRepository repository.CustomerRepository,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.PrivateService {
	loginAttempts, _ := meter.Int64Counter(
		"auth.login.attempts",
		metric.WithDescription("Number of login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)

	return &privateService{
		customerRepository: customerRepository,

		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,

		rec:           telemetry.NewRecorder(telemetry.ServiceLayer, "private", meter, tracer, log),
		loginAttempts: loginAttempts,
	}
}
