package common

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrEmailExists             = errors.New("email already registered")
	ErrNationalIDExists        = errors.New("national id already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrKYCIncomplete           = errors.New("kyc documents are incomplete")
	ErrKYCAlreadyVerified      = errors.New("kyc is already verified")
	ErrInvalidKYCDecision      = errors.New("kyc decision must be VERIFIED or REJECTED")
	ErrLenderNotFound          = errors.New("lender not found")
	ErrLoanProductNotFound     = errors.New("loan product not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrApplicationNotFound     = errors.New("loan application not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrAmountOutOfRange        = errors.New("requested amount is outside the lender's range")
	ErrTermOutOfRange          = errors.New("repayment term is not offered")
	ErrNotEligible             = errors.New("applicant is not eligible for the requested loan")
	ErrInvalidStatusTransition = errors.New("invalid application status transition")
	ErrStaleApplication        = errors.New("application status changed concurrently")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrDownPaymentTooLarge     = errors.New("down payment exceeds order subtotal")
)

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// ErrorResponse writes the error envelope used outside the handler layer.
func ErrorResponse(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
