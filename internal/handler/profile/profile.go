package profilehandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

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

// maxDocumentSize caps every KYC upload, and the payslip read into memory.
const maxDocumentSize = 5 << 20

type ProfileHandler struct {
	profileService    service.ProfileService
	cloudinaryService service.CloudinaryService
	folder            string
	validate          *validator.Validate
	obs               *handler.Observer
}

// uploadResult is the outcome of one concurrent document upload.
type uploadResult struct {
	docType domain.DocumentType
	url     string
	err     error
}

func NewProfileHandler(
	profileService service.ProfileService,
	cloudinaryService service.CloudinaryService,
	folder string,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profileService:    profileService,
		cloudinaryService: cloudinaryService,
		folder:            folder,
		validate:          dto.NewValidator(),
		obs:               handler.NewObserver(meter, tracer, log),
	}
}

func (h *ProfileHandler) Register(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Register")
	defer span.End()

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(attribute.String("customer.employment_type", req.EmploymentType))

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	customer, err := h.profileService.Register(serviceCtx, req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmailExists):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusConflict, "duplicate_email", "E-mail is already registered")
		case errors.Is(err, common.ErrNationalIDExists):
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusConflict, "duplicate_national_id", "National ID is already registered")
		default:
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusInternalServerError, "service_error", "Failed to register customer")
		}
	}

	span.SetAttributes(attribute.Int64("customer.id", int64(customer.ID)))

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusCreated, dto.CustomerFromEntity(customer),
		zap.Uint64("customer_id", customer.ID))
}

func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetMyProfile")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	customer, err := h.profileService.GetMyProfile(serviceCtx, customerID)
	if err != nil {
		if errors.Is(err, common.ErrCustomerNotFound) {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "customer_not_found", "Customer not found")
		}
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to retrieve profile")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CustomerFromEntity(customer),
		zap.Uint64("customer_id", customerID))
}

func (h *ProfileHandler) UpdateMyProfile(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.UpdateMyProfile")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	var req dto.UpdateProfileRequest
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

	customer, err := h.profileService.Update(serviceCtx, customerID, req)
	if err != nil {
		if errors.Is(err, common.ErrCustomerNotFound) {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "customer_not_found", "Customer not found")
		}
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to update profile")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CustomerFromEntity(customer),
		zap.Uint64("customer_id", customerID))
}

// SubmitKYC takes a multipart form with the national_id and selfie images
// and an optional payslip PDF.
func (h *ProfileHandler) SubmitKYC(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.SubmitKYC")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	files := map[domain.DocumentType]*multipart.FileHeader{}
	for field, docType := range map[string]domain.DocumentType{
		"national_id": domain.DocumentNationalID,
		"selfie":      domain.DocumentSelfie,
	} {
		file, err := c.FormFile(field)
		if err != nil {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusBadRequest, "missing_file", fmt.Sprintf("%s image is required", field))
		}
		files[docType] = file
	}

	var payslip []byte
	if file, err := c.FormFile("payslip"); err == nil {
		if !isPDF(file) {
			return h.obs.RecordError(ctx, span, c, start, errors.New("payslip is not a pdf"),
				fiber.StatusBadRequest, "invalid_payslip", "Payslip must be a PDF")
		}
		if payslip, err = readFile(file); err != nil {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusBadRequest, "invalid_payslip", "Payslip could not be read")
		}
		files[domain.DocumentPayslip] = file
	}

	for docType, file := range files {
		if file.Size > maxDocumentSize {
			return h.obs.RecordError(ctx, span, c, start,
				fmt.Errorf("%s is %d bytes, limit is %d", docType, file.Size, maxDocumentSize),
				fiber.StatusBadRequest, "file_too_large", fmt.Sprintf("%s must be 5MB or smaller", docType))
		}
	}

	span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("kyc.files", len(files)),
	)

	// Verified and unknown customers are refused before anything is uploaded.
	checkCtx, cancelCheck := context.WithTimeout(ctx, handler.ServiceTimeout)
	current, err := h.profileService.GetKYCStatus(checkCtx, customerID)
	cancelCheck()
	if err == nil && current.KYCStatus == domain.KYCVerified {
		err = common.ErrKYCAlreadyVerified
	}
	if err != nil {
		return h.kycError(ctx, span, c, start, err)
	}

	uploadCtx, cancelUpload := context.WithTimeout(ctx, 3*handler.ServiceTimeout)
	defer cancelUpload()

	var wg sync.WaitGroup
	results := make(chan uploadResult, len(files))

	for docType, file := range files {
		wg.Add(1)
		go func(docType domain.DocumentType, file *multipart.FileHeader) {
			defer wg.Done()
			url, err := h.cloudinaryService.UploadImage(uploadCtx, file, h.folder)
			results <- uploadResult{docType: docType, url: url, err: err}
		}(docType, file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		docs         []domain.KYCDocument
		uploadErrors []string
	)
	for result := range results {
		if result.err != nil {
			uploadErrors = append(uploadErrors, fmt.Sprintf("%s upload failed: %v", result.docType, result.err))
			continue
		}
		docs = append(docs, domain.KYCDocument{Type: result.docType, URL: result.url})
	}

	if len(uploadErrors) > 0 {
		return h.obs.RecordError(ctx, span, c, start, errors.New(strings.Join(uploadErrors, "; ")),
			fiber.StatusBadGateway, "upload_failed", "Failed to upload KYC documents",
			zap.Strings("upload_errors", uploadErrors))
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	customer, err := h.profileService.SubmitKYC(serviceCtx, customerID, docs, payslip)
	if err != nil {
		return h.kycError(ctx, span, c, start, err)
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusAccepted, dto.KYCStatusFromEntity(customer),
		zap.Uint64("customer_id", customerID),
		zap.Int("documents", len(docs)),
	)
}

func (h *ProfileHandler) kycError(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error) error {
	switch {
	case errors.Is(err, common.ErrKYCIncomplete):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "kyc_incomplete", "National ID and selfie are required")
	case errors.Is(err, common.ErrKYCAlreadyVerified):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusConflict, "kyc_already_verified", "KYC is already verified")
	case errors.Is(err, common.ErrCustomerNotFound):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusNotFound, "customer_not_found", "Customer not found")
	default:
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to submit KYC")
	}
}

func (h *ProfileHandler) GetKYCStatus(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetKYCStatus")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	customer, err := h.profileService.GetKYCStatus(serviceCtx, customerID)
	if err != nil {
		if errors.Is(err, common.ErrCustomerNotFound) {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "customer_not_found", "Customer not found")
		}
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to retrieve KYC status")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.KYCStatusFromEntity(customer),
		zap.String("kyc_status", string(customer.KYCStatus)))
}

func isPDF(file *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return true
	}
	return file.Header.Get("Content-Type") == "application/pdf"
}

func readFile(file *multipart.FileHeader) ([]byte, error) {

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, maxDocumentSize))
}
