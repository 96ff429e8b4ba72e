package cloudinarysrv

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type cloudinaryService struct {
	client *cloudinary.Cloudinary
	rec    *telemetry.Recorder
}

// UploadImage implements service.CloudinaryService. PDFs are accepted too,
// the resource type is detected by Cloudinary.
func (c *cloudinaryService) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	ctx, op := c.rec.Start(ctx, "UploadImage", "upload",
		attribute.String("upload.folder", folder),
		attribute.Int64("upload.size", file.Size),
	)
	defer op.End()

	src, err := file.Open()
	if err != nil {
		return "", op.Fail(fmt.Errorf("failed to open file: %w", err), "open_failed", "Failed to open upload")
	}
	defer src.Close()

	result, err := c.client.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:       folder,
		PublicID:     generatePublicID(file.Filename),
		Overwrite:    api.Bool(true),
		ResourceType: "auto",
	})
	if err != nil {
		return "", op.Fail(fmt.Errorf("failed to upload to Cloudinary: %w", err), "upload_failed", "Cloudinary upload failed",
			zap.String("filename", file.Filename))
	}
	if result.Error.Message != "" {
		return "", op.Fail(fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message), "upload_rejected", "Cloudinary rejected upload",
			zap.String("filename", file.Filename))
	}

	op.Succeed("File uploaded", zap.String("public_id", result.PublicID))

	return result.SecureURL, nil
}

func NewCloudinaryService(
	client *cloudinary.Cloudinary,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.CloudinaryService {
	return &cloudinaryService{
		client: client,
		rec:    telemetry.NewRecorder(telemetry.ServiceLayer, "cloudinary", meter, tracer, log),
	}
}

// generatePublicID keeps the file stem and appends the upload time.
func generatePublicID(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("%s_%d", stem, time.Now().UnixNano())
}
