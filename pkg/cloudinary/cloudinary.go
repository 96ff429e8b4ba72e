package cloudinary

import (
	"fmt"

	"github.com/fazamuttaqien/lendora/config"

	"github.com/cloudinary/cloudinary-go/v2"
)

// InitCloudinary builds the upload client from the configured credentials.
func InitCloudinary(cfg *config.Config) (*cloudinary.Cloudinary, error) {
	if cfg.CLOUDINARY_CLOUD == "" || cfg.CLOUDINARY_API_KEY == "" || cfg.CLOUDINARY_API_SECRET == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CLOUDINARY_CLOUD, cfg.CLOUDINARY_API_KEY, cfg.CLOUDINARY_API_SECRET)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return cld, nil
}
