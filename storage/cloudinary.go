// Package storage keeps an off-host copy of generated certificates.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const certificateFolder = "certificates"

type CloudinaryUploader struct {
	cld *cld.Cloudinary
}

// NewCloudinaryUploader returns nil, nil when no CLOUDINARY_URL is configured.
func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	if cloudinaryURL == "" {
		return nil, nil
	}
	cloud, err := cld.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryUploader{cld: cloud}, nil
}

// Upload stores the file at path as a raw asset named after the file and
// returns its HTTPS URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, path string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	res, err := u.cld.Upload.Upload(
		ctx,
		path,
		uploader.UploadParams{
			Folder:       certificateFolder,
			PublicID:     name,
			ResourceType: "raw",
		},
	)
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
