package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// uploadAPI is the part of the Cloudinary upload API in use.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Cloudinary forwards uploads to the hosted image service. Ref is the
// secure delivery URL, Key the public id.
type Cloudinary struct {
	api    uploadAPI
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{api: &cld.Upload, folder: folder}, nil
}

func (c *Cloudinary) Store(ctx context.Context, r io.Reader, filenameHint string) (Object, error) {
	base := SecureFilename(filenameHint)
	params := uploader.UploadParams{
		Folder:   c.folder,
		PublicID: strings.TrimSuffix(base, filepath.Ext(base)) + "_" + shortID(),
	}
	res, err := c.api.Upload(ctx, r, params)
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res == nil {
		return Object{}, errors.New("cloudinary upload: empty response")
	}
	if res.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return Object{}, errors.New("cloudinary upload: response without secure_url")
	}
	return Object{Ref: res.SecureURL, Key: res.PublicID}, nil
}

func (c *Cloudinary) Remove(ctx context.Context, key string) error {
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
