// Package images wraps the media host. Product, catalog, and slider images
// are stored on Cloudinary and referenced by public id.
package images

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

var cld *cloudinary.Cloudinary

var ErrNotConfigured = errors.New("images: media host not configured")

// Init connects to the media host using a CLOUDINARY_URL style connection
// string. Skipping Init leaves image endpoints returning ErrNotConfigured.
func Init(url string) error {
	c, err := cloudinary.NewFromURL(url)
	if err != nil {
		return err
	}
	cld = c
	return nil
}

type Upload struct {
	SecureURL string
	PublicID  string
}

// UploadFile stores an image. An empty publicID generates a fresh one; a
// non-empty publicID overwrites the existing asset and invalidates caches.
func UploadFile(ctx context.Context, file io.Reader, publicID string) (*Upload, error) {
	if cld == nil {
		return nil, ErrNotConfigured
	}

	params := uploader.UploadParams{}
	if publicID != "" {
		params.PublicID = publicID
		params.Invalidate = api.Bool(true)
	} else {
		params.PublicID = uuid.NewString()
	}

	res, err := cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, err
	}
	if res.Error.Message != "" {
		return nil, errors.New(res.Error.Message)
	}

	return &Upload{SecureURL: res.SecureURL, PublicID: res.PublicID}, nil
}

// DeleteFile removes an asset by public id.
func DeleteFile(ctx context.Context, publicID string) error {
	if cld == nil {
		return ErrNotConfigured
	}

	_, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	return err
}
