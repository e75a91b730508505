package upload

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	// MaxImageBytes is the largest avatar payload accepted.
	MaxImageBytes = 1024 * 1024
)

const (
	TextCodeImageTooLarge   = "upload_image_too_large"
	TextCodeBadImageFormat  = "upload_bad_image_format"
	TextCodeNoImageProvided = "upload_no_image"
)

// ErrImageTooLarge is returned for payloads over MaxImageBytes.
var ErrImageTooLarge = errors.New("size too large", errors.CategoryValidation).
	WithTextCode(TextCodeImageTooLarge).
	WithCode(errors.CodeBadRequest)

// ErrBadImageFormat is returned for anything that is not a JPEG or PNG.
var ErrBadImageFormat = errors.New("file format is incorrect", errors.CategoryValidation).
	WithTextCode(TextCodeBadImageFormat).
	WithCode(errors.CodeBadRequest)

// ErrNoImageProvided is returned when the request carries no file.
var ErrNoImageProvided = errors.New("no files were uploaded", errors.CategoryValidation).
	WithTextCode(TextCodeNoImageProvided).
	WithCode(errors.CodeBadRequest)

// Params selects where an upload lands and how it is transformed.
type Params struct {
	Folder string
	Width  int
	Height int
	// Crop is the provider crop mode, e.g. "fill".
	Crop string
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, params Params) (string, error)
}

// ValidateImage enforces the size cap and sniffs the payload for an
// accepted format.
func ValidateImage(data []byte) error {
	if len(data) == 0 {
		return ErrNoImageProvided
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
		return nil
	default:
		return ErrBadImageFormat
	}
}
