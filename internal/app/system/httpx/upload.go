package httpx

import (
	"errors"
	"net/http"

	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"go.uber.org/zap"
)

// LimitUpload caps the request body at max plus room for the multipart
// envelope.
func LimitUpload(w http.ResponseWriter, r *http.Request, max int64) {
	r.Body = http.MaxBytesReader(w, r.Body, max+64<<10)
}

// UploadError maps an uploads error to a response.
func UploadError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, uploads.ErrTooLarge), errors.As(err, &tooBig):
		Error(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, uploads.ErrType):
		BadRequest(w, "File type not allowed")
	case errors.Is(err, uploads.ErrMissingFile):
		BadRequest(w, "No file provided")
	default:
		ServerError(w, r, log, "upload failed", err)
	}
}
