package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/images"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

// multipartOverhead is allowed on top of the image limit for part headers
// and boundaries.
const multipartOverhead = 64 << 10

// HandleUploadImage handles POST /v1/images (multipart, field "file").
// The response URL is what clients store in imageUrl.
func (h *Handlers) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploader.MaxBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeValidationError(w, r, &model.ValidationError{Fields: []string{"file"}, Message: "file is required"})
			return
		}
		if err != nil {
			h.writeUploadError(w, r, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		up, err := h.uploader.Upload(r.Context(), part)
		_ = part.Close()
		if err != nil {
			h.writeUploadError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "image uploaded",
			"key", up.Key,
			"content_type", up.ContentType,
			"size", up.Size,
		)
		writeJSON(w, r, http.StatusOK, model.ImageUploadResponse{
			URL:         up.URL,
			ContentType: up.ContentType,
			Size:        up.Size,
		})
		return
	}
}

func (h *Handlers) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, images.ErrTooLarge), errors.As(err, &mbe):
		writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodePayloadTooLarge, "image exceeds the size limit")
	case errors.Is(err, images.ErrUnsupportedType):
		writeError(w, r, http.StatusUnsupportedMediaType, model.ErrCodeUnsupportedType, "only JPEG, PNG, GIF, WebP and SVG images are accepted")
	case errors.Is(err, images.ErrEmpty):
		writeValidationError(w, r, &model.ValidationError{Fields: []string{"file"}, Message: "file is empty"})
	default:
		h.writeInternalError(w, r, "image upload failed", err)
	}
}
