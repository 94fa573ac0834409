package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/picquiz-backend/internal/adapter/storage"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

type objectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, storage.Info, error)
}

// ImageHandler streams dataset pictures, error images and the placeholder
// from object storage.
type ImageHandler struct {
	store objectOpener
	log   *slog.Logger
}

// NewImageHandler creates an ImageHandler.
func NewImageHandler(store objectOpener, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{store: store, log: logger.With("handler", "images")}
}

// Get handles GET /images/{key...}.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, info, err := h.store.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
			return
		}
		handleError(h.log, w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	// Keys are content-addressed or immutable dataset files.
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.log.WarnContext(r.Context(), "stream image",
			slog.String("key", r.PathValue("key")),
			slog.String("error", err.Error()),
		)
	}
}
