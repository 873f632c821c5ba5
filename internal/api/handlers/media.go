package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/utils"
)

const presignTTL = 15 * time.Minute

// presigner is implemented by blob stores that can hand out direct download URLs.
type presigner interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

type MediaHandler struct {
	blobs repositories.BlobStore
}

func NewMediaHandler(blobs repositories.BlobStore) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// ServePostMedia godoc
// @Summary Fetch a post thumbnail
// @Tags Media
// @Produce image/png,image/jpeg,image/webp,image/gif
// @Param key path string true "Blob key"
// @Success 200
// @Success 307
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /media/posts/{key} [get]
func (h *MediaHandler) ServePostMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !repositories.ValidBlobKey(key) {
		utils.WriteError(w, r, models.NewValidationError("Invalid filename"))
		return
	}

	if p, ok := h.blobs.(presigner); ok {
		url, err := p.PresignGet(r.Context(), key, presignTTL)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	body, contentType, err := h.blobs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.WriteError(w, r, models.NewNotFoundError("File", key))
			return
		}
		utils.WriteError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
