package gallery_api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ImageLister interface {
	ListImages(ctx context.Context, artist string) models.ImageFeed
}

type Handler struct {
	Images ImageLister
	Logger *logger.Logger
}

func NewHandler(images ImageLister, log *logger.Logger) *Handler {
	return &Handler{Images: images, Logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/gallery/images", h.ListImages)
}

// ListImages always answers 200. Artists whose listing failed are reported in
// the feed's failures and the feed is marked partial.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	// dot-prefixed names are never artists, same as in the top-level listing
	if strings.Contains(artist, "/") || strings.HasPrefix(artist, ".") {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid artist", "artist must not contain '/' or start with '.'"))
		return
	}

	feed := h.Images.ListImages(r.Context(), artist)

	message := fmt.Sprintf("%d images", len(feed.Images))
	if feed.Partial {
		message = fmt.Sprintf("%d images, %d artists unavailable", len(feed.Images), len(feed.Failures))
		h.Logger.Warn("GALLERY", message)
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, feed))
}
