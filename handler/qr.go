package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ClipsonBusiness/tracking-system-sub001/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// GenerateQR handles GET /qr/{slug} — renders a QR code pointing at the
// tracking URL so printed material funnels through attribution too.
// @Summary QR code for a tracking link
// @Tags Links
// @Produce png
// @Param slug path string true "Link slug"
// @Param size query int false "Image size in pixels" default(256)
// @Success 200 {file} png
// @Failure 404 {object} ErrorResponse "Link not found"
// @Router /qr/{slug} [get]
func (h *LinkHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	slug := mux.Vars(r)["slug"]

	if _, err := h.links.BySlug(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to verify link")
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size"), "")
			return
		}
		size = parsed
	}

	trackingURL := fmt.Sprintf("%s/%s", h.baseURL, slug)
	png, err := qrcode.Encode(trackingURL, qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to encode QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
