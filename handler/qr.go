package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/HTwebsitesolution/quicklink-pro/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrMinSize     = 128
	qrMaxSize     = 1024
	qrDefaultSize = 256
)

var errBadQRSize = fmt.Errorf("size must be between %d and %d", qrMinSize, qrMaxSize)

// GenerateQRCode handles GET /api/url/qr/{shortCode}
func (h *Handler) GenerateQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	link, err := h.links.Get(ctx, shortCode)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	if link.IsExpired() {
		SendJSONError(w, http.StatusGone, errLinkExpired, "")
		return
	}

	size := qrDefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < qrMinSize || size > qrMaxSize {
			SendJSONError(w, http.StatusBadRequest, errBadQRSize, "")
			return
		}
	}

	level := qrcode.Medium
	switch r.URL.Query().Get("level") {
	case "", "medium":
	case "low":
		level = qrcode.Low
	case "high":
		level = qrcode.High
	case "highest":
		level = qrcode.Highest
	default:
		SendJSONError(w, http.StatusBadRequest, errors.New("level must be one of low, medium, high, highest"), "")
		return
	}

	png, err := qrcode.Encode(link.ShortURL(h.baseURL), level, size)
	if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	if !link.QRGenerated {
		link.QRGenerated = true
		if err := h.links.Save(ctx, link); err != nil {
			log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to flag QR generation")
		} else {
			h.cache.Delete(shortCode)
		}
	}

	log.Info().Str("short_code", shortCode).Int("size", size).Msg("QR code generated")

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
