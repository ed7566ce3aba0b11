package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

// linkForAnalytics resolves the shortCode path variable to a stored link,
// writing the error response itself when the link is missing.
func (h *Handler) linkForAnalytics(w http.ResponseWriter, r *http.Request) (*model.Link, bool) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	link, err := h.links.Get(ctx, shortCode)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return nil, false
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return nil, false
	}
	return link, true
}

// GetDashboard handles GET /api/analytics/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	dashboard, err := h.aggregator.Dashboard(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build dashboard")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to build dashboard")
		return
	}

	SendJSONSuccess(w, http.StatusOK, dashboard)
}

// GetLinkAnalytics handles GET /api/analytics/link/{shortCode}
func (h *Handler) GetLinkAnalytics(w http.ResponseWriter, r *http.Request) {
	link, ok := h.linkForAnalytics(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.opContext(r)
	defer cancel()

	days := queryInt(r, "days", h.config.Analytics.DefaultWindowDays)

	result, err := h.aggregator.LinkAnalytics(ctx, link, days)
	if err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to aggregate link analytics")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, result)
}

// GetDetailedAnalytics handles GET /api/analytics/link/{shortCode}/detailed
func (h *Handler) GetDetailedAnalytics(w http.ResponseWriter, r *http.Request) {
	link, ok := h.linkForAnalytics(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.opContext(r)
	defer cancel()

	result, err := h.aggregator.Detailed(ctx, link.ShortCode, h.config.Analytics.TopLimit)
	if err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to aggregate detailed analytics")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, result)
}

// serveCategory handles one categorical breakdown endpoint (geographic,
// devices, browsers, referrers).
func (h *Handler) serveCategory(w http.ResponseWriter, r *http.Request, name string,
	fold func(ctx context.Context, shortCode string, limit int) ([]model.CategoryCount, error)) {
	link, ok := h.linkForAnalytics(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.opContext(r)
	defer cancel()

	result, err := fold(ctx, link.ShortCode, h.config.Analytics.TopLimit)
	if err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Str("breakdown", name).Msg("Failed to aggregate breakdown")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, result)
}

// GetGeographicAnalytics handles GET /api/analytics/geographic/{shortCode}
func (h *Handler) GetGeographicAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveCategory(w, r, "geographic", h.aggregator.Geographic)
}

// GetDeviceAnalytics handles GET /api/analytics/devices/{shortCode}
func (h *Handler) GetDeviceAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveCategory(w, r, "devices", h.aggregator.Devices)
}

// GetBrowserAnalytics handles GET /api/analytics/browsers/{shortCode}
func (h *Handler) GetBrowserAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveCategory(w, r, "browsers", h.aggregator.Browsers)
}

// GetReferrerAnalytics handles GET /api/analytics/referrers/{shortCode}
func (h *Handler) GetReferrerAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveCategory(w, r, "referrers", h.aggregator.Referrers)
}

// GetTopLinks handles GET /api/analytics/top-links
func (h *Handler) GetTopLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	limit := queryInt(r, "limit", h.config.Analytics.TopLimit)
	period := r.URL.Query().Get("period")

	top, err := h.aggregator.TopLinks(ctx, limit, period)
	if err != nil {
		log.Error().Err(err).Msg("Failed to aggregate top links")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, top)
}

// GetRecentClicks handles GET /api/analytics/recent-clicks
func (h *Handler) GetRecentClicks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	limit := queryInt(r, "limit", h.config.Analytics.RecentClicksLimit)

	recent, err := h.aggregator.RecentClicks(ctx, limit, true)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch recent clicks")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, recent)
}
