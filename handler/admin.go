package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	adminDefaultPageSize = 20
	adminMaxPageSize     = 100
)

// AdminLinkPage is the paginated payload of GET /api/admin/links.
type AdminLinkPage struct {
	Links      []LinkResponse `json:"links"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

// ListLinks handles GET /api/admin/links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	links, err := h.links.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list links")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list links")
		return
	}

	links = store.Search(links, r.URL.Query().Get("search"))
	sortLinks(links, r.URL.Query().Get("sortBy"), r.URL.Query().Get("order"))

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", adminDefaultPageSize)
	if limit > adminMaxPageSize {
		limit = adminMaxPageSize
	}

	total := len(links)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pageLinks := make([]LinkResponse, 0, end-start)
	for i := start; i < end; i++ {
		pageLinks = append(pageLinks, h.linkResponse(&links[i]))
	}

	SendJSONSuccess(w, http.StatusOK, AdminLinkPage{
		Links:      pageLinks,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

// sortLinks orders the listing by the requested field, newest-first by
// default.
func sortLinks(links []model.Link, sortBy, order string) {
	asc := order == "asc"

	var less func(a, b *model.Link) bool
	switch sortBy {
	case "clickCount":
		less = func(a, b *model.Link) bool { return a.ClickCount < b.ClickCount }
	case "lastClicked":
		less = func(a, b *model.Link) bool { return a.LastClickedAt.Before(b.LastClickedAt) }
	default:
		less = func(a, b *model.Link) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.Slice(links, func(i, j int) bool {
		if asc {
			return less(&links[i], &links[j])
		}
		return less(&links[j], &links[i])
	})
}

// GetSystemStats handles GET /api/admin/stats
func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	stats, err := h.aggregator.SystemStats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build system stats")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to build system stats")
		return
	}

	SendJSONSuccess(w, http.StatusOK, stats)
}

// AdminDeleteLink handles DELETE /api/admin/links/{id}
func (h *Handler) AdminDeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	link, err := h.links.GetByID(ctx, id)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to fetch link by ID")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	if err := h.links.Delete(ctx, link); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete link")
		return
	}
	if _, err := h.clicks.DeleteForLink(ctx, link.ShortCode); err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to cascade click log deletion")
	}
	h.cache.Delete(link.ShortCode)

	log.Info().Str("id", id).Str("short_code", link.ShortCode).Msg("Link deleted by admin")

	SendJSONMessage(w, http.StatusOK, nil, "Link deleted successfully")
}

// ToggleLinkStatus handles PATCH /api/admin/links/{id}/toggle
func (h *Handler) ToggleLinkStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	link, err := h.links.GetByID(ctx, id)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to fetch link by ID")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	link.IsActive = !link.IsActive
	if err := h.links.Save(ctx, link); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to save link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update link")
		return
	}
	h.cache.Delete(link.ShortCode)

	state := "deactivated"
	if link.IsActive {
		state = "activated"
	}
	log.Info().Str("short_code", link.ShortCode).Bool("is_active", link.IsActive).Msg("Link status toggled")

	SendJSONMessage(w, http.StatusOK, h.linkResponse(link), fmt.Sprintf("Link %s successfully", state))
}

// ExportLinks handles GET /api/admin/export, streaming all links as CSV.
func (h *Handler) ExportLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	links, err := h.links.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list links for export")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to export links")
		return
	}
	sortLinks(links, "createdAt", "desc")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=links-export-%s.csv", time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(w)
	writer.Write([]string{"shortCode", "originalUrl", "description", "clickCount", "isActive", "createdAt", "expiration", "lastClicked"})

	for i := range links {
		link := &links[i]
		expiration := ""
		if !link.ExpiresAt.IsZero() {
			expiration = link.ExpiresAt.Format(time.RFC3339)
		}
		lastClicked := ""
		if !link.LastClickedAt.IsZero() {
			lastClicked = link.LastClickedAt.Format(time.RFC3339)
		}
		writer.Write([]string{
			link.ShortCode,
			link.OriginalURL,
			link.Description,
			strconv.FormatInt(link.ClickCount, 10),
			strconv.FormatBool(link.IsActive),
			link.CreatedAt.Format(time.RFC3339),
			expiration,
			lastClicked,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Error().Err(err).Msg("Failed to write CSV export")
	}
}

// CleanupResult summarizes one expired-link cleanup run.
type CleanupResult struct {
	Removed       int `json:"removed"`
	ClicksDropped int `json:"clicksDropped"`
}

// CleanupExpired handles POST /api/admin/cleanup-expired, removing every
// expired link together with its click log.
func (h *Handler) CleanupExpired(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	links, err := h.links.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list links for cleanup")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to clean up expired links")
		return
	}

	var result CleanupResult
	for i := range links {
		link := &links[i]
		if !link.IsExpired() {
			continue
		}

		if err := h.links.Delete(ctx, link); err != nil {
			log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to delete expired link")
			continue
		}
		dropped, err := h.clicks.DeleteForLink(ctx, link.ShortCode)
		if err != nil {
			log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to cascade click log deletion")
		}
		h.cache.Delete(link.ShortCode)

		result.Removed++
		result.ClicksDropped += int(dropped)
	}

	log.Info().Int("removed", result.Removed).Msg("Expired link cleanup finished")

	SendJSONMessage(w, http.StatusOK, result,
		fmt.Sprintf("Removed %d expired links", result.Removed))
}

// ReconcileClickCount handles POST /api/admin/reconcile/{shortCode}, pinning
// a link's cached counter back to the click log count.
func (h *Handler) ReconcileClickCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	if _, err := h.links.Get(ctx, shortCode); err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	link, err := h.resolver.Reconcile(ctx, shortCode)
	if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to reconcile click counter")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to reconcile click counter")
		return
	}

	log.Info().Str("short_code", shortCode).Int64("click_count", link.ClickCount).Msg("Click counter reconciled")

	SendJSONSuccess(w, http.StatusOK, h.linkResponse(link))
}
