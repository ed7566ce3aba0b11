package handler

import (
	"net/http"

	"github.com/HTwebsitesolution/quicklink-pro/resolver"
	"github.com/HTwebsitesolution/quicklink-pro/useragent"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// RedirectURL handles GET /{shortCode}
func (h *Handler) RedirectURL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	outcome := h.resolver.Resolve(ctx, shortCode, resolver.ClickContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		Country:   useragent.Country(r),
	})

	switch outcome.Status {
	case resolver.StatusRedirect:
		log.Info().
			Str("short_code", shortCode).
			Str("target", outcome.Target).
			Msg("Redirecting")
		http.Redirect(w, r, outcome.Target, http.StatusMovedPermanently)

	case resolver.StatusExpired:
		SendJSONError(w, http.StatusGone, errLinkExpired,
			"This link expired on "+outcome.ExpiredAt.Format("2006-01-02 15:04:05 MST"))

	case resolver.StatusNotFound:
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")

	default:
		SendJSONError(w, http.StatusInternalServerError, outcome.Err, "Failed to resolve link")
	}
}
