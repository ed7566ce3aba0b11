package handler

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes attaches the full HTTP surface to the router. The catch-all
// redirect route must stay last so it cannot shadow the API paths.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// System routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", h.CacheMetrics).Methods("GET")

	// URL management routes
	r.HandleFunc("/api/url/shorten", h.ShortenURL).Methods("POST")
	r.HandleFunc("/api/url/bulk-shorten", h.BulkShortenURLs).Methods("POST")
	r.HandleFunc("/api/url/info/{shortCode}", h.GetLinkInfo).Methods("GET")
	r.HandleFunc("/api/url/update/{shortCode}", h.UpdateLink).Methods("PUT")
	r.HandleFunc("/api/url/delete/{shortCode}", h.DeleteLink).Methods("DELETE")
	r.HandleFunc("/api/url/qr/{shortCode}", h.GenerateQRCode).Methods("GET")

	// Analytics routes
	r.HandleFunc("/api/analytics/dashboard", h.GetDashboard).Methods("GET")
	r.HandleFunc("/api/analytics/top-links", h.GetTopLinks).Methods("GET")
	r.HandleFunc("/api/analytics/recent-clicks", h.GetRecentClicks).Methods("GET")
	r.HandleFunc("/api/analytics/link/{shortCode}", h.GetLinkAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/link/{shortCode}/detailed", h.GetDetailedAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/geographic/{shortCode}", h.GetGeographicAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/devices/{shortCode}", h.GetDeviceAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/browsers/{shortCode}", h.GetBrowserAnalytics).Methods("GET")
	r.HandleFunc("/api/analytics/referrers/{shortCode}", h.GetReferrerAnalytics).Methods("GET")

	// Admin routes. Toggle accepts PUT and PATCH; export lives at /export/csv
	// with /export kept as an alias.
	r.HandleFunc("/api/admin/links", h.ListLinks).Methods("GET")
	r.HandleFunc("/api/admin/links/{id}", h.AdminDeleteLink).Methods("DELETE")
	r.HandleFunc("/api/admin/links/{id}/toggle", h.ToggleLinkStatus).Methods("PUT", "PATCH")
	r.HandleFunc("/api/admin/stats", h.GetSystemStats).Methods("GET")
	r.HandleFunc("/api/admin/export/csv", h.ExportLinks).Methods("GET")
	r.HandleFunc("/api/admin/export", h.ExportLinks).Methods("GET")
	r.HandleFunc("/api/admin/cleanup-expired", h.CleanupExpired).Methods("POST")
	r.HandleFunc("/api/admin/reconcile/{shortCode}", h.ReconcileClickCount).Methods("POST")

	// Redirect route (must be last to avoid conflicts)
	r.HandleFunc("/{shortCode}", h.RedirectURL).Methods("GET")
}
