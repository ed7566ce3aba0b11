package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/analytics"
	"github.com/HTwebsitesolution/quicklink-pro/cache"
	"github.com/HTwebsitesolution/quicklink-pro/config"
	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/resolver"
	"github.com/HTwebsitesolution/quicklink-pro/shortcode"
	"github.com/HTwebsitesolution/quicklink-pro/store"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Handler wires the HTTP surface to the stores, the resolver and the
// aggregator.
type Handler struct {
	links      *store.LinkStore
	clicks     *store.ClickStore
	cache      *cache.Cache
	resolver   *resolver.Resolver
	aggregator *analytics.Aggregator
	generator  *shortcode.Generator
	config     config.Config
	baseURL    string
}

// New creates the handler with all its collaborators.
func New(rdb *redis.Client, linkCache *cache.Cache, cfg config.Config) *Handler {
	// Use configured base_url if provided, otherwise construct from scheme, IP, and port
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}

	links := store.NewLinkStore(rdb)
	clicks := store.NewClickStore(rdb)

	return &Handler{
		links:      links,
		clicks:     clicks,
		cache:      linkCache,
		resolver:   resolver.New(links, clicks, linkCache),
		aggregator: analytics.NewAggregator(links, clicks),
		generator: shortcode.NewGenerator(links,
			cfg.Shortener.CodeLength,
			cfg.Shortener.MaxRetries,
			cfg.Shortener.MinAliasLength,
			cfg.Shortener.MaxAliasLength),
		config:  cfg,
		baseURL: baseURL,
	}
}

// opContext derives a request context bounded by the Redis operation timeout.
func (h *Handler) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(h.config.Redis.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

// clientIP extracts the caller's address, preferring the first
// X-Forwarded-For hop when the service runs behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LinkResponse is the public view of a link record.
type LinkResponse struct {
	ID            string     `json:"id"`
	OriginalURL   string     `json:"originalUrl"`
	ShortCode     string     `json:"shortCode"`
	ShortURL      string     `json:"shortUrl"`
	Description   string     `json:"description,omitempty"`
	ClickCount    int64      `json:"clickCount"`
	ExpiresAt     *time.Time `json:"expiration,omitempty"`
	IsActive      bool       `json:"isActive"`
	LastClickedAt *time.Time `json:"lastClicked,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	QRCodeURL     string     `json:"qrCodeUrl,omitempty"`
}

func (h *Handler) linkResponse(link *model.Link) LinkResponse {
	resp := LinkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		ShortURL:    link.ShortURL(h.baseURL),
		Description: link.Description,
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
		QRCodeURL:   fmt.Sprintf("%s/api/url/qr/%s", h.baseURL, link.ShortCode),
	}
	if !link.ExpiresAt.IsZero() {
		expiresAt := link.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	if !link.LastClickedAt.IsZero() {
		lastClicked := link.LastClickedAt
		resp.LastClickedAt = &lastClicked
	}
	return resp
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.links.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unhealthy",
			"redis":  "unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"redis":  "connected",
	})
}

// CacheMetrics handles GET /cache/metrics
func (h *Handler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errCacheDisabled, "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}
