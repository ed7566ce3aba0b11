package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"

	"github.com/gorilla/mux"
)

func seedClicks(t *testing.T, h *Handler, shortCode string, count int) {
	t.Helper()
	now := time.Now()
	countries := []string{"DE", "US", "DE"}
	for i := 0; i < count; i++ {
		err := h.clicks.Append(context.Background(), model.ClickEvent{
			LinkID:    "id-" + shortCode,
			ShortCode: shortCode,
			IPAddress: "203.0.113.7",
			Referrer:  "direct",
			Country:   countries[i%len(countries)],
			Device:    "Desktop",
			Browser:   "Chrome",
			OS:        "Windows",
			ClickedAt: now.Add(-time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func getWithVars(t *testing.T, handlerFunc http.HandlerFunc, target string, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	w := httptest.NewRecorder()
	handlerFunc(w, req)
	return w
}

func TestGetDashboard(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "abc123", OriginalURL: "https://example.com", ClickCount: 3, IsActive: true})
	seedClicks(t, h, "abc123", 3)

	w := getWithVars(t, h.GetDashboard, "/api/analytics/dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	var dashboard model.Dashboard
	if err := json.Unmarshal(decodeSuccess(t, w), &dashboard); err != nil {
		t.Fatalf("Failed to unmarshal dashboard: %v", err)
	}

	if dashboard.Overview.TotalLinks != 1 {
		t.Errorf("TotalLinks = %d, want 1", dashboard.Overview.TotalLinks)
	}
	if dashboard.Overview.TotalClicks != 3 {
		t.Errorf("TotalClicks = %d, want 3", dashboard.Overview.TotalClicks)
	}
	if len(dashboard.TopLinks) != 1 {
		t.Errorf("TopLinks has %d entries, want 1", len(dashboard.TopLinks))
	}
	if len(dashboard.RecentClicks) != 3 {
		t.Errorf("RecentClicks has %d entries, want 3", len(dashboard.RecentClicks))
	}
	// Dashboard recent clicks never expose IP addresses.
	for _, click := range dashboard.RecentClicks {
		if click.IPAddress != "" {
			t.Errorf("RecentClicks entry exposes IP %q", click.IPAddress)
		}
	}
}

func TestGetLinkAnalytics(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "abc123", OriginalURL: "https://example.com", IsActive: true})
	seedClicks(t, h, "abc123", 3)

	w := getWithVars(t, h.GetLinkAnalytics, "/api/analytics/link/abc123?days=7",
		map[string]string{"shortCode": "abc123"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	var result model.LinkAnalytics
	if err := json.Unmarshal(decodeSuccess(t, w), &result); err != nil {
		t.Fatalf("Failed to unmarshal analytics: %v", err)
	}

	if result.ShortCode != "abc123" {
		t.Errorf("ShortCode = %q, want abc123", result.ShortCode)
	}
	if result.Stats.TotalClicks != 3 {
		t.Errorf("TotalClicks = %d, want 3", result.Stats.TotalClicks)
	}
	if len(result.Daily) == 0 {
		t.Error("Daily series is empty")
	}
}

func TestGetLinkAnalytics_NotFound(t *testing.T) {
	h := newTestHandler(t)

	w := getWithVars(t, h.GetLinkAnalytics, "/api/analytics/link/missing",
		map[string]string{"shortCode": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetDetailedAnalytics(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "abc123", OriginalURL: "https://example.com", IsActive: true})
	seedClicks(t, h, "abc123", 3)

	w := getWithVars(t, h.GetDetailedAnalytics, "/api/analytics/link/abc123/detailed",
		map[string]string{"shortCode": "abc123"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	var result model.DetailedAnalytics
	if err := json.Unmarshal(decodeSuccess(t, w), &result); err != nil {
		t.Fatalf("Failed to unmarshal analytics: %v", err)
	}

	if len(result.Geographic) != 2 {
		t.Errorf("Geographic has %d entries, want 2", len(result.Geographic))
	}
	if result.Geographic[0].Label != "DE" || result.Geographic[0].Clicks != 2 {
		t.Errorf("Geographic[0] = %+v, want DE with 2 clicks", result.Geographic[0])
	}
	if len(result.Devices) != 1 || result.Devices[0].Label != "Desktop" {
		t.Errorf("Devices = %+v, want single Desktop bucket", result.Devices)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "abc123", OriginalURL: "https://example.com", IsActive: true})
	seedClicks(t, h, "abc123", 3)

	endpoints := map[string]http.HandlerFunc{
		"geographic": h.GetGeographicAnalytics,
		"devices":    h.GetDeviceAnalytics,
		"browsers":   h.GetBrowserAnalytics,
		"referrers":  h.GetReferrerAnalytics,
	}

	for name, handlerFunc := range endpoints {
		t.Run(name, func(t *testing.T) {
			w := getWithVars(t, handlerFunc, "/api/analytics/"+name+"/abc123",
				map[string]string{"shortCode": "abc123"})
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
			}

			var result []model.CategoryCount
			if err := json.Unmarshal(decodeSuccess(t, w), &result); err != nil {
				t.Fatalf("Failed to unmarshal breakdown: %v", err)
			}
			if len(result) == 0 {
				t.Error("Breakdown is empty")
			}

			// Unknown links 404 on every breakdown.
			w = getWithVars(t, handlerFunc, "/api/analytics/"+name+"/missing",
				map[string]string{"shortCode": "missing"})
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404 for unknown link, got %d", w.Code)
			}
		})
	}
}

func TestGetTopLinks(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "low111", OriginalURL: "https://example.com/a", ClickCount: 1, IsActive: true})
	seedLink(t, h, model.Link{ShortCode: "high22", OriginalURL: "https://example.com/b", ClickCount: 9, IsActive: true})

	w := getWithVars(t, h.GetTopLinks, "/api/analytics/top-links?limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	var top []model.TopLink
	if err := json.Unmarshal(decodeSuccess(t, w), &top); err != nil {
		t.Fatalf("Failed to unmarshal top links: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("TopLinks has %d entries, want 1", len(top))
	}
	if top[0].ShortCode != "high22" {
		t.Errorf("TopLinks[0] = %s, want high22", top[0].ShortCode)
	}
}

func TestGetRecentClicks(t *testing.T) {
	h := newTestHandler(t)
	seedLink(t, h, model.Link{ShortCode: "abc123", OriginalURL: "https://example.com", IsActive: true})
	seedClicks(t, h, "abc123", 5)

	w := getWithVars(t, h.GetRecentClicks, "/api/analytics/recent-clicks?limit=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	var recent []model.RecentClick
	if err := json.Unmarshal(decodeSuccess(t, w), &recent); err != nil {
		t.Fatalf("Failed to unmarshal recent clicks: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("RecentClicks has %d entries, want 3", len(recent))
	}
	// Admin view includes the masked IP.
	if recent[0].IPAddress != "203.0.113.***" {
		t.Errorf("IPAddress = %q, want masked form", recent[0].IPAddress)
	}
}
