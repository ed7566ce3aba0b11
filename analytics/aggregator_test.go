package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.LinkStore, *store.ClickStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	links := store.NewLinkStore(rdb)
	clicks := store.NewClickStore(rdb)
	return NewAggregator(links, clicks), links, clicks
}

func seedLink(t *testing.T, links *store.LinkStore, shortCode string, clickCount int64, createdAt time.Time) {
	t.Helper()
	err := links.Create(context.Background(), model.Link{
		ID:          "id-" + shortCode,
		ShortCode:   shortCode,
		OriginalURL: "https://example.com/" + shortCode,
		ClickCount:  clickCount,
		IsActive:    true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", shortCode, err)
	}
}

func seedClick(t *testing.T, clicks *store.ClickStore, shortCode, ip, country, device, browser, referrer string, clickedAt time.Time) {
	t.Helper()
	err := clicks.Append(context.Background(), model.ClickEvent{
		LinkID:    "id-" + shortCode,
		ShortCode: shortCode,
		IPAddress: ip,
		Referrer:  referrer,
		Country:   country,
		Device:    device,
		Browser:   browser,
		OS:        "Windows",
		ClickedAt: clickedAt,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestDailySeries(t *testing.T) {
	agg, _, clicks := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	dayBefore := now.AddDate(0, 0, -2)
	yesterday := now.AddDate(0, 0, -1)

	// Two clicks the day before yesterday from the same IP, one yesterday,
	// and one far outside the window.
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Desktop", "Chrome", "direct", dayBefore)
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Desktop", "Chrome", "direct", dayBefore.Add(time.Hour))
	seedClick(t, clicks, "abc123", "203.0.113.2", "US", "Mobile", "Safari", "direct", yesterday)
	seedClick(t, clicks, "abc123", "203.0.113.3", "FR", "Desktop", "Firefox", "direct", now.AddDate(0, 0, -60))

	series, err := agg.DailySeries(ctx, "abc123", 30)
	if err != nil {
		t.Fatalf("DailySeries() error = %v", err)
	}

	// Only days with clicks appear, ascending by date.
	if len(series) != 2 {
		t.Fatalf("DailySeries() returned %d buckets, want 2", len(series))
	}
	if series[0].Date != dayBefore.Format("2006-01-02") {
		t.Errorf("series[0].Date = %s, want %s", series[0].Date, dayBefore.Format("2006-01-02"))
	}
	if series[0].Clicks != 2 {
		t.Errorf("series[0].Clicks = %d, want 2", series[0].Clicks)
	}
	if series[0].UniqueClicks != 1 {
		t.Errorf("series[0].UniqueClicks = %d, want 1", series[0].UniqueClicks)
	}
	if series[1].Date != yesterday.Format("2006-01-02") {
		t.Errorf("series[1].Date = %s, want %s", series[1].Date, yesterday.Format("2006-01-02"))
	}
	if series[1].Clicks != 1 {
		t.Errorf("series[1].Clicks = %d, want 1", series[1].Clicks)
	}
}

func TestSummary(t *testing.T) {
	agg, _, clicks := newTestAggregator(t)
	ctx := context.Background()

	first := time.Now().Add(-2 * time.Hour)
	last := time.Now().Add(-time.Minute)
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Desktop", "Chrome", "direct", first)
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Mobile", "Safari", "direct", last)
	seedClick(t, clicks, "abc123", "203.0.113.2", "US", "Desktop", "Chrome", "direct", last.Add(-time.Hour))

	summary, err := agg.Summary(ctx, "abc123")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if summary.TotalClicks != 3 {
		t.Errorf("TotalClicks = %d, want 3", summary.TotalClicks)
	}
	if summary.UniqueClicks != 2 {
		t.Errorf("UniqueClicks = %d, want 2", summary.UniqueClicks)
	}
	if summary.Countries != 2 {
		t.Errorf("Countries = %d, want 2", summary.Countries)
	}
	if summary.Devices != 2 {
		t.Errorf("Devices = %d, want 2", summary.Devices)
	}
	if !summary.FirstClick.Equal(first) {
		t.Errorf("FirstClick = %v, want %v", summary.FirstClick, first)
	}
	if !summary.LastClick.Equal(last) {
		t.Errorf("LastClick = %v, want %v", summary.LastClick, last)
	}
}

func TestFoldCategories(t *testing.T) {
	events := []model.ClickEvent{
		{Country: "DE"},
		{Country: "DE"},
		{Country: "US"},
		{Country: ""},
	}

	result := foldCategories(events, countryOf, "Unknown", 10)
	if len(result) != 3 {
		t.Fatalf("foldCategories() returned %d entries, want 3", len(result))
	}
	if result[0].Label != "DE" || result[0].Clicks != 2 {
		t.Errorf("result[0] = %+v, want DE with 2 clicks", result[0])
	}
	// Empty labels fold into the default bucket.
	found := false
	for _, entry := range result {
		if entry.Label == "Unknown" && entry.Clicks == 1 {
			found = true
		}
	}
	if !found {
		t.Error("foldCategories() missing Unknown bucket for empty label")
	}
}

func TestFoldCategories_LimitAndTies(t *testing.T) {
	events := []model.ClickEvent{
		{Country: "DE"}, {Country: "DE"},
		{Country: "US"}, {Country: "US"},
		{Country: "FR"},
	}

	result := foldCategories(events, countryOf, "Unknown", 2)
	if len(result) != 2 {
		t.Fatalf("foldCategories() returned %d entries, want 2", len(result))
	}
	// Ties break alphabetically.
	if result[0].Label != "DE" || result[1].Label != "US" {
		t.Errorf("foldCategories() order = %s, %s; want DE, US", result[0].Label, result[1].Label)
	}
}

func TestReferrers_DirectDefault(t *testing.T) {
	agg, _, clicks := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now()
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Desktop", "Chrome", "", now)
	seedClick(t, clicks, "abc123", "203.0.113.2", "DE", "Desktop", "Chrome", "https://news.example.com", now)

	result, err := agg.Referrers(ctx, "abc123", 10)
	if err != nil {
		t.Fatalf("Referrers() error = %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Referrers() returned %d entries, want 2", len(result))
	}

	found := false
	for _, entry := range result {
		if entry.Label == "Direct" {
			found = true
		}
	}
	if !found {
		t.Error("Referrers() missing Direct bucket for empty referrer")
	}
}

func TestTopLinks(t *testing.T) {
	agg, links, _ := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now()
	seedLink(t, links, "low111", 5, now)
	seedLink(t, links, "high22", 50, now)
	seedLink(t, links, "mid333", 20, now)
	seedLink(t, links, "old444", 100, now.AddDate(0, -2, 0))

	top, err := agg.TopLinks(ctx, 2, "all")
	if err != nil {
		t.Fatalf("TopLinks() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("TopLinks() returned %d links, want 2", len(top))
	}
	if top[0].ShortCode != "old444" || top[1].ShortCode != "high22" {
		t.Errorf("TopLinks() order = %s, %s; want old444, high22", top[0].ShortCode, top[1].ShortCode)
	}

	// The month window drops the two-month-old link.
	top, err = agg.TopLinks(ctx, 10, "month")
	if err != nil {
		t.Fatalf("TopLinks() error = %v", err)
	}
	for _, link := range top {
		if link.ShortCode == "old444" {
			t.Error("TopLinks(month) included a link created before the window")
		}
	}
}

func TestRecentClicks_MasksIP(t *testing.T) {
	agg, links, clicks := newTestAggregator(t)
	ctx := context.Background()

	seedLink(t, links, "abc123", 1, time.Now())
	seedClick(t, clicks, "abc123", "203.0.113.7", "DE", "Desktop", "Chrome", "direct", time.Now())

	recent, err := agg.RecentClicks(ctx, 10, true)
	if err != nil {
		t.Fatalf("RecentClicks() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("RecentClicks() returned %d entries, want 1", len(recent))
	}
	if recent[0].IPAddress != "203.0.113.***" {
		t.Errorf("IPAddress = %q, want masked form", recent[0].IPAddress)
	}
	if recent[0].OriginalURL != "https://example.com/abc123" {
		t.Errorf("OriginalURL = %q, want the link target", recent[0].OriginalURL)
	}

	// Without includeIP the address never leaves the service.
	recent, err = agg.RecentClicks(ctx, 10, false)
	if err != nil {
		t.Fatalf("RecentClicks() error = %v", err)
	}
	if recent[0].IPAddress != "" {
		t.Errorf("IPAddress = %q, want empty", recent[0].IPAddress)
	}
}

func TestDashboard(t *testing.T) {
	agg, links, clicks := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now()
	seedLink(t, links, "abc123", 2, now)
	seedLink(t, links, "xyz789", 1, now)
	seedClick(t, clicks, "abc123", "203.0.113.1", "DE", "Desktop", "Chrome", "direct", now)
	seedClick(t, clicks, "abc123", "203.0.113.2", "US", "Mobile", "Safari", "direct", now)
	seedClick(t, clicks, "xyz789", "203.0.113.3", "FR", "Desktop", "Firefox", "direct", now.AddDate(0, 0, -3))

	dashboard, err := agg.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if dashboard.Overview.TotalLinks != 2 {
		t.Errorf("TotalLinks = %d, want 2", dashboard.Overview.TotalLinks)
	}
	if dashboard.Overview.TotalClicks != 3 {
		t.Errorf("TotalClicks = %d, want 3", dashboard.Overview.TotalClicks)
	}
	if dashboard.Overview.TodayClicks != 2 {
		t.Errorf("TodayClicks = %d, want 2", dashboard.Overview.TodayClicks)
	}
	if dashboard.Overview.AvgClicksPerLink != 2 {
		t.Errorf("AvgClicksPerLink = %d, want 2", dashboard.Overview.AvgClicksPerLink)
	}
	if len(dashboard.TopLinks) != 2 {
		t.Errorf("TopLinks has %d entries, want 2", len(dashboard.TopLinks))
	}
	if dashboard.TopLinks[0].ShortCode != "abc123" {
		t.Errorf("TopLinks[0] = %s, want abc123", dashboard.TopLinks[0].ShortCode)
	}
}

func TestSystemStats(t *testing.T) {
	agg, links, clicks := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now()
	seedLink(t, links, "active1", 1, now)

	expired := model.Link{
		ID:          "id-expired",
		ShortCode:   "gone99",
		OriginalURL: "https://example.com/gone",
		IsActive:    true,
		ExpiresAt:   now.Add(-time.Hour),
		CreatedAt:   now.AddDate(0, 0, -5),
		UpdatedAt:   now.AddDate(0, 0, -5),
	}
	if err := links.Create(ctx, expired); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	seedClick(t, clicks, "active1", "203.0.113.1", "DE", "Desktop", "Chrome", "direct", now)
	seedClick(t, clicks, "active1", "203.0.113.2", "DE", "Mobile", "Safari", "direct", now.AddDate(0, 0, -1))

	stats, err := agg.SystemStats(ctx)
	if err != nil {
		t.Fatalf("SystemStats() error = %v", err)
	}

	if stats.Overview.TotalLinks != 2 {
		t.Errorf("TotalLinks = %d, want 2", stats.Overview.TotalLinks)
	}
	if stats.Overview.ActiveLinks != 1 {
		t.Errorf("ActiveLinks = %d, want 1", stats.Overview.ActiveLinks)
	}
	if stats.Overview.ExpiredLinks != 1 {
		t.Errorf("ExpiredLinks = %d, want 1", stats.Overview.ExpiredLinks)
	}
	if stats.Overview.TotalClicks != 2 {
		t.Errorf("TotalClicks = %d, want 2", stats.Overview.TotalClicks)
	}
	if stats.Growth.ClicksToday != 1 {
		t.Errorf("ClicksToday = %d, want 1", stats.Growth.ClicksToday)
	}
	if len(stats.Demographics.TopCountries) == 0 || stats.Demographics.TopCountries[0].Label != "DE" {
		t.Error("TopCountries missing DE")
	}
	if len(stats.DailyClicks) != 2 {
		t.Errorf("DailyClicks has %d buckets, want 2", len(stats.DailyClicks))
	}
}

func TestMaskIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want string
	}{
		{"IPv4", "203.0.113.7", "203.0.113.***"},
		{"No dots passes through", "::1", "::1"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskIP(tt.ip); got != tt.want {
				t.Errorf("MaskIP(%q) = %q, want %q", tt.ip, got, tt.want)
			}
		})
	}
}

func TestAvgClicks(t *testing.T) {
	tests := []struct {
		name       string
		clicks     int64
		linksCount int64
		want       int64
	}{
		{"No links", 10, 0, 0},
		{"Exact division", 10, 5, 2},
		{"Rounds up", 5, 2, 3},
		{"Rounds down", 7, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := avgClicks(tt.clicks, tt.linksCount); got != tt.want {
				t.Errorf("avgClicks(%d, %d) = %d, want %d", tt.clicks, tt.linksCount, got, tt.want)
			}
		})
	}
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name  string
		delta int64
		base  int64
		want  float64
	}{
		{"Zero base", 5, 0, 0},
		{"Whole percent", 5, 10, 50},
		{"One decimal", 1, 3, 33.3},
		{"Negative growth", -2, 10, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := growthPercent(tt.delta, tt.base); got != tt.want {
				t.Errorf("growthPercent(%d, %d) = %v, want %v", tt.delta, tt.base, got, tt.want)
			}
		})
	}
}
