package model

import "time"

// DailyBucket is one calendar-day (UTC) point in a click time series.
type DailyBucket struct {
	Date         string `json:"date"` // "YYYY-MM-DD"
	Clicks       int64  `json:"clicks"`
	UniqueClicks int64  `json:"uniqueClicks"`
}

// CategoryCount is one row of a grouped breakdown (country, device,
// browser or referrer), sorted descending by clicks.
type CategoryCount struct {
	Label  string `json:"label"`
	Clicks int64  `json:"clicks"`
}

// LinkSummary aggregates the click log for a single link.
type LinkSummary struct {
	TotalClicks  int64     `json:"totalClicks"`
	UniqueClicks int64     `json:"uniqueClicks"`
	Countries    int       `json:"countries"`
	Devices      int       `json:"devices"`
	Browsers     int       `json:"browsers"`
	FirstClick   time.Time `json:"firstClick,omitempty"`
	LastClick    time.Time `json:"lastClick,omitempty"`
}

// LinkAnalytics is the payload for GET /api/analytics/link/:shortCode.
type LinkAnalytics struct {
	ShortCode   string        `json:"shortCode"`
	OriginalURL string        `json:"originalUrl"`
	CreatedAt   time.Time     `json:"createdAt"`
	Stats       LinkSummary   `json:"stats"`
	Daily       []DailyBucket `json:"dailyAnalytics"`
}

// DetailedAnalytics is the payload for GET /api/analytics/link/:shortCode/detailed.
type DetailedAnalytics struct {
	Geographic []CategoryCount `json:"geographic"`
	Devices    []CategoryCount `json:"devices"`
	Browsers   []CategoryCount `json:"browsers"`
	Referrers  []CategoryCount `json:"referrers"`
}

// TopLink is one entry of the top-performing-links list.
type TopLink struct {
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	Description string    `json:"description,omitempty"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RecentClick is one entry of the recent-clicks feed. The IP address is
// partially masked before it leaves the service.
type RecentClick struct {
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	ClickedAt   time.Time `json:"clickedAt"`
	Country     string    `json:"country"`
	Device      string    `json:"device"`
	Browser     string    `json:"browser"`
	IPAddress   string    `json:"ipAddress,omitempty"`
}

// DashboardOverview is the headline block of the dashboard payload.
type DashboardOverview struct {
	TotalLinks       int64 `json:"totalLinks"`
	TotalClicks      int64 `json:"totalClicks"`
	TodayClicks      int64 `json:"todayClicks"`
	WeekClicks       int64 `json:"weekClicks"`
	MonthClicks      int64 `json:"monthClicks"`
	AvgClicksPerLink int64 `json:"avgClicksPerLink"`
}

// Dashboard is the payload for GET /api/analytics/dashboard.
type Dashboard struct {
	Overview     DashboardOverview `json:"overview"`
	TopLinks     []TopLink         `json:"topLinks"`
	RecentClicks []RecentClick     `json:"recentClicks"`
}

// SystemGrowth holds windowed creation/click counts and period-over-period
// growth percentages for the admin stats payload. Growth is 0 whenever the
// comparison denominator is 0.
type SystemGrowth struct {
	LinksToday      int64   `json:"linksToday"`
	LinksThisWeek   int64   `json:"linksThisWeek"`
	LinksThisMonth  int64   `json:"linksThisMonth"`
	LinkGrowth      float64 `json:"linkGrowth"`
	ClicksToday     int64   `json:"clicksToday"`
	ClicksYesterday int64   `json:"clicksYesterday"`
	ClicksThisWeek  int64   `json:"clicksThisWeek"`
	ClicksThisMonth int64   `json:"clicksThisMonth"`
	ClickGrowth     float64 `json:"clickGrowth"`
}

// SystemOverview is the headline block of the admin stats payload.
type SystemOverview struct {
	TotalLinks       int64 `json:"totalLinks"`
	ActiveLinks      int64 `json:"activeLinks"`
	ExpiredLinks     int64 `json:"expiredLinks"`
	TotalClicks      int64 `json:"totalClicks"`
	AvgClicksPerLink int64 `json:"avgClicksPerLink"`
}

// SystemDemographics holds the global top-country/top-device breakdowns.
type SystemDemographics struct {
	TopCountries []CategoryCount `json:"topCountries"`
	TopDevices   []CategoryCount `json:"topDevices"`
}

// SystemStats is the payload for GET /api/admin/stats.
type SystemStats struct {
	Overview     SystemOverview     `json:"overview"`
	Growth       SystemGrowth       `json:"growth"`
	Demographics SystemDemographics `json:"demographics"`
	DailyClicks  []DailyBucket      `json:"dailyClicks"`
}
