// Package analytics is the read side: pure aggregation queries over the
// click event log. Nothing here mutates link or click state.
package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/store"
)

// Aggregator folds click events into the dashboard and per-link summaries.
type Aggregator struct {
	links  *store.LinkStore
	clicks *store.ClickStore
}

func NewAggregator(links *store.LinkStore, clicks *store.ClickStore) *Aggregator {
	return &Aggregator{links: links, clicks: clicks}
}

// DailySeries buckets a link's clicks per UTC calendar day within the last
// `days` days, ascending by date. Days without clicks produce no bucket.
func (a *Aggregator) DailySeries(ctx context.Context, shortCode string, days int) ([]model.DailyBucket, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	events, err := a.clicks.ForLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		clicks int64
		ips    map[string]struct{}
	}
	byDay := make(map[string]*bucket)

	for _, event := range events {
		if event.ClickedAt.Before(cutoff) {
			continue
		}
		day := event.ClickedAt.UTC().Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{ips: make(map[string]struct{})}
			byDay[day] = b
		}
		b.clicks++
		b.ips[event.IPAddress] = struct{}{}
	}

	series := make([]model.DailyBucket, 0, len(byDay))
	for day, b := range byDay {
		series = append(series, model.DailyBucket{
			Date:         day,
			Clicks:       b.clicks,
			UniqueClicks: int64(len(b.ips)),
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	return series, nil
}

// Summary aggregates the full click log of one link.
func (a *Aggregator) Summary(ctx context.Context, shortCode string) (model.LinkSummary, error) {
	events, err := a.clicks.ForLink(ctx, shortCode)
	if err != nil {
		return model.LinkSummary{}, err
	}

	ips := make(map[string]struct{})
	countries := make(map[string]struct{})
	devices := make(map[string]struct{})
	browsers := make(map[string]struct{})

	var first, last time.Time
	for _, event := range events {
		ips[event.IPAddress] = struct{}{}
		countries[event.Country] = struct{}{}
		devices[event.Device] = struct{}{}
		browsers[event.Browser] = struct{}{}

		if first.IsZero() || event.ClickedAt.Before(first) {
			first = event.ClickedAt
		}
		if event.ClickedAt.After(last) {
			last = event.ClickedAt
		}
	}

	return model.LinkSummary{
		TotalClicks:  int64(len(events)),
		UniqueClicks: int64(len(ips)),
		Countries:    len(countries),
		Devices:      len(devices),
		Browsers:     len(browsers),
		FirstClick:   first,
		LastClick:    last,
	}, nil
}

// LinkAnalytics combines a link's summary with its daily series.
func (a *Aggregator) LinkAnalytics(ctx context.Context, link *model.Link, days int) (*model.LinkAnalytics, error) {
	summary, err := a.Summary(ctx, link.ShortCode)
	if err != nil {
		return nil, err
	}
	daily, err := a.DailySeries(ctx, link.ShortCode, days)
	if err != nil {
		return nil, err
	}

	return &model.LinkAnalytics{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
		Stats:       summary,
		Daily:       daily,
	}, nil
}

// category selectors for the top-N breakdowns
func countryOf(e model.ClickEvent) string  { return e.Country }
func deviceOf(e model.ClickEvent) string   { return e.Device }
func browserOf(e model.ClickEvent) string  { return e.Browser }
func referrerOf(e model.ClickEvent) string { return e.Referrer }

func (a *Aggregator) topByCategory(ctx context.Context, shortCode string, pick func(model.ClickEvent) string, unknown string, limit int) ([]model.CategoryCount, error) {
	events, err := a.clicks.ForLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	return foldCategories(events, pick, unknown, limit), nil
}

func foldCategories(events []model.ClickEvent, pick func(model.ClickEvent) string, unknown string, limit int) []model.CategoryCount {
	counts := make(map[string]int64)
	for _, event := range events {
		label := pick(event)
		if label == "" {
			label = unknown
		}
		counts[label]++
	}

	result := make([]model.CategoryCount, 0, len(counts))
	for label, clicks := range counts {
		result = append(result, model.CategoryCount{Label: label, Clicks: clicks})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Clicks != result[j].Clicks {
			return result[i].Clicks > result[j].Clicks
		}
		return result[i].Label < result[j].Label
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Geographic returns a link's top countries by clicks.
func (a *Aggregator) Geographic(ctx context.Context, shortCode string, limit int) ([]model.CategoryCount, error) {
	return a.topByCategory(ctx, shortCode, countryOf, "Unknown", limit)
}

// Devices returns a link's device breakdown.
func (a *Aggregator) Devices(ctx context.Context, shortCode string, limit int) ([]model.CategoryCount, error) {
	return a.topByCategory(ctx, shortCode, deviceOf, "Unknown", limit)
}

// Browsers returns a link's browser breakdown.
func (a *Aggregator) Browsers(ctx context.Context, shortCode string, limit int) ([]model.CategoryCount, error) {
	return a.topByCategory(ctx, shortCode, browserOf, "Unknown", limit)
}

// Referrers returns a link's top referrers; empty referrers count as
// "Direct" traffic.
func (a *Aggregator) Referrers(ctx context.Context, shortCode string, limit int) ([]model.CategoryCount, error) {
	return a.topByCategory(ctx, shortCode, referrerOf, "Direct", limit)
}

// Detailed bundles every categorical breakdown for one link.
func (a *Aggregator) Detailed(ctx context.Context, shortCode string, limit int) (*model.DetailedAnalytics, error) {
	events, err := a.clicks.ForLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	return &model.DetailedAnalytics{
		Geographic: foldCategories(events, countryOf, "Unknown", limit),
		Devices:    foldCategories(events, deviceOf, "Unknown", 0),
		Browsers:   foldCategories(events, browserOf, "Unknown", 0),
		Referrers:  foldCategories(events, referrerOf, "Direct", limit),
	}, nil
}

// TopLinks returns the highest-clicked links, optionally restricted to links
// created today / this week / this month.
func (a *Aggregator) TopLinks(ctx context.Context, limit int, period string) ([]model.TopLink, error) {
	links, err := a.links.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := periodStart(period, time.Now())
	filtered := make([]model.Link, 0, len(links))
	for _, link := range links {
		if !cutoff.IsZero() && link.CreatedAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, link)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ClickCount > filtered[j].ClickCount })
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	top := make([]model.TopLink, 0, len(filtered))
	for _, link := range filtered {
		top = append(top, model.TopLink{
			ShortCode:   link.ShortCode,
			OriginalURL: link.OriginalURL,
			Description: link.Description,
			Clicks:      link.ClickCount,
			CreatedAt:   link.CreatedAt,
		})
	}
	return top, nil
}

// RecentClicks returns the latest clicks across all links, newest first,
// with partially masked IP addresses.
func (a *Aggregator) RecentClicks(ctx context.Context, limit int, includeIP bool) ([]model.RecentClick, error) {
	events, err := a.clicks.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	recent := make([]model.RecentClick, 0, len(events))
	for _, event := range events {
		entry := model.RecentClick{
			ShortCode: event.ShortCode,
			ClickedAt: event.ClickedAt,
			Country:   event.Country,
			Device:    event.Device,
			Browser:   event.Browser,
		}
		if link, err := a.links.Get(ctx, event.ShortCode); err == nil {
			entry.OriginalURL = link.OriginalURL
		}
		if includeIP {
			entry.IPAddress = MaskIP(event.IPAddress)
		}
		recent = append(recent, entry)
	}
	return recent, nil
}

// Dashboard builds the analytics dashboard payload.
func (a *Aggregator) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	now := time.Now()

	totalLinks, err := a.links.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalClicks, err := a.clicks.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	todayClicks, err := a.clicks.CountSince(ctx, startOfDay(now))
	if err != nil {
		return nil, err
	}
	weekClicks, err := a.clicks.CountSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	monthClicks, err := a.clicks.CountSince(ctx, startOfMonth(now))
	if err != nil {
		return nil, err
	}

	topLinks, err := a.TopLinks(ctx, 5, "all")
	if err != nil {
		return nil, err
	}
	recentClicks, err := a.RecentClicks(ctx, 10, false)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		Overview: model.DashboardOverview{
			TotalLinks:       totalLinks,
			TotalClicks:      totalClicks,
			TodayClicks:      todayClicks,
			WeekClicks:       weekClicks,
			MonthClicks:      monthClicks,
			AvgClicksPerLink: avgClicks(totalClicks, totalLinks),
		},
		TopLinks:     topLinks,
		RecentClicks: recentClicks,
	}, nil
}

// SystemStats builds the admin statistics payload: link/click totals,
// windowed growth, global demographics and the 30-day daily series.
func (a *Aggregator) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	now := time.Now()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := now.AddDate(0, 0, -7)
	monthStart := startOfMonth(now)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	links, err := a.links.List(ctx)
	if err != nil {
		return nil, err
	}

	var activeLinks, expiredLinks int64
	for i := range links {
		if links[i].IsExpired() {
			expiredLinks++
		} else if links[i].IsActive {
			activeLinks++
		}
	}

	totalClicks, err := a.clicks.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	clicksToday, err := a.clicks.CountSince(ctx, today)
	if err != nil {
		return nil, err
	}
	clicksYesterday, err := a.clicks.CountBetween(ctx, yesterday, today)
	if err != nil {
		return nil, err
	}
	clicksThisWeek, err := a.clicks.CountSince(ctx, weekAgo)
	if err != nil {
		return nil, err
	}
	clicksThisMonth, err := a.clicks.CountSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	clicksLastMonth, err := a.clicks.CountBetween(ctx, lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}

	linksToday, err := a.links.CountCreatedSince(ctx, today)
	if err != nil {
		return nil, err
	}
	linksThisWeek, err := a.links.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		return nil, err
	}
	linksThisMonth, err := a.links.CountCreatedSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	// Global demographics and the daily series fold over every click log.
	all := make([]model.ClickEvent, 0)
	monthAgo := now.AddDate(0, 0, -30)
	for i := range links {
		events, err := a.clicks.ForLink(ctx, links[i].ShortCode)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}

	daily := make(map[string]int64)
	for _, event := range all {
		if event.ClickedAt.Before(monthAgo) {
			continue
		}
		daily[event.ClickedAt.UTC().Format("2006-01-02")]++
	}
	dailyClicks := make([]model.DailyBucket, 0, len(daily))
	for day, clicks := range daily {
		dailyClicks = append(dailyClicks, model.DailyBucket{Date: day, Clicks: clicks})
	}
	sort.Slice(dailyClicks, func(i, j int) bool { return dailyClicks[i].Date < dailyClicks[j].Date })

	return &model.SystemStats{
		Overview: model.SystemOverview{
			TotalLinks:       int64(len(links)),
			ActiveLinks:      activeLinks,
			ExpiredLinks:     expiredLinks,
			TotalClicks:      totalClicks,
			AvgClicksPerLink: avgClicks(totalClicks, int64(len(links))),
		},
		Growth: model.SystemGrowth{
			LinksToday:      linksToday,
			LinksThisWeek:   linksThisWeek,
			LinksThisMonth:  linksThisMonth,
			LinkGrowth:      growthPercent(linksThisWeek, linksThisMonth),
			ClicksToday:     clicksToday,
			ClicksYesterday: clicksYesterday,
			ClicksThisWeek:  clicksThisWeek,
			ClicksThisMonth: clicksThisMonth,
			ClickGrowth:     growthPercent(clicksThisMonth-clicksLastMonth, clicksLastMonth),
		},
		Demographics: model.SystemDemographics{
			TopCountries: foldCategories(all, countryOf, "Unknown", 5),
			TopDevices:   foldCategories(all, deviceOf, "Unknown", 5),
		},
		DailyClicks: dailyClicks,
	}, nil
}

// MaskIP hides the last octet of an IPv4 address before it leaves the
// service. Other address forms pass through unchanged.
func MaskIP(ip string) string {
	idx := strings.LastIndex(ip, ".")
	if idx < 0 {
		return ip
	}
	return ip[:idx] + ".***"
}

// avgClicks is round(totalClicks / totalLinks), 0 when there are no links.
func avgClicks(totalClicks, totalLinks int64) int64 {
	if totalLinks == 0 {
		return 0
	}
	return int64(math.Round(float64(totalClicks) / float64(totalLinks)))
}

// growthPercent is delta/base*100 rounded to one decimal, 0 when the base
// period is empty.
func growthPercent(delta, base int64) float64 {
	if base == 0 {
		return 0
	}
	return math.Round(float64(delta)/float64(base)*1000) / 10
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "today":
		return startOfDay(now)
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return startOfMonth(now)
	default:
		return time.Time{}
	}
}
