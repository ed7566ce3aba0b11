// Package resolver implements the request-time core: mapping a short code to
// a redirect decision while side-effecting the click log and the cached
// counters.
package resolver

import (
	"context"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/cache"
	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/store"
	"github.com/HTwebsitesolution/quicklink-pro/useragent"

	"github.com/rs/zerolog/log"
)

// Status is the terminal state of one resolution attempt.
type Status int

const (
	// StatusRedirect means the link resolved and Target holds the redirect URL.
	StatusRedirect Status = iota
	// StatusNotFound covers both unknown and deactivated short codes. The two
	// are indistinguishable to the caller so deactivation leaks nothing.
	StatusNotFound
	// StatusExpired means the link exists but its expiration has passed.
	StatusExpired
	// StatusFailed means the lookup itself hit a persistence fault.
	StatusFailed
)

// Outcome is the resolver's redirect decision.
type Outcome struct {
	Status    Status
	Target    string
	ExpiredAt time.Time
	Err       error
}

// ClickContext is the request context captured onto a click event.
type ClickContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
	Country   string
}

// Resolver maps short codes to redirect decisions. Lookups read through the
// link cache; every successful resolution appends a click event and bumps
// the link's cached counter.
type Resolver struct {
	links  *store.LinkStore
	clicks *store.ClickStore
	cache  *cache.Cache
}

func New(links *store.LinkStore, clicks *store.ClickStore, linkCache *cache.Cache) *Resolver {
	return &Resolver{
		links:  links,
		clicks: clicks,
		cache:  linkCache,
	}
}

// Resolve runs the resolution state machine for one request: lookup, active
// check, expiry check, click recording, counter update, redirect decision.
//
// The click event is written before the counter update, so a crash between
// the two loses counter consistency but never the event itself; the event
// log stays the source of truth. A click-recording failure is logged and
// degrades analytics, never the redirect.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, click ClickContext) Outcome {
	link, found := r.cache.GetLink(shortCode)
	if !found {
		var err error
		link, err = r.links.Get(ctx, shortCode)
		if err == store.ErrNotFound {
			return Outcome{Status: StatusNotFound}
		} else if err != nil {
			log.Error().Err(err).Str("short_code", shortCode).Msg("Link lookup failed")
			return Outcome{Status: StatusFailed, Err: err}
		}
		r.cache.SetLink(*link)
	}

	// Inactive links resolve exactly like absent ones.
	if !link.IsActive {
		r.cache.Delete(shortCode)
		return Outcome{Status: StatusNotFound}
	}

	if link.IsExpired() {
		r.cache.Delete(shortCode)
		return Outcome{Status: StatusExpired, ExpiredAt: link.ExpiresAt}
	}

	now := time.Now()
	r.recordClick(ctx, link, click, now)
	r.updateCounters(ctx, link, now)

	return Outcome{Status: StatusRedirect, Target: link.OriginalURL}
}

// recordClick classifies the request context and appends the event. Failures
// are logged; silently losing a click is acceptable degraded behavior, a
// failed redirect is not.
func (r *Resolver) recordClick(ctx context.Context, link *model.Link, click ClickContext, now time.Time) {
	referrer := click.Referrer
	if referrer == "" {
		referrer = "direct"
	}
	country := click.Country
	if country == "" {
		country = "Unknown"
	}

	event := model.ClickEvent{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IPAddress: click.IPAddress,
		UserAgent: click.UserAgent,
		Referrer:  referrer,
		Country:   country,
		Device:    useragent.Device(click.UserAgent),
		Browser:   useragent.Browser(click.UserAgent),
		OS:        useragent.OS(click.UserAgent),
		ClickedAt: now,
	}

	if err := r.clicks.Append(ctx, event); err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to record click event")
	}
}

func (r *Resolver) updateCounters(ctx context.Context, link *model.Link, now time.Time) {
	updated, err := r.links.IncrementClick(ctx, link.ShortCode, now)
	if err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to update click counter")
		return
	}
	r.cache.SetLink(*updated)
}

// Reconcile pins a link's cached counter back to the authoritative click
// log count and returns the corrected link.
func (r *Resolver) Reconcile(ctx context.Context, shortCode string) (*model.Link, error) {
	count, err := r.clicks.CountForLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	link, err := r.links.SetClickCount(ctx, shortCode, count)
	if err != nil {
		return nil, err
	}

	r.cache.SetLink(*link)
	return link, nil
}
