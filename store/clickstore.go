package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	clickKeyPrefix = "clicks:"         // clicks:<shortCode> -> list of JSON click events
	clickTimeline  = "clicks:timeline" // sorted set: event tokens scored by click time
	recentClicks   = "clicks:recent"   // capped list of the latest events across all links

	recentClicksCap = 500
)

// ClickStore is the append-only click event log. Events are never updated
// or individually removed; they only disappear when their link is deleted.
type ClickStore struct {
	redis *redis.Client
}

func NewClickStore(rdb *redis.Client) *ClickStore {
	return &ClickStore{redis: rdb}
}

func clickKey(shortCode string) string {
	return clickKeyPrefix + shortCode
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// Append records one click event. The per-link list is the durable log; the
// global timeline and recent feed are secondary indexes whose failures are
// logged but do not fail the append.
func (s *ClickStore) Append(ctx context.Context, event model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.redis.RPush(ctx, clickKey(event.ShortCode), data).Err(); err != nil {
		return err
	}

	token := event.ShortCode + ":" + uuid.New().String()
	if err := s.redis.ZAdd(ctx, clickTimeline, &redis.Z{
		Score:  float64(event.ClickedAt.Unix()),
		Member: token,
	}).Err(); err != nil {
		log.Error().Err(err).Str("short_code", event.ShortCode).Msg("Failed to add click to timeline")
	}

	pipe := s.redis.Pipeline()
	pipe.LPush(ctx, recentClicks, data)
	pipe.LTrim(ctx, recentClicks, 0, recentClicksCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("short_code", event.ShortCode).Msg("Failed to update recent clicks feed")
	}

	return nil
}

// ForLink returns every click event recorded for a short code, oldest first.
func (s *ClickStore) ForLink(ctx context.Context, shortCode string) ([]model.ClickEvent, error) {
	raw, err := s.redis.LRange(ctx, clickKey(shortCode), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	events := make([]model.ClickEvent, 0, len(raw))
	for _, item := range raw {
		var event model.ClickEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			log.Error().Err(err).Str("short_code", shortCode).Msg("Skipping undecodable click event")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// CountForLink returns the length of a link's click log. This is the
// authoritative click count.
func (s *ClickStore) CountForLink(ctx context.Context, shortCode string) (int64, error) {
	return s.redis.LLen(ctx, clickKey(shortCode)).Result()
}

// Recent returns up to limit of the latest click events across all links,
// newest first.
func (s *ClickStore) Recent(ctx context.Context, limit int) ([]model.ClickEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	raw, err := s.redis.LRange(ctx, recentClicks, 0, int64(limit)-1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	events := make([]model.ClickEvent, 0, len(raw))
	for _, item := range raw {
		var event model.ClickEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// CountTotal returns the number of click events across all links.
func (s *ClickStore) CountTotal(ctx context.Context) (int64, error) {
	return s.redis.ZCard(ctx, clickTimeline).Result()
}

// CountSince counts clicks recorded at or after the given time.
func (s *ClickStore) CountSince(ctx context.Context, from time.Time) (int64, error) {
	return s.redis.ZCount(ctx, clickTimeline, formatScore(from), "+inf").Result()
}

// CountBetween counts clicks recorded in [from, to).
func (s *ClickStore) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.redis.ZCount(ctx, clickTimeline, formatScore(from), "("+formatScore(to)).Result()
}

// DeleteForLink cascades a link deletion into its click log. Returns the
// number of events removed.
func (s *ClickStore) DeleteForLink(ctx context.Context, shortCode string) (int64, error) {
	count, err := s.redis.LLen(ctx, clickKey(shortCode)).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}

	if err := s.redis.Del(ctx, clickKey(shortCode)).Err(); err != nil {
		return 0, err
	}

	// Sweep this link's tokens out of the global timeline.
	var cursor uint64
	for {
		members, next, err := s.redis.ZScan(ctx, clickTimeline, cursor, shortCode+":*", 100).Result()
		if err != nil {
			log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to scan click timeline for cleanup")
			break
		}
		// ZScan yields member/score pairs; members sit at even offsets.
		for i := 0; i < len(members); i += 2 {
			s.redis.ZRem(ctx, clickTimeline, members[i])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return count, nil
}
