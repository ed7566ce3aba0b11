package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	linkKeyPrefix   = "link:"        // link:<shortCode> -> JSON link record
	idIndexKey      = "link_ids"     // hash: link ID -> shortCode
	createdTimeline = "links:created" // sorted set: shortCode scored by creation time
)

var (
	ErrNotFound  = errors.New("link not found")
	ErrCodeTaken = errors.New("short code already taken")
)

// LinkStore is the durable mapping from short code to link record, backed by
// Redis. The shortCode key carries the uniqueness constraint; SETNX
// arbitrates concurrent creation races.
type LinkStore struct {
	redis *redis.Client
}

func NewLinkStore(rdb *redis.Client) *LinkStore {
	return &LinkStore{redis: rdb}
}

func linkKey(shortCode string) string {
	return linkKeyPrefix + shortCode
}

// Create persists a new link. Returns ErrCodeTaken when the short code is
// already claimed, including when two concurrent requests race past the
// availability pre-check.
func (s *LinkStore) Create(ctx context.Context, link model.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, linkKey(link.ShortCode), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeTaken
	}

	if err := s.redis.HSet(ctx, idIndexKey, link.ID, link.ShortCode).Err(); err != nil {
		log.Error().Err(err).Str("id", link.ID).Msg("Failed to index link ID")
	}
	if err := s.redis.ZAdd(ctx, createdTimeline, &redis.Z{
		Score:  float64(link.CreatedAt.Unix()),
		Member: link.ShortCode,
	}).Err(); err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to add link to creation timeline")
	}

	return nil
}

// Ping verifies the backing Redis connection.
func (s *LinkStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// Get fetches a link by short code. Returns ErrNotFound for unknown codes.
func (s *LinkStore) Get(ctx context.Context, shortCode string) (*model.Link, error) {
	data, err := s.redis.Get(ctx, linkKey(shortCode)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByID fetches a link through the ID index.
func (s *LinkStore) GetByID(ctx context.Context, id string) (*model.Link, error) {
	shortCode, err := s.redis.HGet(ctx, idIndexKey, id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.Get(ctx, shortCode)
}

// Save overwrites an existing link record and stamps UpdatedAt. The short
// code is immutable, so the key never moves.
func (s *LinkStore) Save(ctx context.Context, link *model.Link) error {
	link.UpdatedAt = time.Now()
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, linkKey(link.ShortCode), data, 0).Err()
}

// Delete removes a link and its index entries. Click events are the
// ClickStore's to cascade.
func (s *LinkStore) Delete(ctx context.Context, link *model.Link) error {
	if err := s.redis.Del(ctx, linkKey(link.ShortCode)).Err(); err != nil {
		return err
	}
	if err := s.redis.HDel(ctx, idIndexKey, link.ID).Err(); err != nil {
		log.Error().Err(err).Str("id", link.ID).Msg("Failed to remove link ID index entry")
	}
	if err := s.redis.ZRem(ctx, createdTimeline, link.ShortCode).Err(); err != nil {
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("Failed to remove link from creation timeline")
	}
	return nil
}

// CodeAvailable reports whether a short code is free to claim.
func (s *LinkStore) CodeAvailable(ctx context.Context, code string) (bool, error) {
	exists, err := s.redis.Exists(ctx, linkKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists == 0, nil
}

// IncrementClick bumps the cached click counter and the last-clicked stamp.
// Plain read-modify-write: the counter is a derived cache, the click log can
// always regenerate it.
func (s *LinkStore) IncrementClick(ctx context.Context, shortCode string, at time.Time) (*model.Link, error) {
	link, err := s.Get(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	link.ClickCount++
	link.LastClickedAt = at
	if err := s.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// SetClickCount pins the cached counter to an externally derived value,
// used by the reconciliation pass.
func (s *LinkStore) SetClickCount(ctx context.Context, shortCode string, count int64) (*model.Link, error) {
	link, err := s.Get(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	link.ClickCount = count
	if err := s.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// List scans all link records. The result order is unspecified; callers
// sort as needed.
func (s *LinkStore) List(ctx context.Context) ([]model.Link, error) {
	links := make([]model.Link, 0)

	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, linkKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if err != nil {
				// Key vanished between scan and read, skip it
				continue
			}
			var link model.Link
			if err := json.Unmarshal(data, &link); err != nil {
				log.Error().Err(err).Str("key", key).Msg("Skipping undecodable link record")
				continue
			}
			links = append(links, link)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return links, nil
}

// Count returns the number of stored links.
func (s *LinkStore) Count(ctx context.Context) (int64, error) {
	return s.redis.ZCard(ctx, createdTimeline).Result()
}

// CountCreatedBetween counts links created in [from, to).
func (s *LinkStore) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.redis.ZCount(ctx, createdTimeline,
		formatScore(from), "("+formatScore(to)).Result()
}

// CountCreatedSince counts links created at or after the given time.
func (s *LinkStore) CountCreatedSince(ctx context.Context, from time.Time) (int64, error) {
	return s.redis.ZCount(ctx, createdTimeline, formatScore(from), "+inf").Result()
}

// Search filters links whose short code, original URL or description
// contains the term, case-insensitive.
func Search(links []model.Link, term string) []model.Link {
	if term == "" {
		return links
	}
	term = strings.ToLower(term)

	matched := make([]model.Link, 0, len(links))
	for _, link := range links {
		if strings.Contains(strings.ToLower(link.ShortCode), term) ||
			strings.Contains(strings.ToLower(link.OriginalURL), term) ||
			strings.Contains(strings.ToLower(link.Description), term) {
			matched = append(matched, link)
		}
	}
	return matched
}
