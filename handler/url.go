package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/model"
	"github.com/HTwebsitesolution/quicklink-pro/shortcode"
	"github.com/HTwebsitesolution/quicklink-pro/store"
	"github.com/HTwebsitesolution/quicklink-pro/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const maxDescriptionLength = 200

var (
	errCacheDisabled      = errors.New("cache is disabled")
	errLinkNotFound       = errors.New("link not found")
	errLinkExpired        = errors.New("link has expired")
	errAliasTaken         = errors.New("custom alias already exists")
	errDescriptionTooLong = errors.New("description must be less than 200 characters")
	errExpirationInPast   = errors.New("expiration date must be in the future")
	errBadExpiration      = errors.New("expiration must be a valid RFC3339 timestamp")
)

var bulkPrefixFormat = regexp.MustCompile(`^[A-Za-z0-9_-]{2,10}$`)

// ShortenRequest is the body of POST /api/url/shorten.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	Description string `json:"description,omitempty"`
	Expiration  string `json:"expiration,omitempty"`
}

// ShortenURL handles POST /api/url/shorten
func (h *Handler) ShortenURL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	var input ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	sanitized, err := utils.SanitizeURL(input.OriginalURL)
	if err != nil {
		log.Warn().Err(err).Str("url", input.OriginalURL).Msg("URL failed sanitization")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}
	if err := utils.ValidateURL(sanitized, h.config.IsProduction()); err != nil {
		log.Warn().Err(err).Str("url", sanitized).Msg("Invalid URL")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	if len(input.Description) > maxDescriptionLength {
		SendJSONError(w, http.StatusBadRequest, errDescriptionTooLong, "")
		return
	}

	expiresAt, err := parseExpiration(input.Expiration)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Use RFC3339 format with timezone (e.g., 2026-12-31T23:59:59Z)")
		return
	}

	now := time.Now()
	link := model.Link{
		ID:          uuid.New().String(),
		OriginalURL: sanitized,
		Description: input.Description,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if input.CustomAlias != "" {
		if err := h.generator.ValidateAlias(input.CustomAlias); err != nil {
			log.Warn().Err(err).Str("alias", input.CustomAlias).Msg("Invalid custom alias")
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}

		link.ShortCode = input.CustomAlias
		link.CustomAlias = input.CustomAlias

		if err := h.links.Create(ctx, link); err != nil {
			if err == store.ErrCodeTaken {
				suggestions := h.generator.Suggestions(ctx, input.CustomAlias, h.config.Shortener.SuggestionsCount)
				SendJSONErrorWithSuggestions(w, http.StatusConflict, errAliasTaken,
					fmt.Sprintf("The alias '%s' is already in use. Try a different alias or leave blank for auto-generation.", input.CustomAlias),
					suggestions)
				return
			}
			log.Error().Err(err).Msg("Failed to store link")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to store link")
			return
		}
	} else {
		if err := h.createWithGeneratedCode(ctx, &link); err != nil {
			if err == shortcode.ErrGenerationExhausted {
				log.Error().Err(err).Msg("Short code generation exhausted")
				SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate short code")
				return
			}
			log.Error().Err(err).Msg("Failed to store link")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to store link")
			return
		}
	}

	log.Info().
		Str("short_code", link.ShortCode).
		Str("original_url", link.OriginalURL).
		Bool("is_custom_alias", link.CustomAlias != "").
		Msg("Short link created")

	SendJSONSuccess(w, http.StatusCreated, h.linkResponse(&link))
}

// createWithGeneratedCode generates a random code and inserts the link,
// retrying when a concurrent writer claims the same code between the
// availability check and the insert.
func (h *Handler) createWithGeneratedCode(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < h.config.Shortener.MaxRetries; attempt++ {
		code, err := h.generator.Generate(ctx)
		if err != nil {
			return err
		}

		link.ShortCode = code
		err = h.links.Create(ctx, *link)
		if err == store.ErrCodeTaken {
			log.Warn().Str("short_code", code).Int("attempt", attempt+1).Msg("Collision on insert, retrying")
			continue
		}
		return err
	}
	return shortcode.ErrGenerationExhausted
}

func parseExpiration(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	expiresAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errBadExpiration
	}
	if expiresAt.Before(time.Now()) {
		return time.Time{}, errExpirationInPast
	}
	return expiresAt, nil
}

// BulkShortenRequest is the body of POST /api/url/bulk-shorten.
type BulkShortenRequest struct {
	URLs   []string `json:"urls"`
	Prefix string   `json:"prefix,omitempty"`
}

// BulkResult is one successfully shortened entry, carrying the index of its
// input so callers can reconcile results with the submitted list.
type BulkResult struct {
	Index       int    `json:"index"`
	OriginalURL string `json:"originalUrl"`
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
}

// BulkError is one failed entry, indexed like BulkResult.
type BulkError struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BulkShortenResponse summarizes a bulk run: counts plus the indexed
// success and failure lists in input order.
type BulkShortenResponse struct {
	Processed int          `json:"processed"`
	Errors    int          `json:"errors"`
	Results   []BulkResult `json:"results"`
	Failures  []BulkError  `json:"failures"`
}

// BulkShortenURLs handles POST /api/url/bulk-shorten
func (h *Handler) BulkShortenURLs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	var input BulkShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if len(input.URLs) == 0 || len(input.URLs) > h.config.Shortener.BulkBatchLimit {
		SendJSONError(w, http.StatusBadRequest,
			fmt.Errorf("urls array must contain between 1 and %d entries", h.config.Shortener.BulkBatchLimit), "")
		return
	}
	if input.Prefix != "" && !bulkPrefixFormat.MatchString(input.Prefix) {
		SendJSONError(w, http.StatusBadRequest,
			errors.New("prefix must be 2-10 characters of letters, numbers, hyphens or underscores"), "")
		return
	}

	results := make([]BulkResult, 0, len(input.URLs))
	failures := make([]BulkError, 0)

	for i, raw := range input.URLs {
		sanitized, err := utils.SanitizeURL(raw)
		if err == nil {
			err = utils.ValidateURL(sanitized, h.config.IsProduction())
		}
		if err != nil {
			failures = append(failures, BulkError{Index: i, URL: raw, Error: "Invalid URL"})
			continue
		}

		now := time.Now()
		link := model.Link{
			ID:          uuid.New().String(),
			OriginalURL: sanitized,
			Description: fmt.Sprintf("Bulk upload %d", i+1),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if input.Prefix != "" {
			link.ShortCode = fmt.Sprintf("%s-%d", input.Prefix, i+1)
			err = h.links.Create(ctx, link)
			if err == store.ErrCodeTaken {
				failures = append(failures, BulkError{Index: i, URL: raw, Error: "Short code already exists"})
				continue
			}
		} else {
			err = h.createWithGeneratedCode(ctx, &link)
		}
		if err != nil {
			log.Error().Err(err).Int("index", i).Msg("Bulk shorten entry failed")
			failures = append(failures, BulkError{Index: i, URL: raw, Error: err.Error()})
			continue
		}

		results = append(results, BulkResult{
			Index:       i,
			OriginalURL: link.OriginalURL,
			ShortCode:   link.ShortCode,
			ShortURL:    link.ShortURL(h.baseURL),
		})
	}

	SendJSONSuccess(w, http.StatusOK, BulkShortenResponse{
		Processed: len(results),
		Errors:    len(failures),
		Results:   results,
		Failures:  failures,
	})
}

// GetLinkInfo handles GET /api/url/info/{shortCode}
func (h *Handler) GetLinkInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	link, err := h.links.Get(ctx, shortCode)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	if link.IsExpired() {
		SendJSONError(w, http.StatusGone, errLinkExpired, "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.linkResponse(link))
}

// UpdateLinkRequest is the body of PUT /api/url/update/{shortCode}. Pointer
// fields distinguish "absent" from "clear".
type UpdateLinkRequest struct {
	Description *string `json:"description,omitempty"`
	Expiration  *string `json:"expiration,omitempty"`
}

// UpdateLink handles PUT /api/url/update/{shortCode}
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	var input UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	link, err := h.links.Get(ctx, shortCode)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	if input.Description != nil {
		if len(*input.Description) > maxDescriptionLength {
			SendJSONError(w, http.StatusBadRequest, errDescriptionTooLong, "")
			return
		}
		link.Description = *input.Description
	}
	if input.Expiration != nil {
		if *input.Expiration == "" {
			link.ExpiresAt = time.Time{}
		} else {
			expiresAt, err := parseExpiration(*input.Expiration)
			if err != nil {
				SendJSONError(w, http.StatusBadRequest, err, "")
				return
			}
			link.ExpiresAt = expiresAt
		}
	}

	if err := h.links.Save(ctx, link); err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to save link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update link")
		return
	}
	h.cache.Delete(shortCode)

	log.Info().Str("short_code", shortCode).Msg("Link updated")

	SendJSONSuccess(w, http.StatusOK, h.linkResponse(link))
}

// DeleteLink handles DELETE /api/url/delete/{shortCode}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	link, err := h.links.Get(ctx, shortCode)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errLinkNotFound, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to fetch link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to fetch link")
		return
	}

	if err := h.links.Delete(ctx, link); err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to delete link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete link")
		return
	}
	if _, err := h.clicks.DeleteForLink(ctx, shortCode); err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to cascade click log deletion")
	}
	h.cache.Delete(shortCode)

	log.Info().Str("short_code", shortCode).Msg("Link deleted")

	SendJSONMessage(w, http.StatusOK, nil, "Link deleted successfully")
}
