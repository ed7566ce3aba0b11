package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"regexp"
	"strings"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrAliasInvalid        = errors.New("custom alias must be 3-15 characters of letters, numbers, hyphens or underscores")
	ErrAliasReserved       = errors.New("custom alias is a reserved word")
	ErrGenerationExhausted = errors.New("failed to generate unique short code after maximum retries")
)

var aliasFormat = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Availability is the store-side uniqueness check the generator retries
// against.
type Availability interface {
	CodeAvailable(ctx context.Context, code string) (bool, error)
}

// Generator produces short codes: fixed-length random identifiers, or
// caller-supplied aliases validated against format and reserved words.
type Generator struct {
	store      Availability
	codeLength int
	maxRetries int
	minAlias   int
	maxAlias   int
}

// NewGenerator creates a code generator backed by the given availability
// check.
func NewGenerator(store Availability, codeLength, maxRetries, minAlias, maxAlias int) *Generator {
	return &Generator{
		store:      store,
		codeLength: codeLength,
		maxRetries: maxRetries,
		minAlias:   minAlias,
		maxAlias:   maxAlias,
	}
}

// randomCode generates a cryptographically secure random code
func randomCode(length int) (string, error) {
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// Generate produces a random short code not currently in use. Collisions are
// retried up to the configured budget; running out of retries is a service
// fault, not a client error.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		code, err := randomCode(g.codeLength)
		if err != nil {
			return "", err
		}

		available, err := g.store.CodeAvailable(ctx, code)
		if err != nil {
			return "", err
		}
		if available {
			return code, nil
		}
	}

	return "", ErrGenerationExhausted
}

// ValidateAlias checks a caller-supplied alias against length, character set
// and the reserved-word list.
func (g *Generator) ValidateAlias(alias string) error {
	if len(alias) < g.minAlias || len(alias) > g.maxAlias {
		return ErrAliasInvalid
	}
	if !aliasFormat.MatchString(alias) {
		return ErrAliasInvalid
	}
	if IsReserved(alias) {
		return ErrAliasReserved
	}
	return nil
}

// Suggestions proposes available alternatives for a taken alias: numeric
// suffixes first, random suffixes as a fallback.
func (g *Generator) Suggestions(ctx context.Context, alias string, count int) []string {
	if count <= 0 {
		count = 3
	}

	suggestions := make([]string, 0, count)
	base := strings.ToLower(alias)

	for i := 2; i <= count+5 && len(suggestions) < count; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if len(candidate) > g.maxAlias {
			break
		}
		if available, err := g.store.CodeAvailable(ctx, candidate); err == nil && available {
			suggestions = append(suggestions, candidate)
		}
	}

	for attempt := 0; attempt < 10 && len(suggestions) < count; attempt++ {
		// Top-level math/rand is safe for concurrent callers.
		candidate := fmt.Sprintf("%s-x%d", base, mathrand.Intn(90)+10)
		if len(candidate) > g.maxAlias {
			break
		}
		if available, err := g.store.CodeAvailable(ctx, candidate); err == nil && available && !contains(suggestions, candidate) {
			suggestions = append(suggestions, candidate)
		}
	}

	return suggestions
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
