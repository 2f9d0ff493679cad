package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRunes    = regexp.MustCompile(`[^a-z0-9]+`)
	fallbackSlugTag = "item"
)

// NormalizeSlug trims whitespace, lowercases the value, and ensures it matches
// the canonical URL-safe slug pattern. Used for caller-supplied slugs.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("slug is required")
	}

	normalized := strings.ToLower(trimmed)
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: must match ^[a-z0-9]+(?:-[a-z0-9]+)*$", input)
	}

	return normalized, nil
}

// DeriveSlug builds a slug from a display name: lowercase, runs of anything outside [a-z0-9]
// collapsed to one hyphen, leading and trailing hyphens trimmed. A name with no usable
// characters derives "item".
func DeriveSlug(name string) string {
	slug := nonSlugRunes.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlugTag
	}
	return slug
}

// SuffixSlug appends a disambiguating token to base.
func SuffixSlug(base, token string) string {
	return base + "-" + token
}

// ClockSlugToken returns the last four digits of the Unix millisecond clock.
func ClockSlugToken(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 4 {
		ms = ms[len(ms)-4:]
	}
	return ms
}

// CreateWithUniqueSlug runs create with base and, while the slug is taken inside the tenant,
// with a clock-suffixed and then a random-suffixed variant. Any other error stops immediately.
func CreateWithUniqueSlug[T any](base string, now func() time.Time, create func(slug string) (T, error)) (T, error) {
	if now == nil {
		now = time.Now
	}
	candidates := []string{
		base,
		SuffixSlug(base, ClockSlugToken(now())),
		SuffixSlug(base, strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
	}

	var (
		out T
		err error
	)
	for _, slug := range candidates {
		out, err = create(slug)
		if !errors.Is(err, ErrSlugTaken) {
			return out, err
		}
	}
	return out, err
}
