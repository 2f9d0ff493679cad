package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expectSlug  string
		expectError bool
	}{
		{
			name:       "already normalized",
			input:      "home-goods",
			expectSlug: "home-goods",
		},
		{
			name:       "trims whitespace and lowercases",
			input:      "  Kitchen-Ware ",
			expectSlug: "kitchen-ware",
		},
		{
			name:        "empty string",
			input:       "   ",
			expectError: true,
		},
		{
			name:        "invalid characters",
			input:       "home_goods",
			expectError: true,
		},
		{
			name:        "trailing hyphen",
			input:       "mugs-",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			slug, err := NormalizeSlug(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectSlug, slug)
		})
	}
}

func TestDeriveSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Blue Mug":               "blue-mug",
		"  Blue   Mug  ":         "blue-mug",
		"Café & Crème (500ml)":   "caf-cr-me-500ml",
		"--Already-Sluggy--":     "already-sluggy",
		"T-Shirt / XL":           "t-shirt-xl",
		"100% Cotton":            "100-cotton",
		"!!!":                    "item",
		"":                       "item",
	}

	for in, want := range tests {
		got := DeriveSlug(in)
		require.Equal(t, want, got, in)
		require.Regexp(t, slugPattern, got)
		require.Equal(t, got, DeriveSlug(in), "derivation must be deterministic")
	}
}

func TestSuffixSlug(t *testing.T) {
	t.Parallel()

	require.Equal(t, "blue-mug-4821", SuffixSlug("blue-mug", "4821"))
}

func TestClockSlugToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "6789", ClockSlugToken(time.UnixMilli(123456789)))
	require.Equal(t, "42", ClockSlugToken(time.UnixMilli(42)))
}

func TestCreateWithUniqueSlug(t *testing.T) {
	t.Parallel()

	clock := func() time.Time { return time.UnixMilli(1700000001234) }

	t.Run("free slug", func(t *testing.T) {
		t.Parallel()

		got, err := CreateWithUniqueSlug("blue-mug", clock, func(slug string) (string, error) { return slug, nil })
		require.NoError(t, err)
		require.Equal(t, "blue-mug", got)
	})

	t.Run("taken slug gets clock suffix", func(t *testing.T) {
		t.Parallel()

		got, err := CreateWithUniqueSlug("blue-mug", clock, func(slug string) (string, error) {
			if slug == "blue-mug" {
				return "", ErrSlugTaken
			}
			return slug, nil
		})
		require.NoError(t, err)
		require.Equal(t, "blue-mug-1234", got)
	})

	t.Run("clock collision falls back to random suffix", func(t *testing.T) {
		t.Parallel()

		var attempts []string
		got, err := CreateWithUniqueSlug("blue-mug", clock, func(slug string) (string, error) {
			attempts = append(attempts, slug)
			if len(attempts) < 3 {
				return "", ErrSlugTaken
			}
			return slug, nil
		})
		require.NoError(t, err)
		require.Len(t, attempts, 3)
		require.Regexp(t, `^blue-mug-[0-9a-f]{8}$`, got)
	})

	t.Run("other errors stop", func(t *testing.T) {
		t.Parallel()

		calls := 0
		boom := errors.New("boom")
		_, err := CreateWithUniqueSlug("blue-mug", clock, func(string) (string, error) {
			calls++
			return "", boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, calls)
	})
}
