package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many items any page can request.
	MaxLimit = 100
)

// ErrUnknownCursor is returned when the cursor names an item no longer in the list.
var ErrUnknownCursor = errors.New("cursor does not match any item")

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor identifies the last item of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds a base64 cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. A blank
// value yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{
		CreatedAt: t,
		ID:        parts[1],
	}, nil
}

// Page slices an already ordered list. It returns the items after the cursor,
// at most the normalized limit of them, and the cursor for the next page
// (empty on the last page).
func Page[T any](items []T, cursorOf func(T) Cursor, params Params) ([]T, string, error) {
	limit := NormalizeLimit(params.Limit)

	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if cursor != nil {
		start = -1
		for i, item := range items {
			if cursorOf(item).ID == cursor.ID {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", ErrUnknownCursor
		}
	}

	end := start + limit
	if end >= len(items) {
		return append([]T{}, items[start:]...), "", nil
	}
	page := append([]T{}, items[start:end]...)
	return page, EncodeCursor(cursorOf(page[len(page)-1])), nil
}
