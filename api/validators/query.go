package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/hometex/storefront/pkg/errors"
)

// ParseQueryInt reads an integer query parameter bounded by [min, max].
// An absent or blank value yields defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// QueryString returns the cleaned value of key and whether the key was sent
// at all, so "?size=" can be told apart from no size.
func QueryString(r *http.Request, key string, maxLen int) (string, bool) {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return "", ok
	}
	return Clean(values[0], maxLen), true
}

// Clean trims s, strips control characters and caps it at maxLen runes.
func Clean(s string, maxLen int) string {
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return s
}
