package enums

import (
	"fmt"
	"slices"
	"strings"
)

// normalize lower-cases value and folds spaces and hyphens into underscores,
// so "Cash-On-Delivery" and "cash on delivery" both read as cash_on_delivery.
func normalize(value string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(value)))
}

func parse[T ~string](value string, known []T, kind string) (T, error) {
	candidate := T(normalize(value))
	if slices.Contains(known, candidate) {
		return candidate, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
