// Package enums holds the string-backed domain enums stored in Postgres.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](allowed []T, kind, raw string) (T, error) {
	if v := T(raw); slices.Contains(allowed, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
