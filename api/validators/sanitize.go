package validators

import "strings"

// NormalizeEmail is applied before every email lookup or insert so that
// uniqueness ignores case and surrounding space.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
