package token

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Length is the number of characters produced by New.
const Length = ulid.EncodedSize

// New returns a lowercase ULID suitable for file names.
// ulid.Make draws from a process-wide monotonic source guarded by a mutex, so
// concurrent callers never observe the same value.
func New() string {
	return strings.ToLower(ulid.Make().String())
}

// IsValid reports whether value was produced by New.
func IsValid(value string) bool {
	if len(value) != Length || value != strings.ToLower(value) {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse returns the ULID encoded in value.
func Parse(value string) (ulid.ULID, error) {
	return ulid.ParseStrict(strings.ToUpper(strings.TrimSpace(value)))
}
