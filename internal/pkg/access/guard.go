package access

import (
	"crypto/subtle"

	"github.com/sorajate/craig/internal/pkg/persistence"
)

// KeyMatches compares the supplied access key with the recording's one.
// Comparison is constant time, an empty supplied or stored key always fails.
func KeyMatches(rec *persistence.Recording, key string) bool {
	return matches(rec.AccessKey, key)
}

// DeleteKeyMatches compares the supplied delete key with the recording's one
func DeleteKeyMatches(rec *persistence.Recording, key string) bool {
	return matches(rec.DeleteKey, key)
}

func matches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
