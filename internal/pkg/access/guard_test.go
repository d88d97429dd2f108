package access

import (
	"strings"
	"testing"

	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestKeyMatches(t *testing.T) {
	rec := &persistence.Recording{ID: "abc123", AccessKey: "secretK", DeleteKey: "delK"}
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "exact", key: "secretK", want: true},
		{name: "empty", key: "", want: false},
		{name: "prefix", key: "secret", want: false},
		{name: "longer", key: "secretKK", want: false},
		{name: "case altered", key: strings.ToUpper("secretK"), want: false},
		{name: "delete key is not access key", key: "delK", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyMatches(rec, tt.key))
		})
	}
}

func TestDeleteKeyMatches(t *testing.T) {
	rec := &persistence.Recording{ID: "abc123", AccessKey: "secretK", DeleteKey: "delK"}
	assert.True(t, DeleteKeyMatches(rec, "delK"))
	assert.False(t, DeleteKeyMatches(rec, "secretK"))
	assert.False(t, DeleteKeyMatches(rec, ""))
	assert.False(t, DeleteKeyMatches(rec, "delk"))
}

func TestKeyMatches_NoStoredKey(t *testing.T) {
	rec := &persistence.Recording{ID: "abc123"}
	assert.False(t, KeyMatches(rec, ""))
	assert.False(t, KeyMatches(rec, "any"))
	assert.False(t, DeleteKeyMatches(rec, "any"))
}
