package storage

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// ShortIDLen is the ID length shown in listings.
	ShortIDLen = 8
	// MinPrefixLen is the shortest prefix Find accepts.
	MinPrefixLen = 4
)

// NewID returns a random 32 character hex ID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ShortID truncates id to ShortIDLen characters.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}
