// Package idgen generates the prefixed identifiers used for flowboard entities.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefixes for each entity kind.
const (
	TaskPrefix    = "tsk"
	StatusPrefix  = "st"
	GroupPrefix   = "grp"
	HistoryPrefix = "hist"
)

// IDLength is the number of hex characters after the prefix.
const IDLength = 32

// Generate creates a new ID in the format "<prefix>-<32 hex>".
// The hex part is a UUIDv7, so IDs generated later sort after earlier ones.
func Generate(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return prefix + "-" + strings.ReplaceAll(id.String(), "-", ""), nil
}

// MustGenerate creates a new ID, panicking on error.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(err)
	}
	return id
}

// HasPrefix reports whether id was generated with the given prefix.
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || len(rest) != IDLength {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
