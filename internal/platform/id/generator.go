package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random v4 UUIDs, optionally prefixed ("sub-", "comp-").
type UUIDGenerator struct {
	prefix string
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func NewPrefixedGenerator(prefix string) *UUIDGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, "-") {
		prefix += "-"
	}
	return &UUIDGenerator{prefix: prefix}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return g.prefix + v.String(), nil
}
