package persistence

import (
	"github.com/google/uuid"

	"github.com/example/lms/internal/ports/secondary"
)

// UUIDGenerator hands out random (version 4) UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh UUID.
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

var _ secondary.IDGenerator = (*UUIDGenerator)(nil)
