// Package uuid provides ID generation helpers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates UUID v7 strings, used for run and request IDs.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// MustID returns a UUID7 string, falling back to the nil UUID when the
// random source fails. Callers that only tag log entries use this form.
func (g Generator) MustID() string {
	id, err := g.NewID()
	if err != nil {
		return uuid.Nil.String()
	}
	return id
}

// NewUUID returns a UUID7 value, or the nil UUID when the random source
// fails. Run tracking wants the binary form for progress events.
func (Generator) NewUUID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil
	}
	return id
}
