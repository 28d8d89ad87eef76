// Package uuid generates time-ordered record identifiers.
package uuid

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Generator mints UUIDv7 strings. The zero value reads from crypto/rand.
type Generator struct {
	entropy io.Reader
}

// New returns a Generator backed by the default random source.
func New() *Generator {
	return &Generator{}
}

// NewFromReader returns a Generator drawing its random bits from r.
func NewFromReader(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// NewID returns a new UUIDv7 in canonical string form.
func (g *Generator) NewID() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if g.entropy != nil {
		id, err = uuid.NewV7FromReader(g.entropy)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate record id: %w", err)
	}
	return id.String(), nil
}
