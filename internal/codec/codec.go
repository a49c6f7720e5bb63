// Package codec supplies the structured-text capability the engine consumes.
// Validation never sees the markup dialect; it only sees models.Mapping.
package codec

import (
	"github.com/dpshade/promptlib/internal/models"
)

// Codec parses and serializes header mappings in one markup dialect
type Codec interface {
	// Name identifies the dialect, e.g. "yaml"
	Name() string
	// Decode parses a single mapping. Empty or non-mapping input is an error.
	Decode(data []byte) (*models.Mapping, error)
	// DecodeList parses a sequence of mappings
	DecodeList(data []byte) ([]*models.Mapping, error)
	// EncodeList serializes a sequence of mappings, preserving key order
	EncodeList(items []*models.Mapping) ([]byte, error)
}
