package models

import (
	"github.com/dpshade/promptlib/internal/errors"
)

// Document is one discovered prompt file
type Document struct {
	RelativePath string
	RawText      string
	Raw          *Mapping // nil when the header could not be extracted
	Body         string

	// Header is the typed projection of Raw, set only for valid documents
	Header *Header

	Valid       bool
	Diagnostics []*errors.AppError
}

// Invalidate marks the document invalid and records why
func (d *Document) Invalidate(diags ...*errors.AppError) {
	d.Valid = false
	d.Header = nil
	d.Diagnostics = append(d.Diagnostics, diags...)
}

// ID returns the raw id value when it is a non-empty string
func (d *Document) ID() (string, bool) {
	v, ok := d.Raw.Get("id")
	if !ok || v == nil {
		return "", false
	}
	id, ok := ScalarString(v)
	return id, ok && id != ""
}

// Corpus is the ordered set of documents collected in one run
type Corpus struct {
	Documents []*Document
}

// Valid returns the valid documents in discovery order
func (c *Corpus) Valid() []*Document {
	var out []*Document
	for _, d := range c.Documents {
		if d.Valid {
			out = append(out, d)
		}
	}
	return out
}

// Invalid returns the number of invalid documents
func (c *Corpus) Invalid() int {
	n := 0
	for _, d := range c.Documents {
		if !d.Valid {
			n++
		}
	}
	return n
}
