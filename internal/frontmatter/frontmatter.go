// Package frontmatter splits a prompt document into its structured header
// block and Markdown body.
//
// A header is a line holding only "---", the header text, and a second line
// holding only "---". Leading blank lines and trailing whitespace on marker
// lines are tolerated.
package frontmatter

import (
	"strings"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// Delimiter is the marker line around a header block
const Delimiter = "---"

// Split locates the header block. ok is false when the opening or closing
// marker is missing; body is then the whole input.
func Split(raw string) (header string, body string, ok bool) {
	offset := 0
	opened := false
	headerStart := 0

	for offset < len(raw) {
		end := strings.IndexByte(raw[offset:], '\n')
		next := len(raw)
		line := raw[offset:]
		if end >= 0 {
			next = offset + end + 1
			line = raw[offset : offset+end]
		}
		trimmed := strings.TrimSpace(line)

		switch {
		case !opened && trimmed == "":
			// leading blank line
		case !opened && trimmed == Delimiter:
			opened = true
			headerStart = next
		case !opened:
			return "", raw, false
		case trimmed == Delimiter:
			header = strings.TrimSuffix(raw[headerStart:offset], "\n")
			header = strings.TrimSuffix(header, "\r")
			return header, raw[next:], true
		}
		offset = next
	}

	return "", raw, false
}

// Parse extracts and decodes the header block of a document. Failures are
// MISSING_HEADER or MALFORMED_HEADER app errors attributed to path.
func Parse(raw string, c codec.Codec, path string) (*models.Mapping, string, error) {
	header, body, ok := Split(raw)
	if !ok {
		return nil, raw, errors.MissingHeader(path)
	}

	mapping, err := decode(c, header)
	if err != nil {
		return nil, raw, errors.MalformedHeader(path, err)
	}

	return mapping, body, nil
}

// decode guards against codec panics so a bad header never takes the run down
func decode(c codec.Codec, header string) (m *models.Mapping, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = errors.InternalError("header decoder panicked").WithContext("panic", r)
		}
	}()
	return c.Decode([]byte(header))
}
