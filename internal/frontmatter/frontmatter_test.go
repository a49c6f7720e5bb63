package frontmatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantOK     bool
		wantHeader string
		wantBody   string
	}{
		{
			name:       "simple",
			raw:        "---\nid: a\n---\n# Body\n",
			wantOK:     true,
			wantHeader: "id: a",
			wantBody:   "# Body\n",
		},
		{
			name:       "leading blank lines and padded markers",
			raw:        "\n\n---  \nid: a\ntitle: b\n--- \nbody",
			wantOK:     true,
			wantHeader: "id: a\ntitle: b",
			wantBody:   "body",
		},
		{
			name:       "closing marker at end of file",
			raw:        "---\nid: a\n---",
			wantOK:     true,
			wantHeader: "id: a",
			wantBody:   "",
		},
		{
			name:       "crlf line endings",
			raw:        "---\r\nid: a\r\n---\r\nbody\r\n",
			wantOK:     true,
			wantHeader: "id: a",
			wantBody:   "body\r\n",
		},
		{
			name:   "no opening marker",
			raw:    "# Title\n---\nid: a\n---\n",
			wantOK: false,
		},
		{
			name:   "no closing marker",
			raw:    "---\nid: a\nbody\n",
			wantOK: false,
		},
		{
			name:   "empty document",
			raw:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, ok := Split(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.raw, body)
				return
			}
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestParse(t *testing.T) {
	c := codec.NewYAML()

	t.Run("valid header", func(t *testing.T) {
		raw := "---\nid: p1\ntitle: Prompt\ntags:\n  - a\n  - b\n---\nHello\n"
		m, body, err := Parse(raw, c, "analysis/p1.md")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "title", "tags"}, m.Keys())
		assert.Equal(t, "Hello\n", body)
	})

	t.Run("missing header", func(t *testing.T) {
		_, _, err := Parse("just text\n", c, "analysis/p1.md")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMissingHeader))
		assert.Contains(t, err.Error(), "analysis/p1.md")
	})

	t.Run("malformed header", func(t *testing.T) {
		raw := "---\nid: [unclosed\ntitle: x\n---\nbody\n"
		_, _, err := Parse(raw, c, "analysis/bad.md")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedHeader))
	})

	t.Run("header that is not a mapping", func(t *testing.T) {
		raw := "---\n- a\n- b\n---\nbody\n"
		_, _, err := Parse(raw, c, "analysis/list.md")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedHeader))
	})
	t.Run("self-referencing alias", func(t *testing.T) {
		raw := "---\nid: x\ntags: &t\n  - *t\n---\nbody\n"
		_, _, err := Parse(raw, c, "analysis/loop.md")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedHeader))
	})

	t.Run("exponential aliases", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("---\nid: x\nl0: &l0 [lol, lol, lol, lol, lol, lol, lol, lol, lol]\n")
		for i := 1; i < 10; i++ {
			prev := fmt.Sprintf("*l%d", i-1)
			fmt.Fprintf(&b, "l%d: &l%d [%s]\n", i, i, strings.Repeat(prev+", ", 8)+prev)
		}
		b.WriteString("---\nbody\n")

		_, _, err := Parse(b.String(), c, "analysis/laughs.md")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedHeader))
	})
}
