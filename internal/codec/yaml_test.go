package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/promptlib/internal/models"
)

func TestDecodeKeepsKeyOrder(t *testing.T) {
	m, err := NewYAML().Decode([]byte("zeta: 1\nalpha: two\nmid:\n  - a\n  - b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	v, _ := m.Get("zeta")
	assert.Equal(t, models.Number("1"), v)
	v, _ = m.Get("mid")
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"comment only", "# nothing\n"},
		{"sequence", "- a\n- b\n"},
		{"scalar", "just text"},
		{"syntax error", "id: [unclosed"},
		{"duplicate key", "id: a\nid: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYAML().Decode([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestDecodeRejectsRecursiveAliases(t *testing.T) {
	_, err := NewYAML().Decode([]byte("id: x\ntags: &t\n  - *t\n"))
	require.Error(t, err)
}

func TestConverterStopsOnAliasCycle(t *testing.T) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Line: 3}
	seq.Content = []*yaml.Node{{Kind: yaml.AliasNode, Alias: seq}}

	_, err := newConverter().value(seq)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias cycle")
}

func TestConverterBoundsExpansion(t *testing.T) {
	wide := &yaml.Node{Kind: yaml.SequenceNode}
	for i := 0; i < 1000; i++ {
		wide.Content = append(wide.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "x"})
	}
	top := &yaml.Node{Kind: yaml.SequenceNode}
	for i := 0; i < 200; i++ {
		top.Content = append(top.Content, &yaml.Node{Kind: yaml.AliasNode, Alias: wide})
	}

	_, err := newConverter().value(top)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than")
}

func TestDecodeMergeKeys(t *testing.T) {
	input := "base: &b\n  x: 1\nitem:\n  <<: *b\n  y: 2\n"
	m, err := NewYAML().Decode([]byte(input))
	require.NoError(t, err)

	v, _ := m.Get("item")
	item, ok := v.(*models.Mapping)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, item.Keys())
}

func TestEncodeListBlockStyle(t *testing.T) {
	m := models.NewMapping()
	m.Set("id", "p1")
	m.Set("version", models.Number("1.0"))
	m.Set("quoted_version", "1.0")
	m.Set("tags", []any{"a", "b"})
	m.Set("last_modified", "2025-03-01T12:00:00Z")
	m.Set("enabled", true)

	out, err := NewYAML().EncodeList([]*models.Mapping{m})
	require.NoError(t, err)

	want := "- id: p1\n" +
		"  version: 1.0\n" +
		"  quoted_version: \"1.0\"\n" +
		"  tags:\n" +
		"    - a\n" +
		"    - b\n" +
		"  last_modified: \"2025-03-01T12:00:00Z\"\n" +
		"  enabled: true\n"
	assert.Equal(t, want, string(out))
}

func TestRoundTrip(t *testing.T) {
	c := NewYAML()
	input := "- id: p1\n  title: First\n  parameters:\n    - name: topic\n      type: string\n- id: p2\n  title: Second\n"

	items, err := c.DecodeList([]byte(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	out, err := c.EncodeList(items)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestDecodeListEmpty(t *testing.T) {
	items, err := NewYAML().DecodeList(nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	out, err := NewYAML().EncodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}
