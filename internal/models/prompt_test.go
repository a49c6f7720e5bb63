package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestDescriptionTruncatesOnCharacters(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{"short", "Summarize filings", "Summarize filings"},
		{"accented", strings.Repeat("é", 80), strings.Repeat("é", 57) + "..."},
		{"wide", strings.Repeat("漢", 40), strings.Repeat("漢", 28) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Header{Summary: tt.summary}.Description()
			assert.True(t, utf8.ValidString(got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptionBoundsTotalWidth(t *testing.T) {
	h := Header{
		Summary:  "Review",
		Category: "development",
		Tags:     strings.Split(strings.Repeat("größe,", 30), ","),
	}

	got := h.Description()
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, runewidth.StringWidth(got), 100)
	assert.True(t, strings.HasSuffix(got, "..."))
}
