// Package renderer turns prompt headers into the Markdown listing embedded in
// overview documents, and renders Markdown for the terminal.
package renderer

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/dpshade/promptlib/internal/models"
)

const listingTemplate = `{{range $i, $e := .}}{{if $i}}
{{end}}- **[{{.Title}}]({{.File}})**
{{- if .Description}}
  {{.Description}}{{end}}
{{- if .Meta}}
  {{.Meta}}{{end}}
{{end}}`

var listingTmpl = template.Must(template.New("listing").Parse(listingTemplate))

// ListingEntry is one rendered line group of a listing block
type ListingEntry struct {
	Title       string
	File        string
	Description string
	Meta        string
}

// SortHeaders returns headers ordered by title, ties broken by file name.
// The input slice is not modified.
func SortHeaders(headers []*models.Header) []*models.Header {
	sorted := slices.Clone(headers)
	slices.SortStableFunc(sorted, func(a, b *models.Header) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.FileName(), b.FileName())
	})
	return sorted
}

// Entries builds the listing entries for headers in title order
func Entries(headers []*models.Header) []ListingEntry {
	sorted := SortHeaders(headers)
	entries := make([]ListingEntry, 0, len(sorted))
	for _, h := range sorted {
		entries = append(entries, ListingEntry{
			Title:       oneLine(h.Name),
			File:        h.FileName(),
			Description: oneLine(h.Summary),
			Meta:        metaLine(h),
		})
	}
	return entries
}

// RenderListing renders the Markdown listing for one directory. The result
// ends with a newline unless headers is empty.
func RenderListing(headers []*models.Header) (string, error) {
	var buf bytes.Buffer
	if err := listingTmpl.Execute(&buf, Entries(headers)); err != nil {
		return "", fmt.Errorf("failed to render listing: %w", err)
	}
	return buf.String(), nil
}

// metaLine joins the present ones of version and tags
func metaLine(h *models.Header) string {
	var parts []string
	if h.Version != "" {
		parts = append(parts, "Version: "+h.Version)
	}
	if len(h.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(h.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}

// oneLine collapses whitespace so multi-line values stay inside their entry
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
