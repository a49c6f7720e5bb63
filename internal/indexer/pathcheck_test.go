package indexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

func TestCheckPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		category string
		sub      string
		fields   []string
	}{
		{"top level match", "analysis/foo.md", "analysis", "", nil},
		{"category mismatch", "analysis/foo.md", "trading", "", []string{"category"}},
		{"sub category match", "analysis/subA/bar.md", "analysis", "subA", nil},
		{"sub category mismatch", "analysis/subA/bar.md", "analysis", "subB", []string{"sub_category"}},
		{"sub category without directory", "analysis/bar.md", "analysis", "subA", []string{"sub_category"}},
		{"undeclared sub directory", "analysis/subA/bar.md", "analysis", "", []string{"sub_category"}},
		{"both wrong", "analysis/subA/bar.md", "trading", "subB", []string{"category", "sub_category"}},
		{"empty category", "analysis/foo.md", "", "", []string{"category"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &models.Header{Category: tt.category, SubCategory: tt.sub}
			diags := CheckPath(h, tt.path)

			var fields []string
			for _, d := range diags {
				assert.Equal(t, errors.ErrCodePathConsistency, d.Code)
				assert.Equal(t, tt.path, d.Path)
				fields = append(fields, d.Context["field"].(string))
			}
			if diff := cmp.Diff(tt.fields, fields); diff != "" {
				t.Errorf("violated fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckPathReportsExpectedAndActual(t *testing.T) {
	diags := CheckPath(&models.Header{Category: "trading"}, "analysis/foo.md")
	if assert.Len(t, diags, 1) {
		assert.Contains(t, diags[0].Message, `expected "analysis"`)
		assert.Contains(t, diags[0].Message, `got "trading"`)
	}
}
