package indexer

import (
	"strings"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// CheckPath verifies a header's category and sub_category against the
// document's location. Segment 0 of relPath must be the category; segment 1,
// when it is a directory, must be the declared sub_category and vice versa.
// An empty result means the document is consistent. An empty category never
// matches, since segment 0 is always a directory name.
func CheckPath(h *models.Header, relPath string) []*errors.AppError {
	var diags []*errors.AppError
	segments := strings.Split(strings.Trim(relPath, "/"), "/")

	if segments[0] != h.Category {
		diags = append(diags, errors.PathMismatch(relPath, "category", segments[0], h.Category))
	}

	// Segment 1 is a real sub-directory only when a filename follows it
	hasSubDir := len(segments) > 2
	switch {
	case h.SubCategory != "" && !hasSubDir:
		diags = append(diags, errors.PathMismatch(relPath, "sub_category", "(no sub-directory)", h.SubCategory))
	case h.SubCategory != "" && segments[1] != h.SubCategory:
		diags = append(diags, errors.PathMismatch(relPath, "sub_category", segments[1], h.SubCategory))
	case h.SubCategory == "" && hasSubDir:
		diags = append(diags, errors.PathMismatch(relPath, "sub_category", segments[1], "(not declared)"))
	}

	return diags
}
