package indexer

import (
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// CheckUniqueIDs enforces corpus-wide id uniqueness. The first document in
// discovery order claims an id; every later holder is reported and marked
// invalid. A document without an id is a violation as well.
func CheckUniqueIDs(corpus *models.Corpus) []*errors.AppError {
	var diags []*errors.AppError
	claimed := make(map[string]*models.Document, len(corpus.Documents))

	for _, doc := range corpus.Documents {
		id, ok := doc.ID()
		if !ok {
			// an absent id is already reported by the schema validator
			if doc.Valid {
				d := errors.SchemaViolation(doc.RelativePath, "id", "Field 'id' has no value")
				doc.Invalidate(d)
				diags = append(diags, d)
			}
			continue
		}

		first, exists := claimed[id]
		if !exists {
			claimed[id] = doc
			continue
		}

		d := errors.DuplicateID(doc.RelativePath, id, first.RelativePath)
		doc.Invalidate(d)
		diags = append(diags, d)
	}

	return diags
}
