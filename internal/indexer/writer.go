package indexer

import (
	"path"

	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/storage"
)

// IndexWriter serializes valid headers to the index artifact
type IndexWriter struct {
	tree   storage.FileTree
	codec  codec.Codec
	path   string
	logger *zap.Logger
}

// NewIndexWriter creates a writer targeting the root-relative indexPath
func NewIndexWriter(tree storage.FileTree, c codec.Codec, indexPath string, logger *zap.Logger) *IndexWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexWriter{tree: tree, codec: c, path: indexPath, logger: logger}
}

// Path returns the root-relative location of the index
func (w *IndexWriter) Path() string {
	return w.path
}

// Write replaces the index with the raw headers of docs, in order
func (w *IndexWriter) Write(docs []*models.Document) *errors.AppError {
	items := make([]*models.Mapping, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Raw)
	}

	data, err := w.codec.EncodeList(items)
	if err != nil {
		return errors.WriteFailure(w.path, err)
	}

	if dir := path.Dir(w.path); dir != "." {
		if err := w.tree.MkdirAll(dir); err != nil {
			w.logger.Error("failed to create index directory", zap.String("dir", dir), zap.Error(err))
			return errors.WriteFailure(w.path, err)
		}
	}

	if err := w.tree.WriteFile(w.path, data); err != nil {
		w.logger.Error("failed to write index", zap.String("path", w.path), zap.Error(err))
		return errors.WriteFailure(w.path, err)
	}

	w.logger.Info("index written", zap.String("path", w.path), zap.Int("prompts", len(items)))
	return nil
}

// Read loads the headers stored in the index
func (w *IndexWriter) Read() ([]*models.Mapping, error) {
	data, err := w.tree.ReadFile(w.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIndexNotFound, "index has not been generated").WithPath(w.path)
	}
	items, err := w.codec.DecodeList(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReadFailure, "index could not be parsed").WithPath(w.path)
	}
	return items, nil
}
