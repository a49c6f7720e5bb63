// Package indexer discovers prompt documents, checks them individually and
// as a corpus, and writes the aggregate index when the corpus is clean.
package indexer

import (
	"context"
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/frontmatter"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/storage"
	"github.com/dpshade/promptlib/internal/validation"
)

// Collector walks the configured prompt directories and builds the corpus
type Collector struct {
	cfg       *config.Config
	tree      storage.FileTree
	codec     codec.Codec
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// CollectResult is the outcome of one scan. Diagnostics holds every problem
// found in discovery order, including those attached to retained documents.
type CollectResult struct {
	Corpus      *models.Corpus
	Diagnostics []*errors.AppError
	Skipped     int
}

// Valid reports whether every retained document is valid and no fatal
// diagnostic was raised during the scan
func (r *CollectResult) Valid() bool {
	if r.Corpus.Invalid() > 0 {
		return false
	}
	for _, d := range r.Diagnostics {
		if d.IsFatal() {
			return false
		}
	}
	return true
}

// CollectorOption customizes a Collector
type CollectorOption func(*Collector)

// WithClock overrides the time source used for last_modified
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

// NewCollector creates a collector over tree using cfg's scan settings
func NewCollector(cfg *config.Config, tree storage.FileTree, c codec.Codec, v *validation.Validator, logger *zap.Logger, opts ...CollectorOption) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	col := &Collector{
		cfg:       cfg,
		tree:      tree,
		codec:     c,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(col)
	}
	return col
}

// slot holds the outcome for one discovered file; doc is nil when skipped
type slot struct {
	doc   *models.Document
	diags []*errors.AppError
}

// Collect scans every prompt directory and checks each document. It only
// returns an error when ctx is cancelled.
func (c *Collector) Collect(ctx context.Context) (*CollectResult, error) {
	result := &CollectResult{Corpus: &models.Corpus{}}

	paths, diags := c.discover()
	result.Diagnostics = append(result.Diagnostics, diags...)

	c.logger.Debug("discovered documents", zap.Int("count", len(paths)))

	slots := make([]slot, len(paths))
	if err := c.process(ctx, paths, slots); err != nil {
		return nil, err
	}

	for _, s := range slots {
		result.Diagnostics = append(result.Diagnostics, s.diags...)
		if s.doc == nil {
			result.Skipped++
			continue
		}
		result.Corpus.Documents = append(result.Corpus.Documents, s.doc)
	}

	return result, nil
}

// discover lists candidate documents in scan order
func (c *Collector) discover() ([]string, []*errors.AppError) {
	var paths []string
	var diags []*errors.AppError

	for _, dir := range c.cfg.PromptDirs {
		info, err := c.tree.Stat(dir)
		if err != nil || !info.IsDir() {
			c.logger.Warn("prompt directory not found, skipping", zap.String("dir", dir))
			diags = append(diags, errors.ScanDirMissing(dir))
			continue
		}

		err = c.tree.Walk(dir, func(rel string, _ fs.FileInfo) error {
			if !strings.HasSuffix(rel, c.cfg.Extension) {
				return nil
			}
			if c.cfg.IsExempt(rel) {
				c.logger.Debug("skipping documentation file", zap.String("path", rel))
				return nil
			}
			paths = append(paths, rel)
			return nil
		})
		if err != nil {
			diags = append(diags, errors.ReadFailure(dir, err))
		}
	}

	return paths, diags
}

// exempt matches the exemption globs against the base name and the full
// root-relative path
// process fills slots in discovery order, serially or on a bounded pool
func (c *Collector) process(ctx context.Context, paths []string, slots []slot) error {
	if c.cfg.Workers <= 1 {
		for i, rel := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = c.processOne(rel)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = c.processOne(rel)
			return nil
		})
	}
	return g.Wait()
}

// processOne parses, annotates and checks a single document
func (c *Collector) processOne(rel string) slot {
	data, err := c.tree.ReadFile(rel)
	if err != nil {
		c.logger.Error("failed to read document", zap.String("path", rel), zap.Error(err))
		return slot{diags: []*errors.AppError{errors.ReadFailure(rel, err)}}
	}

	raw, body, err := frontmatter.Parse(string(data), c.codec, rel)
	if err != nil {
		appErr := errors.GetAppError(err)
		if appErr.Path == "" {
			appErr.Path = rel
		}
		c.logger.Warn("skipping document", zap.String("path", rel), zap.String("code", string(appErr.Code)))
		return slot{diags: []*errors.AppError{appErr}}
	}

	raw.Set("last_modified", c.now().Format(time.RFC3339))
	raw.Set("file_path", rel)

	doc := &models.Document{
		RelativePath: rel,
		RawText:      string(data),
		Raw:          raw,
		Body:         body,
		Valid:        true,
	}

	result := c.validator.Validate(raw, rel)
	diags := result.ToAppErrors()

	header := validation.Project(raw)
	diags = append(diags, CheckPath(header, rel)...)

	if len(diags) > 0 {
		doc.Invalidate(diags...)
		c.logger.Debug("document failed checks", zap.String("path", rel), zap.Int("violations", len(diags)))
	} else {
		doc.Header = header
	}

	return slot{doc: doc, diags: diags}
}
