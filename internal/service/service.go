package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/frontmatter"
	"github.com/dpshade/promptlib/internal/indexer"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/storage"
	"github.com/dpshade/promptlib/internal/validation"
	"github.com/dpshade/promptlib/internal/watcher"
)

// Service provides the library operations used by the CLI and the browser
type Service struct {
	cfg     *config.Config
	storage *storage.Storage
	engine  *indexer.Engine
	codec   codec.Codec
	logger  *zap.Logger

	mu      sync.Mutex
	headers []*models.Header // index cache, nil until loaded
}

// ListFilter narrows ListPrompts. Zero values match everything.
type ListFilter struct {
	Category string
	Tag      string
	Expr     *models.TagExpr
}

// NewService creates a service over the library root named in cfg
func NewService(cfg *config.Config, logger *zap.Logger, opts ...indexer.CollectorOption) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := storage.NewStorage(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &Service{
		cfg:     cfg,
		storage: store,
		engine:  indexer.NewEngine(cfg, store, logger, opts...),
		codec:   codec.NewYAML(),
		logger:  logger,
	}, nil
}

// Config returns the configuration the service was built with
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Root returns the absolute library root
func (s *Service) Root() string {
	return s.storage.GetBaseDir()
}

// GenerateIndex runs the full pipeline: scan, validate, write the index and
// sync the listings
func (s *Service) GenerateIndex(ctx context.Context) (*indexer.Report, error) {
	report, err := s.engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	if report.IndexWritten {
		s.invalidate()
	}
	return report, nil
}

// Validate scans and checks the library without writing anything
func (s *Service) Validate(ctx context.Context) (*indexer.Report, error) {
	return s.engine.Check(ctx)
}

// Watch regenerates the index whenever a prompt document changes, calling
// onRun with each report, until ctx is cancelled
func (s *Service) Watch(ctx context.Context, onRun func(watcher.Batch, *indexer.Report)) error {
	w, err := watcher.New(s.cfg, s.storage, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	for batch := range w.Batches() {
		s.logger.Info("documents changed, regenerating index", zap.Strings("paths", batch.Paths()))
		report, err := s.GenerateIndex(ctx)
		if err != nil {
			return err
		}
		if onRun != nil {
			onRun(batch, report)
		}
	}
	return ctx.Err()
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.headers = nil
	s.mu.Unlock()
}

// LoadIndex returns the headers stored in the index, in index order
func (s *Service) LoadIndex() ([]*models.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.headers != nil {
		return s.headers, nil
	}

	items, err := s.engine.Writer().Read()
	if err != nil {
		return nil, err
	}

	headers := make([]*models.Header, 0, len(items))
	for _, item := range items {
		headers = append(headers, validation.Project(item))
	}
	s.headers = headers
	s.logger.Debug("index loaded", zap.Int("prompts", len(headers)))
	return headers, nil
}

// ListPrompts returns indexed prompts matching filter, in index order
func (s *Service) ListPrompts(filter ListFilter) ([]*models.Header, error) {
	headers, err := s.LoadIndex()
	if err != nil {
		return nil, err
	}

	var out []*models.Header
	for _, h := range headers {
		if filter.Category != "" && !strings.EqualFold(h.Category, filter.Category) {
			continue
		}
		if filter.Tag != "" && !hasTag(h.Tags, filter.Tag) {
			continue
		}
		if !filter.Expr.Match(h.Tags) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// SearchPrompts ranks indexed prompts against query by fuzzy matching their
// title, description, id and tags. An empty query returns every prompt.
func (s *Service) SearchPrompts(query string) ([]*models.Header, error) {
	headers, err := s.LoadIndex()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return headers, nil
	}

	searchStrings := make([]string, 0, len(headers))
	for _, h := range headers {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s %s",
			h.Name,
			h.Summary,
			h.ID,
			strings.Join(h.Tags, " ")))
	}

	matches := fuzzy.Find(query, searchStrings)

	results := make([]*models.Header, 0, len(matches))
	for _, match := range matches {
		results = append(results, headers[match.Index])
	}
	return results, nil
}

// GetPrompt returns an indexed prompt with its body loaded from disk
func (s *Service) GetPrompt(id string) (*models.Document, error) {
	headers, err := s.LoadIndex()
	if err != nil {
		return nil, err
	}

	for _, h := range headers {
		if h.ID != id {
			continue
		}
		data, err := s.storage.ReadFile(h.FilePath)
		if err != nil {
			return nil, errors.ReadFailure(h.FilePath, err)
		}
		raw, body, err := frontmatter.Parse(string(data), s.codec, h.FilePath)
		if err != nil {
			return nil, err
		}
		return &models.Document{
			RelativePath: h.FilePath,
			RawText:      string(data),
			Raw:          raw,
			Body:         body,
			Header:       h,
			Valid:        true,
		}, nil
	}

	return nil, errors.NotFoundError(fmt.Sprintf("prompt %q", id))
}

// GetAllTags returns every tag used in the index, sorted
func (s *Service) GetAllTags() ([]string, error) {
	headers, err := s.LoadIndex()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tags []string
	for _, h := range headers {
		for _, tag := range h.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	slices.Sort(tags)
	return tags, nil
}

func hasTag(tags []string, target string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, target) {
			return true
		}
	}
	return false
}
