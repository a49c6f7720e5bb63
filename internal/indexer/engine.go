package indexer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/listing"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/storage"
	"github.com/dpshade/promptlib/internal/validation"
)

// Phase names a step of a run
type Phase string

const (
	PhaseScanning    Phase = "scanning"
	PhaseGlobalCheck Phase = "global_check"
	PhaseWriting     Phase = "writing"
	PhaseSyncing     Phase = "syncing"
	PhaseDone        Phase = "done"
	PhaseHalted      Phase = "halted"
)

// Report is the outcome of one run
type Report struct {
	RunID string
	// Valid is true when every document and the corpus passed all checks
	Valid       bool
	Phase       Phase
	Diagnostics []*errors.AppError
	Corpus      *models.Corpus
	// Skipped counts files dropped before validation (no or bad header)
	Skipped      int
	IndexWritten bool
	IndexPath    string
	Listings     []listing.SyncResult
	// Duration covers scanning and checking
	Duration time.Duration
}

// Failed reports whether the run halted or hit a fatal error while writing
func (r *Report) Failed() bool {
	if !r.Valid {
		return true
	}
	for _, d := range r.Diagnostics {
		if d.IsFatal() {
			return true
		}
	}
	return false
}

// Messages returns every diagnostic as a human-readable line, in order
func (r *Report) Messages() []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Error())
	}
	return out
}

// Engine runs the full index and listing pipeline over one library
type Engine struct {
	cfg       *config.Config
	tree      storage.FileTree
	collector *Collector
	writer    *IndexWriter
	sync      *listing.Synchronizer
	logger    *zap.Logger
}

// NewEngine wires an engine for cfg over tree
func NewEngine(cfg *config.Config, tree storage.FileTree, logger *zap.Logger, opts ...CollectorOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := codec.NewYAML()
	v := validation.NewValidator(cfg.RequiredFields)

	return &Engine{
		cfg:       cfg,
		tree:      tree,
		collector: NewCollector(cfg, tree, c, v, logger, opts...),
		writer:    NewIndexWriter(tree, c, cfg.IndexPath(), logger),
		sync:      listing.NewSynchronizer(cfg, tree, logger),
		logger:    logger,
	}
}

// Writer exposes the index writer, e.g. to read the current index back
func (e *Engine) Writer() *IndexWriter {
	return e.writer
}

// Run scans, validates and, only when everything passed, rewrites the index
// and the listing blocks. The returned error is non-nil only when ctx is
// cancelled; problems found in the library are reported as diagnostics.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report, err := e.check(ctx)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With(zap.String("run_id", report.RunID))

	if !report.Valid {
		report.Phase = PhaseHalted
		logger.Warn("run halted, index not written",
			zap.Int("documents", len(report.Corpus.Documents)),
			zap.Int("invalid", report.Corpus.Invalid()))
		return report, nil
	}

	report.Phase = PhaseWriting
	valid := report.Corpus.Valid()
	if appErr := e.writer.Write(valid); appErr != nil {
		report.Diagnostics = append(report.Diagnostics, appErr)
		report.Phase = PhaseHalted
		return report, nil
	}
	report.IndexWritten = true

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Phase = PhaseSyncing
	report.Listings = e.sync.Sync(valid)
	for _, res := range report.Listings {
		if res.Err != nil {
			report.Diagnostics = append(report.Diagnostics, res.Err)
		}
	}

	report.Phase = PhaseDone
	logger.Info("run complete",
		zap.Int("indexed", len(valid)),
		zap.Int("listings", len(report.Listings)))
	return report, nil
}

// Check scans and validates without writing anything
func (e *Engine) Check(ctx context.Context) (*Report, error) {
	report, err := e.check(ctx)
	if err != nil {
		return nil, err
	}
	if report.Valid {
		report.Phase = PhaseDone
	} else {
		report.Phase = PhaseHalted
	}
	return report, nil
}

func (e *Engine) check(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:     uuid.New().String(),
		Phase:     PhaseScanning,
		IndexPath: e.writer.Path(),
	}
	logger := e.logger.With(zap.String("run_id", report.RunID))
	logger.Debug("scan started", zap.Strings("prompt_dirs", e.cfg.PromptDirs))

	collected, err := e.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	report.Corpus = collected.Corpus
	report.Skipped = collected.Skipped
	report.Diagnostics = collected.Diagnostics

	report.Phase = PhaseGlobalCheck
	report.Diagnostics = append(report.Diagnostics, CheckUniqueIDs(collected.Corpus)...)
	report.Valid = collected.Valid()

	report.Duration = time.Since(started)
	logger.Debug("scan finished",
		zap.Int("documents", len(report.Corpus.Documents)),
		zap.Int("skipped", report.Skipped),
		zap.Bool("valid", report.Valid),
		zap.Duration("duration", report.Duration))
	return report, nil
}
