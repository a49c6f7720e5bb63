package listing

import (
	stderrors "errors"
	"io/fs"
	"path"
	"slices"

	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/renderer"
	"github.com/dpshade/promptlib/internal/storage"
)

// Status is the outcome of synchronizing one overview document
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// SyncResult describes what happened to one directory's overview document
type SyncResult struct {
	Dir     string
	Path    string
	Status  Status
	Entries int
	Err     *errors.AppError
}

// Synchronizer rewrites listing blocks in overview documents
type Synchronizer struct {
	tree     storage.FileTree
	overview string
	markers  Markers
	logger   *zap.Logger
}

// NewSynchronizer creates a synchronizer from the listing configuration
func NewSynchronizer(cfg *config.Config, tree storage.FileTree, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		tree:     tree,
		overview: cfg.OverviewFile,
		markers: Markers{
			Start:   cfg.Listing.StartMarker,
			End:     cfg.Listing.EndMarker,
			Heading: cfg.Listing.Heading,
		},
		logger: logger,
	}
}

// Sync updates the overview document of every directory holding at least one
// valid document. Directories without an overview document are skipped; one
// is never created. Results are in directory order.
func (s *Synchronizer) Sync(docs []*models.Document) []SyncResult {
	groups := make(map[string][]*models.Header)
	for _, doc := range docs {
		if !doc.Valid || doc.Header == nil {
			continue
		}
		dir := path.Dir(doc.RelativePath)
		groups[dir] = append(groups[dir], doc.Header)
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)

	var results []SyncResult
	for _, dir := range dirs {
		overview := path.Join(dir, s.overview)
		if _, err := s.tree.Stat(overview); err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("cannot stat overview document", zap.String("path", overview), zap.Error(err))
			}
			continue
		}
		results = append(results, s.syncOne(dir, overview, groups[dir]))
	}

	return results
}

func (s *Synchronizer) syncOne(dir, overview string, headers []*models.Header) SyncResult {
	result := SyncResult{Dir: dir, Path: overview, Entries: len(headers)}

	data, err := s.tree.ReadFile(overview)
	if err != nil {
		result.Status = StatusFailed
		result.Err = errors.ReadFailure(overview, err)
		return result
	}

	listing, err := renderer.RenderListing(headers)
	if err != nil {
		result.Status = StatusFailed
		result.Err = errors.Wrap(err, errors.ErrCodeInternalError, "could not render listing").WithPath(overview)
		return result
	}

	current := string(data)
	patched, err := Patch(current, listing, s.markers)
	if err != nil {
		s.logger.Warn("listing markers are inconsistent, leaving document untouched",
			zap.String("path", overview), zap.Error(err))
		result.Status = StatusFailed
		result.Err = errors.ListingMarkers(overview, err.Error())
		return result
	}

	if patched == current {
		result.Status = StatusUnchanged
		return result
	}

	if err := s.tree.WriteFile(overview, []byte(patched)); err != nil {
		result.Status = StatusFailed
		result.Err = errors.WriteFailure(overview, err)
		return result
	}

	s.logger.Info("listing updated", zap.String("path", overview), zap.Int("entries", len(headers)))
	result.Status = StatusUpdated
	return result
}
