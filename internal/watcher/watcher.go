// Package watcher reports debounced changes to prompt documents so the
// library can be re-indexed while it is being edited.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/storage"
)

const eventChannelBuffer = 16

// Op is the kind of change seen for a document
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Change is one changed document, root-relative
type Change struct {
	Path string
	Op   Op
}

// Batch groups the changes seen during one debounce window, sorted by path
type Batch struct {
	Changes []Change
}

// Paths returns the changed paths
func (b Batch) Paths() []string {
	out := make([]string, 0, len(b.Changes))
	for _, c := range b.Changes {
		out = append(out, c.Path)
	}
	return out
}

// Watcher watches the prompt directories of a library
type Watcher struct {
	cfg     *config.Config
	store   *storage.Storage
	fsw     *fsnotify.Watcher
	logger  *zap.Logger
	batches chan Batch

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// content hashes of known documents; writes that leave content
	// unchanged are not reported
	hashMu sync.Mutex
	hashes map[string]string
}

// New creates a watcher for the library held by store
func New(cfg *config.Config, store *storage.Storage, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		store:   store,
		fsw:     fsw,
		logger:  logger,
		batches: make(chan Batch, eventChannelBuffer),
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
	}, nil
}

// Batches returns the channel of debounced change batches. It is closed
// when the watcher stops.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Start records the current content of every document, adds watches to the
// existing prompt directories and begins processing events
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.cfg.PromptDirs {
		info, err := w.store.Stat(dir)
		if err != nil || !info.IsDir() {
			w.logger.Warn("prompt directory not found, not watching", zap.String("dir", dir))
			continue
		}
		if err := w.addWatchesRecursive(w.store.Abs(dir)); err != nil {
			return err
		}
		w.seedHashes(dir)
	}

	go w.processEvents(ctx)

	w.logger.Info("watching prompt directories",
		zap.Strings("dirs", w.cfg.PromptDirs),
		zap.Duration("debounce", w.cfg.DebounceDelay()))
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) seedHashes(dir string) {
	_ = w.store.Walk(dir, func(rel string, _ fs.FileInfo) error {
		if !w.relevant(rel) {
			return nil
		}
		if data, err := w.store.ReadFile(rel); err == nil {
			w.setHash(rel, storage.ContentHash(data))
		}
		return nil
	})
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", p), zap.Error(err))
		}
		return nil
	})
}

// relevant reports whether a change to rel can affect the index. Overview
// documents are rewritten by the listing sync and never count, and neither
// do files the collector exempts.
func (w *Watcher) relevant(rel string) bool {
	base := path.Base(rel)
	if base == w.cfg.OverviewFile || strings.HasPrefix(base, ".") || w.cfg.IsExempt(rel) {
		return false
	}
	return strings.HasSuffix(rel, w.cfg.Extension)
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.batches)

	debounce := w.cfg.DebounceDelay()
	timer := newStoppedTimer()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			w.flushPending(ctx)
		}
	}
}

// handleEvent records a pending change and reports whether one was recorded
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return false
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	rel, err := w.store.Rel(event.Name)
	if err != nil || !w.relevant(rel) {
		return false
	}

	w.pendingMu.Lock()
	w.pending[rel] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("document change detected", zap.String("path", rel), zap.String("op", event.Op.String()))
	return true
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var batch Batch
	for rel := range toProcess {
		if change, ok := w.classify(rel); ok {
			batch.Changes = append(batch.Changes, change)
		}
	}
	if len(batch.Changes) == 0 {
		return
	}
	slices.SortFunc(batch.Changes, func(a, b Change) int {
		return strings.Compare(a.Path, b.Path)
	})

	select {
	case w.batches <- batch:
	case <-ctx.Done():
	}
}

// classify compares the file on disk with its last known hash
func (w *Watcher) classify(rel string) (Change, bool) {
	data, err := w.store.ReadFile(rel)
	if err != nil {
		if _, known := w.hash(rel); !known {
			return Change{}, false
		}
		w.deleteHash(rel)
		return Change{Path: rel, Op: OpDelete}, true
	}

	newHash := storage.ContentHash(data)
	oldHash, known := w.hash(rel)
	if known && oldHash == newHash {
		return Change{}, false
	}
	w.setHash(rel, newHash)

	if known {
		return Change{Path: rel, Op: OpModify}, true
	}
	return Change{Path: rel, Op: OpCreate}, true
}

// newStoppedTimer returns a timer that fires only after a Reset
func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (w *Watcher) hash(rel string) (string, bool) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	h, ok := w.hashes[rel]
	return h, ok
}

func (w *Watcher) setHash(rel, h string) {
	w.hashMu.Lock()
	w.hashes[rel] = h
	w.hashMu.Unlock()
}

func (w *Watcher) deleteHash(rel string) {
	w.hashMu.Lock()
	delete(w.hashes, rel)
	w.hashMu.Unlock()
}
