// Package watch feeds documents dropped into an inbox directory to the
// segmentation pipeline.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kweidner/metasynth/internal/parser"
	"github.com/kweidner/metasynth/internal/pipeline"
)

// eventBuffer bounds the outgoing event channel.
const eventBuffer = 256

// Operation is the kind of inbox change an Event describes.
type Operation string

const (
	OpCreated  Operation = "created"
	OpModified Operation = "modified"
	OpRemoved  Operation = "removed"
)

// Event is one stable inbox change. Data holds the file content at
// detection time so consumers submit exactly what was hashed; it is
// nil for removals.
type Event struct {
	Path    string // relative to the inbox
	AbsPath string
	Op      Operation
	Data    []byte
}

// Watcher observes an inbox directory tree and emits an Event once a
// supported document's content actually changed. Rapid write bursts
// coalesce through a debounce tick, and rewrites with identical bytes
// are suppressed by content hash.
type Watcher struct {
	inbox    string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string

	events  chan Event
	dropped atomic.Int64
}

// New creates a watcher for the given inbox directory.
func New(inbox string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		inbox:    inbox,
		debounce: debounce,
		watcher:  fsw,
		log:      log,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan Event, eventBuffer),
	}, nil
}

// Events returns the channel of stable inbox changes. It is closed
// when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// DroppedEvents returns how many events were discarded because the
// channel was full.
func (w *Watcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

// Start begins watching. Files already sitting in the inbox are picked
// up through the first debounce tick, so a service restart does not
// lose documents.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.inbox, 0o755); err != nil {
		return err
	}
	if err := w.addWatches(w.inbox); err != nil {
		return err
	}
	w.scanExisting()

	go w.run(ctx)

	w.log.Info("watching inbox", "dir", w.inbox, "debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher. The events channel closes once
// the run loop drains.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatches registers every directory under root, skipping hidden
// ones.
func (w *Watcher) addWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// scanExisting primes the pending set with documents already present,
// so they flow through the same hash and emit path as new arrivals.
func (w *Watcher) scanExisting() {
	filepath.Walk(w.inbox, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !parser.IsSupportedExtension(path) {
			return nil
		}
		w.pendingMu.Lock()
		w.pending[path] = fsnotify.Create
		w.pendingMu.Unlock()
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent folds one raw fsnotify event into the pending set.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !parser.IsSupportedExtension(path) {
		// New directories still need watches so nested drops are seen.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.watchNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()
}

// watchNewDirectory covers directories created (or moved in) after
// Start. The walk catches subdirectories that arrived in one rename.
func (w *Watcher) watchNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.addWatches(path); err != nil {
		w.log.Warn("failed to watch new directory", "path", path, "error", err)
	}
	// Files may have landed before the watch did.
	filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !parser.IsSupportedExtension(p) {
			return nil
		}
		w.pendingMu.Lock()
		w.pending[p] |= fsnotify.Create
		w.pendingMu.Unlock()
		return nil
	})
}

// flushPending hashes the accumulated paths and emits an event for
// each one whose content really changed.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}

		rel, err := filepath.Rel(w.inbox, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		// Presence at flush time decides removal. A file deleted and
		// rewritten within one tick accumulates Remove|Create; the
		// rewrite must still be processed.
		if _, err := os.Stat(path); os.IsNotExist(err) {
			w.forget(rel)
			w.send(Event{Path: rel, AbsPath: path, Op: OpRemoved})
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			w.log.Warn("failed to read inbox file", "path", rel, "error", err)
			continue
		}

		newHash := pipeline.ContentHashHex(data)
		w.hashMu.Lock()
		oldHash, known := w.hashes[rel]
		w.hashes[rel] = newHash
		w.hashMu.Unlock()
		if known && oldHash == newHash {
			continue
		}

		op2 := OpModified
		if op.Has(fsnotify.Create) || !known {
			op2 = OpCreated
		}
		w.send(Event{Path: rel, AbsPath: path, Op: op2, Data: data})
	}
}

func (w *Watcher) forget(rel string) {
	w.hashMu.Lock()
	delete(w.hashes, rel)
	w.hashMu.Unlock()
}

// send delivers an event without blocking the run loop.
func (w *Watcher) send(ev Event) {
	select {
	case w.events <- ev:
		w.log.Info("inbox change", "path", ev.Path, "op", ev.Op)
	default:
		dropped := w.dropped.Add(1)
		w.log.Warn("event channel full, dropping event", "path", ev.Path, "total_dropped", dropped)
	}
}
