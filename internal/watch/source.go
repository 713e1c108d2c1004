// Package watch re-indexes files as they change on disk. A Source delivers
// raw filesystem events for one project tree; the Coordinator debounces
// them and drives the index maintainer.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// EventOp classifies a filesystem event.
type EventOp int

const (
	// OpChange covers creates and writes: the file should be re-indexed
	// after the debounce window.
	OpChange EventOp = iota
	// OpRemove covers removes and renames: the file's chunks go away
	// immediately.
	OpRemove
)

// Event is one filesystem change inside a watched project.
type Event struct {
	Path string // absolute
	Op   EventOp
}

// Source delivers filesystem events for one project tree.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// SourceFactory opens a Source for root. skipDir prunes directories from
// recursive watching (the scanner's exclusion list).
type SourceFactory func(root string, skipDir func(name string) bool) (Source, error)

// fsSource watches a project tree recursively with fsnotify. Directories
// created after start are added to the watch as their create events arrive.
type fsSource struct {
	watcher *fsnotify.Watcher
	skipDir func(name string) bool
	events  chan Event
	errs    chan error
	done    chan struct{}
}

// NewFSSource watches root and every non-skipped subdirectory.
func NewFSSource(root string, skipDir func(name string) bool) (Source, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeWatchFailed, "failed to create filesystem watcher", err)
	}

	s := &fsSource{
		watcher: w,
		skipDir: skipDir,
		events:  make(chan Event, 64),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	if err := s.addTree(root); err != nil {
		w.Close()
		return nil, err
	}

	go s.run()
	return s, nil
}

func (s *fsSource) Events() <-chan Event { return s.events }
func (s *fsSource) Errors() <-chan error { return s.errs }

func (s *fsSource) Close() error {
	close(s.done)
	return s.watcher.Close()
}

func (s *fsSource) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && s.skipDir != nil && s.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return s.watcher.Add(path)
	})
	if err != nil {
		return semerrors.New(semerrors.ErrCodeWatchFailed, "failed to watch project tree", err)
	}
	return nil
}

func (s *fsSource) run() {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			select {
			case s.errs <- err:
			default:
			}
		}
	}
}

func (s *fsSource) handle(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		// New directories join the watch; their contents surface as
		// separate create events.
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if s.skipDir == nil || !s.skipDir(filepath.Base(ev.Name)) {
				_ = s.addTree(ev.Name)
			}
			return
		}
		s.emit(Event{Path: ev.Name, Op: OpChange})
	case ev.Op.Has(fsnotify.Write):
		s.emit(Event{Path: ev.Name, Op: OpChange})
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		s.emit(Event{Path: ev.Name, Op: OpRemove})
	}
}

func (s *fsSource) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
