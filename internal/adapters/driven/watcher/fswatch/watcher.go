// Package fswatch reports file changes under a directory using fsnotify,
// filtered by doublestar glob patterns.
package fswatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce is how long events for one path are coalesced.
const DefaultDebounce = 500 * time.Millisecond

// DefaultInclude matches every supported document format at any depth.
func DefaultInclude() []string {
	return []string{"**/*.pdf", "**/*.docx", "**/*.html", "**/*.htm", "**/*.md", "**/*.txt"}
}

// Config configures a Watcher.
type Config struct {
	// Root is the directory to watch.
	Root string

	// Include lists glob patterns, relative to Root, of files to report.
	// Empty means DefaultInclude.
	Include []string

	// Exclude lists glob patterns of files to skip. Hidden files and
	// directories are always skipped.
	Exclude []string

	// Debounce coalesces bursts of events per path. Zero means DefaultDebounce.
	Debounce time.Duration
}

// Watcher reports matching files under a root directory.
type Watcher struct {
	root     string
	include  []string
	exclude  []string
	debounce time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	started bool
}

// New creates a watcher. The root must be an existing directory.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: watch root is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	include := cfg.Include
	if len(include) == 0 {
		include = DefaultInclude()
	}
	for _, p := range append(append([]string{}, include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad glob pattern %q", domain.ErrInvalidInput, p)
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:     root,
		include:  include,
		exclude:  cfg.Exclude,
		debounce: debounce,
	}, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan lists matching files under the root, sorted.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch starts watching the root and every non-hidden subdirectory.
// Only one Watch may run per Watcher.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil, errors.New("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw
	w.started = true

	changes := make(chan domain.FileChange, 64)
	go w.loop(ctx, fsw, changes)
	return changes, nil
}

// Close stops a running watch.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	w.fsw = nil
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)

	pending := newPending()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	emit := func(changes []domain.FileChange) bool {
		for _, c := range changes {
			select {
			case out <- c:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				emit(pending.drain(time.Time{}))
				return
			}
			if event.Has(fsnotify.Create) {
				w.watchNewDir(fsw, event.Name, pending)
			}
			if change, ok := w.handleEvent(event); ok {
				pending.add(change, time.Now())
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", w.root, err)

		case now := <-ticker.C:
			if !emit(pending.drain(now.Add(-w.debounce))) {
				return
			}
		}
	}
}

// handleEvent maps an fsnotify event on a matching file to a change.
// Chmod-only events, directories and non-matching paths are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (domain.FileChange, bool) {
	if !w.matches(event.Name) {
		return domain.FileChange{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return domain.FileChange{}, false
		}
		typ := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			typ = domain.ChangeCreated
		}
		return domain.FileChange{Type: typ, Path: event.Name}, true
	default:
		return domain.FileChange{}, false
	}
}

// watchNewDir adds a directory created after Watch started and reports
// the files already inside it.
func (w *Watcher) watchNewDir(fsw *fsnotify.Watcher, path string, pending *pendingChanges) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || isHidden(filepath.Base(path)) {
		return
	}
	if err := w.addTree(fsw, path); err != nil {
		logger.Warn("watch %s: %v", path, err)
		return
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != path && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(p) {
			pending.add(domain.FileChange{Type: domain.ChangeCreated, Path: p}, time.Now())
		}
		return nil
	})
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// matches applies the hidden-file rule and the include/exclude globs to
// the path relative to the root.
func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if isHidden(part) {
			return false
		}
	}
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range w.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// pendingChanges coalesces changes per path until they have been quiet
// for the debounce window.
type pendingChanges struct {
	byPath map[string]pendingChange
}

type pendingChange struct {
	change domain.FileChange
	last   time.Time
}

func newPending() *pendingChanges {
	return &pendingChanges{byPath: make(map[string]pendingChange)}
}

// add merges a change into any pending one for the same path. A create
// stays a create through later writes; a delete followed by a create is
// an update.
func (p *pendingChanges) add(c domain.FileChange, at time.Time) {
	prev, ok := p.byPath[c.Path]
	if ok {
		switch {
		case prev.change.Type == domain.ChangeCreated && c.Type == domain.ChangeUpdated:
			c.Type = domain.ChangeCreated
		case prev.change.Type == domain.ChangeDeleted && c.Type == domain.ChangeCreated:
			c.Type = domain.ChangeUpdated
		}
	}
	p.byPath[c.Path] = pendingChange{change: c, last: at}
}

// drain removes and returns changes last touched at or before cutoff, in
// path order. A zero cutoff drains everything.
func (p *pendingChanges) drain(cutoff time.Time) []domain.FileChange {
	var ready []domain.FileChange
	for path, pc := range p.byPath {
		if cutoff.IsZero() || !pc.last.After(cutoff) {
			ready = append(ready, pc.change)
			delete(p.byPath, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	return ready
}
