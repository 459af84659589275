// SPDX-License-Identifier: MPL-2.0

// Package watch re-dispatches an operation when files under a path change.
//
// Events are filtered through doublestar ignore and match patterns, coalesced
// over a debounce window, and handed to a Handler once per window. A run that
// is still in progress when the next window closes is never overlapped: the
// window is retried after another debounce period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce applies when Options.Debounce is zero or negative.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are always excluded: VCS metadata, Python bytecode and tool
// caches, the virtual environment, and editor or OS noise.
var defaultIgnores = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/.pytest_cache/**",
	"**/.mypy_cache/**",
	"venv/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Handler is invoked once per debounce window with the changed paths,
	// relative to the watched base directory and sorted. On the initial run
	// requested by Options.RunOnStart, changed is nil.
	Handler func(ctx context.Context, changed []string) error

	// Options holds the parameters for a Watcher.
	Options struct {
		// BaseDir is the directory tree to watch. Empty means the working directory.
		BaseDir string

		// Patterns are doublestar globs relative to BaseDir that select which
		// files trigger the handler. Empty matches every non-ignored file.
		Patterns []string

		// Ignore are extra doublestar globs merged with the default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the handler runs.
		Debounce time.Duration

		// RunOnStart invokes the handler once before waiting for changes.
		RunOnStart bool

		// ClearScreen writes an ANSI clear sequence to Stdout before each run.
		ClearScreen bool

		// Stdout receives the clear sequence. nil means os.Stdout.
		Stdout io.Writer

		// Logger receives watcher diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree and runs a Handler when matching
	// files change. Run must be called exactly once.
	Watcher struct {
		opts     Options
		handler  Handler
		fsw      *fsnotify.Watcher
		ignores  []string
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool

		runs    atomic.Int64
		skipped atomic.Int64
	}
)

// Target derives the watched directory and match patterns for a dispatch.
// With no path the whole root is watched. A directory path is watched
// recursively, and a file path watches only that file.
func Target(root, path string) (baseDir string, patterns []string, err error) {
	if path == "" {
		return root, nil, nil
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, fmt.Errorf("watch: stat %q: %w", path, err)
	}
	if info.IsDir() {
		return abs, nil, nil
	}

	return filepath.Dir(abs), []string{escapeMeta(filepath.Base(abs))}, nil
}

// escapeMeta backslash-escapes the doublestar metacharacters in name so the
// pattern matches only that literal file name.
func escapeMeta(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// New creates a Watcher and registers every non-ignored directory under
// BaseDir with fsnotify.
func New(opts Options, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	// Invalid globs fail here rather than silently never matching.
	if err := validatePatterns(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		opts:     opts,
		handler:  handler,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, opts.Ignore),
		stdout:   stdout,
		logger:   logger,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// BaseDir returns the absolute watched directory.
func (w *Watcher) BaseDir() string {
	return w.baseDir
}

// Runs returns how many times the handler has been invoked.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

// Skipped returns how many debounce windows closed while a run was in progress.
func (w *Watcher) Skipped() int64 {
	return w.skipped.Load()
}

// Run blocks until ctx is cancelled, dispatching debounced handler runs.
// It returns nil on cancellation and an error when fsnotify fails fatally.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may be scheduled by time.AfterFunc after ctx is cancelled, so it
	// re-checks ctx before running.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.skipped.Add(1)
			w.logger.Debug("previous run still in progress, retrying after debounce")
			// Retry so the pending set is not lost when no further events arrive.
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		clear(pending)
		mu.Unlock()

		slices.Sort(changed)
		w.invoke(ctx, changed)
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify watcher", "err", closeErr)
		}
	}()

	if w.opts.RunOnStart {
		running.Store(true)
		go func() {
			defer running.Store(false)
			w.invoke(ctx, nil)
		}()
	}

	w.logger.Info("watching for changes", "dir", w.baseDir, "patterns", w.opts.Patterns)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}

			// New directories are added so the watch stays recursive.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if !w.matchesPatterns(rel) {
				continue
			}

			w.logger.Debug("change detected", "path", rel, "op", evt.Op.String())

			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// isFatalFsnotifyError reports errors after which the backend delivers no
// further events.
func isFatalFsnotifyError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && slices.Contains(fatalErrnos, errno)
}

func (w *Watcher) invoke(ctx context.Context, changed []string) {
	if w.opts.ClearScreen {
		// Clear screen and move the cursor home.
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}

	w.runs.Add(1)
	if err := w.handler(ctx, changed); err != nil {
		// A failing run is expected while editing; keep watching.
		w.logger.Warn("run failed", "err", err)
	}
}

// addDirectories walks BaseDir and registers every non-ignored directory.
// Pattern filtering happens per event.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Unreadable directories are skipped, not fatal.
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && w.isIgnoredDir(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir registers a directory created after the initial walk.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnoredDir(rel) {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("add new directory", "path", path, "err", addErr)
	}
}

// isIgnoredDir also tries rel with a trailing "/x" so that "venv/**" prunes
// the venv directory itself.
func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(filepath.Join(rel, "x"))
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns is true for every path when no patterns are configured.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.opts.Patterns) == 0 {
		return true
	}
	return matchAny(w.opts.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks every pattern is a valid doublestar glob.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
