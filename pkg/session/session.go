// Package session serializes access to one editable project. It owns the
// store and its undo history, persists the project file and tells
// subscribers about every committed change.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ritzau/archmodel/pkg/analysis"
	"github.com/ritzau/archmodel/pkg/compiler"
	"github.com/ritzau/archmodel/pkg/diff"
	"github.com/ritzau/archmodel/pkg/history"
	"github.com/ritzau/archmodel/pkg/idgen"
	"github.com/ritzau/archmodel/pkg/logging"
	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/project"
	"github.com/ritzau/archmodel/pkg/pubsub"
	"github.com/ritzau/archmodel/pkg/store"
	"github.com/ritzau/archmodel/pkg/watcher"
)

// ErrNoProjectFile is returned by Save and Reload when the session has no path
var ErrNoProjectFile = errors.New("session has no project file")

// Options configures a session
type Options struct {
	Path         string // Project file; empty keeps the project in memory only
	Autosave     bool   // Write the project file after every committed change
	HistoryLimit int
	Title        string // Script header title
	Publisher    pubsub.Publisher
	IDs          idgen.Generator
}

// Session is a mutex-guarded editing session. All reads and writes of the
// state tree go through it.
type Session struct {
	mu       sync.Mutex
	hist     *history.History
	opts     Options
	revision int
	saved    int    // Revision last written to or read from the project file
	lastHash string // Content hash of the project file as we last saw it
}

// New creates a session over state. hash is the content hash of the
// project file state was loaded from, if any.
func New(state *model.State, hash string, opts Options) *Session {
	return &Session{
		hist:     history.New(store.New(state, opts.IDs), opts.HistoryLimit),
		opts:     opts,
		lastHash: hash,
	}
}

// Open loads opts.Path, or starts a fresh project if the file does not exist yet
func Open(opts Options) (*Session, error) {
	if opts.Path == "" {
		return New(nil, "", opts), nil
	}

	state, hash, err := project.Load(opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info("project file does not exist yet, starting a new project", "path", opts.Path)
		return New(nil, "", opts), nil
	}
	if err != nil {
		return nil, err
	}

	logging.Info("loaded project", "path", opts.Path, "nodes", len(state.Nodes), "properties", len(state.Properties))
	return New(state, hash, opts), nil
}

// Apply runs fn as one undoable operation. If the state changed, the
// revision moves, subscribers are notified and the project is autosaved.
// Returns whether the state changed.
func (s *Session) Apply(ctx context.Context, op string, fn func(*store.Store)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hist.Do(fn) {
		logging.DebugContext(ctx, "operation left state unchanged", "op", op)
		return false
	}
	s.commit(ctx, op, pubsub.EventChanged)
	return true
}

// View runs fn with the live state. fn must not modify or retain it.
func (s *Session) View(fn func(*model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.hist.Store().State())
}

// Snapshot returns a deep copy of the current state
func (s *Session) Snapshot() *model.State {
	var c *model.State
	s.View(func(st *model.State) { c = st.Clone() })
	return c
}

// Undo steps back one operation
func (s *Session) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hist.Undo() {
		return false
	}
	s.commit(ctx, "undo", pubsub.EventChanged)
	return true
}

// Redo re-applies the last undone operation
func (s *Session) Redo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hist.Redo() {
		return false
	}
	s.commit(ctx, "redo", pubsub.EventChanged)
	return true
}

// Replace swaps in a whole new state as one undoable step. The current
// clipboard is kept.
func (s *Session) Replace(ctx context.Context, state *model.State) bool {
	return s.Apply(ctx, "replace", func(st *store.Store) {
		state.Clipboard = st.State().Clipboard
		st.Replace(state)
	})
}

// Revision counts committed changes since the session started
func (s *Session) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Summary describes the current state for event subscribers
func (s *Session) Summary() pubsub.ProjectSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary()
}

func (s *Session) summary() pubsub.ProjectSummary {
	st := s.hist.Store().State()
	return pubsub.ProjectSummary{
		Name:       st.ProjectName,
		Revision:   s.revision,
		Nodes:      len(st.Nodes),
		Edges:      len(st.Edges),
		Properties: len(st.Properties),
		Lists:      len(st.Lists),
		CanUndo:    s.hist.CanUndo(),
		CanRedo:    s.hist.CanRedo(),
		Dirty:      s.revision != s.saved,
	}
}

// Script compiles the current state. generatedAt is written to the header
// when non-zero.
func (s *Session) Script(generatedAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.hist.Store().State()
	return compiler.CompileState(st, compiler.Options{
		Title:       s.opts.Title,
		ProjectName: st.ProjectName,
		GeneratedAt: generatedAt,
	})
}

// Analysis inspects the current state
func (s *Session) Analysis() analysis.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analysis.Analyze(s.hist.Store().State())
}

// Save writes the project file
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	if s.opts.Path == "" {
		return ErrNoProjectFile
	}
	hash, err := project.Save(s.opts.Path, s.hist.Store().State())
	if err != nil {
		return err
	}
	s.lastHash = hash
	s.saved = s.revision
	logging.DebugContext(ctx, "saved project", "path", s.opts.Path, "revision", s.revision)
	s.publishSummary(pubsub.EventSaved)
	return nil
}

// Reload re-reads the project file if its content differs from what the
// session last wrote or read. The reload is an undoable step. A rewrite that
// only differs in selection or formatting is ignored. Returns whether the
// state was replaced.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	if s.opts.Path == "" {
		return false, ErrNoProjectFile
	}

	data, err := os.ReadFile(s.opts.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", s.opts.Path, err)
	}
	hash := project.Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == s.lastHash {
		logging.Trace("project file unchanged", "path", s.opts.Path)
		return false, nil
	}

	loaded, err := project.Unmarshal(data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", s.opts.Path, err)
	}
	s.lastHash = hash

	changes := diff.Compute(s.hist.Store().State(), loaded)
	if changes.Empty() {
		logging.Debug("project file rewritten without content changes", "path", s.opts.Path)
		return false, nil
	}

	changed := s.hist.Do(func(st *store.Store) {
		loaded.Clipboard = st.State().Clipboard
		st.Replace(loaded)
	})
	if !changed {
		return false, nil
	}

	s.revision++
	s.saved = s.revision
	logging.InfoContext(ctx, "reloaded project file", "path", s.opts.Path, "revision", s.revision, "changes", changes.String())
	s.publishSummary(pubsub.EventReloaded)
	s.publishActivity(pubsub.ActivityEntry{
		Op:       "reload",
		Revision: s.revision,
		Time:     time.Now(),
		Changes:  changes.String(),
	})
	return true, nil
}

// Watch reloads the project whenever the file changes on disk, until ctx
// is done. Bursts of events within quiet are folded into one reload, but
// never delayed past maxWait.
func (s *Session) Watch(ctx context.Context, quiet, maxWait time.Duration) error {
	if s.opts.Path == "" {
		return ErrNoProjectFile
	}

	pw, err := watcher.NewProjectWatcher(s.opts.Path)
	if err != nil {
		return err
	}
	if err := pw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(pw.Events(), quiet, maxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			logging.Debug("project file changed", "path", event.Path, "events", event.Count)
			if _, err := s.Reload(ctx); err != nil {
				logging.Warn("failed to reload project file", "error", err)
			}
		}
	}()
	return nil
}

// commit must be called with mu held after the state changed
func (s *Session) commit(ctx context.Context, op string, eventType string) {
	s.revision++
	logging.DebugContext(ctx, "applied operation", "op", op, "revision", s.revision)

	if s.opts.Autosave && s.opts.Path != "" {
		if err := s.save(ctx); err != nil {
			logging.ErrorContext(ctx, "autosave failed", "path", s.opts.Path, "error", err)
		}
	}

	s.publishSummary(eventType)
	s.publishActivity(pubsub.ActivityEntry{Op: op, Revision: s.revision, Time: time.Now()})
}

// publishSummary must be called with mu held
func (s *Session) publishSummary(eventType string) {
	if s.opts.Publisher == nil {
		return
	}
	if err := pubsub.PublishSummary(s.opts.Publisher, eventType, s.summary()); err != nil {
		logging.Warn("failed to publish project summary", "type", eventType, "error", err)
	}
}

func (s *Session) publishActivity(e pubsub.ActivityEntry) {
	if s.opts.Publisher == nil {
		return
	}
	if err := pubsub.PublishActivity(s.opts.Publisher, e); err != nil {
		logging.Warn("failed to publish activity", "op", e.Op, "error", err)
	}
}
