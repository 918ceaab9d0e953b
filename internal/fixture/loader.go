package fixture

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// LoaderConfig wires a Loader.
type LoaderConfig struct {
	Lister     Lister
	Source     Source
	Store      *Store
	Classifier Classifier
	Logger     *slog.Logger
}

// Loader populates a Store from a Lister and a Source, signalling completion
// through a Barrier. One Loader runs at most one load at a time.
type Loader struct {
	lister     Lister
	source     Source
	store      *Store
	classifier Classifier
	barrier    *Barrier
	logger     *slog.Logger
	run        uint64
	runID      string
}

// NewLoader creates a Loader. A nil Store gets a fresh one; a nil Logger
// discards output.
func NewLoader(cfg LoaderConfig) *Loader {
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		lister:     cfg.Lister,
		source:     cfg.Source,
		store:      store,
		classifier: cfg.Classifier,
		barrier:    NewBarrier(),
		logger:     logger.With("component", "loader"),
	}
}

// Store returns the store this loader writes to.
func (l *Loader) Store() *Store {
	return l.store
}

// RunID identifies the most recent run in logs.
func (l *Loader) RunID() string {
	return l.runID
}

// SetCompletionCallback resets the barrier for a new run and records cb.
// It must be called before Start and never during an active run.
//
// cb receives nil once every dispatched fixture has been recorded in the
// store, or the first LoadError as soon as any fetch fails. Fetches still in
// flight from an earlier run are discarded: they neither touch the store nor
// count toward the new run.
func (l *Loader) SetCompletionCallback(cb func(error)) {
	l.run = l.barrier.Reset(cb)
}

// Start dispatches one fetch per listed fixture.
//
// Hidden names are skipped. Each fetch is recorded in the store before the
// barrier is released for it, so the callback always observes a complete
// store. After dispatch the initial barrier unit is released, which covers
// an empty list and fetches that completed synchronously.
//
// An error from the Lister is returned and also delivered to the callback.
func (l *Loader) Start(ctx context.Context) error {
	if !l.barrier.Ready() {
		return ErrNotReset
	}
	l.runID = uuid.NewString()
	log := l.logger.With("run_id", l.runID)

	names, err := l.lister.Names(ctx)
	if err != nil {
		l.barrier.Abort(l.run, err)
		return err
	}
	log.Info("fixture load starting", "fixtures", len(names))

	for _, name := range names {
		if l.barrier.Fired() {
			// A synchronous fetch already failed the run.
			break
		}
		kind, ok := l.classifier.Classify(name)
		if !ok {
			log.Debug("skipping hidden fixture", "name", name)
			continue
		}
		l.barrier.Add()
		l.source.Fetch(ctx, name, l.record(log, l.run, kind))
	}

	l.barrier.Seal()
	return nil
}

// record returns the FetchFunc for one fixture dispatched in run.
func (l *Loader) record(log *slog.Logger, run uint64, kind Kind) FetchFunc {
	return func(name string, data []byte, err error) {
		if err != nil {
			log.Error("fixture load failed", "name", name, "error", err)
			l.barrier.Abort(run, &LoadError{Name: name, Err: err})
			return
		}

		commit := func() { l.store.PutAsset(name, data) }
		if kind == KindDocument {
			a, err := parseDocument(name, data)
			if err != nil {
				log.Error("fixture parse failed", "name", name, "error", err)
				l.barrier.Abort(run, &LoadError{Name: name, Err: err})
				return
			}
			commit = func() { l.store.PutArchive(name, a, data) }
		}

		if !l.barrier.Complete(run, commit) {
			log.Debug("discarding fixture from a finished run", "name", name)
			return
		}
		log.Debug("fixture loaded", "name", name, "kind", kind.String(), "bytes", len(data))
	}
}

// Load runs a complete load and blocks until the barrier fires or ctx ends.
func (l *Loader) Load(ctx context.Context) error {
	done := make(chan error, 1)
	l.SetCompletionCallback(func(err error) { done <- err })

	if err := l.Start(ctx); err != nil {
		return err
	}

	select {
	case err := <-done:
		if err == nil {
			docs, assets := l.store.Counts()
			l.logger.Info("fixture load complete", "run_id", l.runID, "documents", docs, "assets", assets)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
