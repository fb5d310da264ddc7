// Package syncsvc keeps the remote store and the local fallbacks eventually
// consistent with the in-memory registry without ever blocking a mutation.
package syncsvc

import (
	"context"
	"sync"
	"time"

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
)

// Load sources, in fallback order.
const (
	SourceRemote  = "remote"
	SourceCache   = "cache"
	SourceArchive = "archive"
	SourceDefault = "default"
)

type (
	Remote interface {
		Load(ctx context.Context) (registry.Snapshot, error)
		Save(ctx context.Context, snap registry.Snapshot) error
	}

	Cache interface {
		Read() (registry.Snapshot, error)
		Write(snap registry.Snapshot) error
	}

	// Archive is the optional queryable mirror (Postgres). Prune enforces
	// the archive's own retention window; it runs after every archived push.
	Archive interface {
		Save(ctx context.Context, snap registry.Snapshot) error
		Latest(ctx context.Context) (registry.Snapshot, error)
		Prune(ctx context.Context) error
	}

	// Status is the transient indicator surfaced to clients; sync failures
	// are never blocking errors.
	Status struct {
		Syncing   bool      `json:"syncing"`
		LastPush  time.Time `json:"lastPush,omitempty"`
		LastError string    `json:"lastError,omitempty"`
	}

	// Engine debounces full-snapshot pushes. A single pending slot gets
	// replaced on every change notification, so a burst of edits collapses
	// into one network write carrying the final state.
	Engine struct {
		snapshotFn func() registry.Snapshot
		remote     Remote
		cache      Cache
		archive    Archive // may be nil
		logger     core.Logger
		debounce   time.Duration

		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
		status  Status

		pushing sync.WaitGroup
	}
)

func NewEngine(
	snapshotFn func() registry.Snapshot,
	remote Remote,
	cache Cache,
	archive Archive,
	logger core.Logger,
	debounce time.Duration,
) *Engine {
	return &Engine{
		snapshotFn: snapshotFn,
		remote:     remote,
		cache:      cache,
		archive:    archive,
		logger:     logger,
		debounce:   debounce,
	}
}

// NotifyStateChanged schedules a push, replacing any pending one. Callers
// never wait on the network.
func (e *Engine) NotifyStateChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.status.Syncing = true
	e.timer = time.AfterFunc(e.debounce, func() {
		e.pushing.Add(1)
		defer e.pushing.Done()
		e.push(context.Background())
	})
}

// Flush pushes the current snapshot synchronously, cancelling any pending
// debounced push. Used by the CLI and on shutdown.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	return e.push(ctx)
}

// Stop cancels any pending push and waits for an in-flight one to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.pushing.Wait()
}

// Status reports the transient sync indicator.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// push sends the entire aggregate snapshot; the cache (and archive, when
// wired) is written on every attempt so an offline reload still reflects the
// latest session state. Failures are logged only: the in-memory registry is
// the source of truth for the running session and is never rolled back.
func (e *Engine) push(ctx context.Context) error {
	snap := e.snapshotFn()

	saveErr := e.remote.Save(ctx, snap)
	if saveErr != nil {
		e.logger.Error("sync: pushing snapshot failed", saveErr)
	}

	if err := e.cache.Write(snap); err != nil {
		e.logger.Error("sync: writing local cache failed", err)
	}
	if e.archive != nil {
		if err := e.archive.Save(ctx, snap); err != nil {
			e.logger.Error("sync: archiving snapshot failed", err)
		} else if err = e.archive.Prune(ctx); err != nil {
			e.logger.Warn("sync: pruning snapshot archive failed", err)
		}
	}

	e.mu.Lock()
	e.status.Syncing = false
	if saveErr != nil {
		e.status.LastError = saveErr.Error()
	} else {
		e.status.LastPush = time.Now().UTC()
		e.status.LastError = ""
	}
	e.mu.Unlock()
	return saveErr
}

// Load resolves the startup state: remote first, then the local cache, then
// the archive, then the hardcoded defaults. The returned source tells the
// caller which tier answered (for the non-blocking user notice).
func (e *Engine) Load(ctx context.Context) (registry.Snapshot, string) {
	snap, err := e.remote.Load(ctx)
	if err == nil {
		return snap, SourceRemote
	}
	e.logger.Warn("sync: remote load failed, falling back to local cache", err)

	if snap, err = e.cache.Read(); err == nil {
		return snap, SourceCache
	}
	e.logger.Warn("sync: local cache unavailable", err)

	if e.archive != nil {
		if snap, err = e.archive.Latest(ctx); err == nil {
			return snap, SourceArchive
		}
		e.logger.Warn("sync: snapshot archive unavailable", err)
	}

	return registry.DefaultSnapshot(), SourceDefault
}
