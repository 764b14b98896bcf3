// Package autosave implements the background change tracker: it
// fingerprints tracked form bodies, mirrors unsaved edits to recovery
// sidecars on disk, and flushes dirty forms to storage on a periodic
// tick. A crash loses at most the work since the last sidecar write.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fieldworks/radioforms/internal/canonical"
	"github.com/fieldworks/radioforms/internal/forms"
	"github.com/fieldworks/radioforms/internal/validation"
	"github.com/fieldworks/radioforms/pkg/types"
)

// entry is the in-memory tracking state for one dirty form.
type entry struct {
	fingerprint     string
	body            []byte // canonical rendering of the latest tracked body
	clientVersion   int64
	earliestUnsaved time.Time
}

// Engine tracks per-form content fingerprints and persists dirty forms
// within a bounded interval. One mutex guards the tracking table and
// the recovery directory; fingerprint comparison and the sidecar write
// form a single critical section.
type Engine struct {
	svc         *forms.Service
	recoveryDir string
	logger      *slog.Logger

	mu      sync.Mutex // guards tracked, cfg, running, last
	tracked map[int64]*entry
	cfg     types.AutoSaveConfig
	running bool
	last    Status

	flushMu sync.Mutex // serializes flush passes; ticks drop instead of queueing
	stop    chan struct{}
	done    chan struct{}

	// tickInterval overrides the configured flush interval when set.
	// Tests use it to drive the ticker below the configuration minimum.
	tickInterval time.Duration
}

// NewEngine creates a stopped engine with the default configuration.
func NewEngine(svc *forms.Service, recoveryDir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		svc:         svc,
		recoveryDir: recoveryDir,
		logger:      logger,
		tracked:     make(map[int64]*entry),
		cfg:         types.DefaultAutoSaveConfig(),
		last:        Status{State: StateIdle},
	}
}

// Configure replaces the engine configuration after validating it.
// The flush interval of a running engine takes effect on the next
// Start; the pending bound applies immediately.
func (e *Engine) Configure(cfg types.AutoSaveConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	return nil
}

// Config returns the current configuration.
func (e *Engine) Config() types.AutoSaveConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Start replays recovery sidecars when enabled and spawns the periodic
// flusher. Returns types.ErrAlreadyRunning if a previous instance is
// still running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return types.ErrAlreadyRunning
	}
	cfg := e.cfg
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.mu.Unlock()

	if cfg.CrashRecovery {
		if err := e.recoverSidecars(ctx); err != nil {
			e.logger.Warn("crash recovery incomplete", "error", err)
		}
	}

	interval := cfg.SaveInterval()
	if e.tickInterval > 0 {
		interval = e.tickInterval
	}
	go e.run(interval)
	e.logger.Info("auto-save engine started", "interval_seconds", cfg.SaveIntervalSeconds)
	return nil
}

// Stop cancels the periodic flusher and synchronously flushes all
// pending changes before returning. Unflushed work, if any flush
// fails, remains recoverable through the sidecars.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return types.ErrNotRunning
	}
	e.running = false
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	<-done

	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	e.flushTracked(ctx)
	e.logger.Info("auto-save engine stopped")
	return nil
}

// Running reports whether the periodic flusher is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// TrackChange records the latest in-memory body for a form. Returns
// true when the body differs from the last tracked fingerprint; the
// recovery sidecar is then atomically replaced before returning. A
// matching fingerprint leaves all state untouched and returns false.
func (e *Engine) TrackChange(ctx context.Context, formID int64, body []byte, clientVersion int64) (bool, error) {
	if err := validation.FormBody(body); err != nil {
		return false, err
	}
	canon, err := canonical.JSON(body)
	if err != nil {
		return false, fmt.Errorf("canonicalizing form %d body: %w", formID, err)
	}
	fp, err := canonical.Fingerprint(canon)
	if err != nil {
		return false, fmt.Errorf("fingerprinting form %d body: %w", formID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return false, types.ErrNotRunning
	}

	prior, tracked := e.tracked[formID]
	if tracked && prior.fingerprint == fp {
		return false, nil
	}

	if e.cfg.CrashRecovery {
		sc := sidecar{FormID: formID, ClientVersion: clientVersion, Body: canon}
		if err := writeSidecar(e.recoveryDir, sc); err != nil {
			return false, fmt.Errorf("writing recovery sidecar: %w", err)
		}
	}

	earliest := time.Now().UTC()
	if tracked {
		earliest = prior.earliestUnsaved
	}
	e.tracked[formID] = &entry{
		fingerprint:     fp,
		body:            canon,
		clientVersion:   clientVersion,
		earliestUnsaved: earliest,
	}

	// Keep the pending set within bound by flushing oldest entries
	// first. New tracking is never dropped.
	for len(e.tracked) > e.cfg.MaxPendingChanges {
		if !e.flushOldestLocked(ctx) {
			break
		}
	}

	return true, nil
}

// FlushAll persists every tracked entry and returns the ids saved.
// Failed entries stay tracked, keep their sidecars, and surface the
// failure through Status; they are retried on the next tick.
func (e *Engine) FlushAll(ctx context.Context) ([]int64, error) {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return nil, types.ErrNotRunning
	}

	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	return e.flushTracked(ctx), nil
}

// Status returns the last-operation status for UI feedback.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// PendingCount returns the number of tracked dirty forms.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracked)
}

// run is the periodic flusher. Ticks are non-reentrant: a tick that
// arrives while a flush is in flight is dropped, not queued.
func (e *Engine) run(interval time.Duration) {
	defer close(e.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if !e.flushMu.TryLock() {
				continue
			}
			e.flushTracked(context.Background())
			e.flushMu.Unlock()
		}
	}
}

// flushTracked persists all tracked entries oldest first. The caller
// must hold flushMu.
func (e *Engine) flushTracked(ctx context.Context) []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var saved []int64
	for _, id := range e.oldestFirstLocked() {
		if e.flushEntryLocked(ctx, id) {
			saved = append(saved, id)
		}
	}
	return saved
}

// flushOldestLocked flushes the single oldest entry. The caller must
// hold mu. Returns false when nothing could be flushed.
func (e *Engine) flushOldestLocked(ctx context.Context) bool {
	ids := e.oldestFirstLocked()
	if len(ids) == 0 {
		return false
	}
	return e.flushEntryLocked(ctx, ids[0])
}

// oldestFirstLocked returns tracked ids ordered by earliest-unsaved
// timestamp, then id for determinism. The caller must hold mu.
func (e *Engine) oldestFirstLocked() []int64 {
	ids := make([]int64, 0, len(e.tracked))
	for id := range e.tracked {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := e.tracked[ids[j-1]], e.tracked[ids[j]]
			if a.earliestUnsaved.Before(b.earliestUnsaved) ||
				(a.earliestUnsaved.Equal(b.earliestUnsaved) && ids[j-1] < ids[j]) {
				break
			}
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// flushEntryLocked persists one tracked entry. On success the sidecar
// is deleted and the entry removed; on failure both are kept and the
// error lands in the last-operation status. The caller must hold mu.
func (e *Engine) flushEntryLocked(ctx context.Context, formID int64) bool {
	ent := e.tracked[formID]
	e.last = Status{State: StateSaving, FormID: formID}

	if err := e.svc.UpdateBody(ctx, formID, ent.body); err != nil {
		e.last = Status{State: StateFailed, FormID: formID, Reason: err.Error()}
		e.logger.Warn("auto-save flush failed", "form_id", formID, "error", err)
		return false
	}

	if err := removeSidecar(e.recoveryDir, formID); err != nil {
		e.logger.Warn("removing recovery sidecar failed", "form_id", formID, "error", err)
	}
	delete(e.tracked, formID)
	e.last = Status{State: StateSaved, FormID: formID, At: time.Now().UTC()}
	return true
}

// recoverSidecars replays recovery sidecars left by an unclean
// shutdown: each parsed sidecar's body is written to storage and the
// file deleted. Malformed sidecars are quarantined with the corrupt
// suffix and never abort recovery of sibling files.
func (e *Engine) recoverSidecars(ctx context.Context) error {
	entries, err := os.ReadDir(e.recoveryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading recovery directory: %w", err)
	}

	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		path := filepath.Join(e.recoveryDir, de.Name())

		sc, err := readSidecar(path)
		if err != nil || sc.FormID == 0 {
			e.logger.Warn("quarantining malformed sidecar", "path", path)
			if qErr := quarantine(path); qErr != nil {
				e.logger.Warn("quarantine failed", "path", path, "error", qErr)
			}
			continue
		}

		if err := e.svc.UpdateBody(ctx, sc.FormID, sc.Body); err != nil {
			var vErr *types.ValidationError
			if errors.As(err, &vErr) {
				e.logger.Warn("quarantining sidecar with invalid body", "path", path)
				if qErr := quarantine(path); qErr != nil {
					e.logger.Warn("quarantine failed", "path", path, "error", qErr)
				}
				continue
			}
			// Storage errors leave the sidecar for the next start.
			e.logger.Warn("sidecar replay failed", "form_id", sc.FormID, "error", err)
			continue
		}

		if err := os.Remove(path); err != nil {
			e.logger.Warn("removing replayed sidecar failed", "path", path, "error", err)
			continue
		}
		e.logger.Info("recovered unsaved form body", "form_id", sc.FormID, "client_version", sc.ClientVersion)
	}
	return nil
}
