package autosave

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/radioforms/internal/canonical"
	"github.com/fieldworks/radioforms/internal/forms"
	"github.com/fieldworks/radioforms/internal/sqlite"
	"github.com/fieldworks/radioforms/pkg/types"
)

// setupEngine creates an initialized storage backend, a form service,
// and a stopped engine over a temp recovery directory.
func setupEngine(t *testing.T) (*Engine, *forms.Service, string) {
	t.Helper()
	b := sqlite.NewBackend(nil)
	dir := t.TempDir()
	require.NoError(t, b.Initialize(context.Background(), filepath.Join(dir, sqlite.DBFileName)))
	t.Cleanup(func() { b.Close() })

	db, err := b.Pool()
	require.NoError(t, err)
	svc := forms.NewService(db)

	recoveryDir := filepath.Join(dir, "recovery")
	return NewEngine(svc, recoveryDir, nil), svc, recoveryDir
}

// startEngine starts the engine and registers a stopping cleanup.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() {
		if e.Running() {
			e.Stop(context.Background())
		}
	})
}

func createForm(t *testing.T, svc *forms.Service) int64 {
	t.Helper()
	id, err := svc.Create(context.Background(), "Fire Emergency Alpha", "ICS-213", []byte(`{"message":"initial"}`))
	require.NoError(t, err)
	return id
}

func TestTrackChange(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	changed, err := e.TrackChange(ctx, id, []byte(`{"a":1}`), 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, e.PendingCount())

	// The sidecar exists and its payload canonicalizes to the body.
	sc, err := readSidecar(sidecarPath(recoveryDir, id))
	require.NoError(t, err)
	assert.Equal(t, id, sc.FormID)
	assert.Equal(t, int64(1), sc.ClientVersion)
	want, err := canonical.JSON([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(sc.Body))
}

func TestTrackChangeIdempotence(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	changed, err := e.TrackChange(ctx, id, []byte(`{"a":1}`), 1)
	require.NoError(t, err)
	require.True(t, changed)

	before, err := os.Stat(sidecarPath(recoveryDir, id))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// Same body again, even with insignificant formatting differences.
	changed, err = e.TrackChange(ctx, id, []byte("{ \"a\": 1 }"), 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, e.PendingCount())

	after, err := os.Stat(sidecarPath(recoveryDir, id))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "no sidecar rewrite for an unchanged body")
}

func TestTrackChangeRequiresRunningEngine(t *testing.T) {
	e, svc, _ := setupEngine(t)
	id := createForm(t, svc)

	_, err := e.TrackChange(context.Background(), id, []byte(`{"a":1}`), 1)
	assert.ErrorIs(t, err, types.ErrNotRunning)
}

func TestTrackChangeRejectsMalformedBody(t *testing.T) {
	e, svc, _ := setupEngine(t)
	startEngine(t, e)
	id := createForm(t, svc)

	_, err := e.TrackChange(context.Background(), id, []byte(`{"a":`), 1)
	assert.Error(t, err)

	var vErr *types.ValidationError
	_, err = e.TrackChange(context.Background(), id, []byte(`null`), 1)
	assert.ErrorAs(t, err, &vErr)

	assert.Zero(t, e.PendingCount())
}

func TestFlushAll(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	_, err := e.TrackChange(ctx, id, []byte(`{"message":"edited"}`), 2)
	require.NoError(t, err)

	saved, err := e.FlushAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, saved)
	assert.Zero(t, e.PendingCount())

	// The database holds the tracked body and the sidecar is gone.
	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"edited"}`, string(form.FormBody))

	_, statErr := os.Stat(sidecarPath(recoveryDir, id))
	assert.True(t, os.IsNotExist(statErr))

	st := e.Status()
	assert.Equal(t, StateSaved, st.State)
	assert.Equal(t, id, st.FormID)
	assert.False(t, st.At.IsZero())
}

func TestStatusStartsIdle(t *testing.T) {
	e, _, _ := setupEngine(t)
	assert.Equal(t, StateIdle, e.Status().State)
	assert.Zero(t, e.PendingCount())
}

func TestMaxPendingBound(t *testing.T) {
	e, svc, _ := setupEngine(t)
	require.NoError(t, e.Configure(types.AutoSaveConfig{
		SaveIntervalSeconds: 600,
		MaxPendingChanges:   2,
		CrashRecovery:       true,
	}))
	startEngine(t, e)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, createForm(t, svc))
	}

	for i, id := range ids {
		changed, err := e.TrackChange(ctx, id, []byte(`{"message":"edit"}`), int64(i+1))
		require.NoError(t, err)
		require.True(t, changed)
	}

	// The third track pushed the set over the bound; the oldest entry
	// was flushed synchronously.
	assert.Equal(t, 2, e.PendingCount())

	form, err := svc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"edit"}`, string(form.FormBody))
}

func TestStartTwiceFails(t *testing.T) {
	e, _, _ := setupEngine(t)
	startEngine(t, e)

	assert.ErrorIs(t, e.Start(context.Background()), types.ErrAlreadyRunning)
}

func TestStopFlushesPending(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	_, err := e.TrackChange(ctx, id, []byte(`{"message":"unsaved"}`), 1)
	require.NoError(t, err)

	require.NoError(t, e.Stop(ctx))
	assert.Zero(t, e.PendingCount())

	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"unsaved"}`, string(form.FormBody))

	_, statErr := os.Stat(sidecarPath(recoveryDir, id))
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, e.Stop(ctx), types.ErrNotRunning)
}

func TestCrashRecovery(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	ctx := context.Background()
	id := createForm(t, svc)

	// Simulate a process killed after a tracked change but before a
	// tick: the sidecar is on disk, nothing reached storage.
	body, err := canonical.JSON([]byte(`{"message":"recovered"}`))
	require.NoError(t, err)
	require.NoError(t, writeSidecar(recoveryDir, sidecar{FormID: id, ClientVersion: 7, Body: body}))

	startEngine(t, e)

	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"recovered"}`, string(form.FormBody))

	_, statErr := os.Stat(sidecarPath(recoveryDir, id))
	assert.True(t, os.IsNotExist(statErr), "replayed sidecar is deleted")
}

func TestRecoveryQuarantinesMalformedSidecars(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	ctx := context.Background()
	id := createForm(t, svc)

	require.NoError(t, os.MkdirAll(recoveryDir, 0o755))
	badPath := filepath.Join(recoveryDir, "9999.json")
	require.NoError(t, os.WriteFile(badPath, []byte("not json"), 0o644))

	body, err := canonical.JSON([]byte(`{"message":"recovered"}`))
	require.NoError(t, err)
	require.NoError(t, writeSidecar(recoveryDir, sidecar{FormID: id, ClientVersion: 1, Body: body}))

	startEngine(t, e)

	// The malformed file was renamed, the sibling still replayed.
	_, statErr := os.Stat(badPath + CorruptSuffix)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(badPath)
	assert.True(t, os.IsNotExist(statErr))

	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"recovered"}`, string(form.FormBody))
}

func TestRecoveryDisabled(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	require.NoError(t, e.Configure(types.AutoSaveConfig{
		SaveIntervalSeconds: 600,
		MaxPendingChanges:   100,
		CrashRecovery:       false,
	}))
	ctx := context.Background()
	id := createForm(t, svc)

	body, err := canonical.JSON([]byte(`{"message":"stale"}`))
	require.NoError(t, err)
	require.NoError(t, writeSidecar(recoveryDir, sidecar{FormID: id, ClientVersion: 1, Body: body}))

	startEngine(t, e)

	// Nothing replayed; the stored body is unchanged.
	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"initial"}`, string(form.FormBody))

	// No sidecar written for tracked changes either.
	changed, err := e.TrackChange(ctx, id, []byte(`{"message":"edited"}`), 2)
	require.NoError(t, err)
	require.True(t, changed)
	_, statErr := os.Stat(sidecarPath(recoveryDir, id))
	assert.NoError(t, statErr, "pre-existing sidecar untouched")

	entries, err := os.ReadDir(recoveryDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConfigureValidates(t *testing.T) {
	e, _, _ := setupEngine(t)
	err := e.Configure(types.AutoSaveConfig{SaveIntervalSeconds: 9, MaxPendingChanges: 100})
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPeriodicTickFlushes(t *testing.T) {
	e, svc, recoveryDir := setupEngine(t)
	e.tickInterval = 20 * time.Millisecond
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	changed, err := e.TrackChange(ctx, id, []byte(`{"message":"tick edit"}`), 1)
	require.NoError(t, err)
	require.True(t, changed)

	// The ticker persists the change without FlushAll or Stop.
	require.Eventually(t, func() bool {
		return e.PendingCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "tick never flushed the tracked change")

	form, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"tick edit"}`, string(form.FormBody))
	assert.Equal(t, StateSaved, e.Status().State)

	_, statErr := os.Stat(sidecarPath(recoveryDir, id))
	assert.True(t, os.IsNotExist(statErr), "sidecar removed after tick flush")
}

func TestTickDroppedWhileFlushInFlight(t *testing.T) {
	e, svc, _ := setupEngine(t)
	e.tickInterval = 20 * time.Millisecond
	startEngine(t, e)
	ctx := context.Background()
	id := createForm(t, svc)

	// Simulate an in-flight flush. Ticks arriving now must be dropped,
	// not queued behind the mutex.
	e.flushMu.Lock()

	changed, err := e.TrackChange(ctx, id, []byte(`{"message":"held edit"}`), 1)
	require.NoError(t, err)
	require.True(t, changed)

	time.Sleep(10 * e.tickInterval)
	assert.Equal(t, 1, e.PendingCount(), "tick flushed while a flush held the mutex")

	e.flushMu.Unlock()

	// With the mutex released the next tick completes the save.
	require.Eventually(t, func() bool {
		return e.PendingCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "no tick flushed after the mutex was released")
}
