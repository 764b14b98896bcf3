// Package command is the thin dispatch layer between the host shell and
// the core services. Method names and shapes mirror the external
// command surface; transport is the host's concern.
package command

import (
	"context"

	"github.com/fieldworks/radioforms/internal/autosave"
	"github.com/fieldworks/radioforms/internal/backup"
	"github.com/fieldworks/radioforms/internal/export"
	"github.com/fieldworks/radioforms/internal/forms"
	"github.com/fieldworks/radioforms/pkg/types"
)

// Dispatcher adapts external invocations to the form record service,
// the auto-save engine, the exchange codecs, and the backup manager.
type Dispatcher struct {
	svc     *forms.Service
	engine  *autosave.Engine
	codec   *export.Codec
	backups *backup.Manager
}

// NewDispatcher wires a dispatcher over the given components.
func NewDispatcher(svc *forms.Service, engine *autosave.Engine, codec *export.Codec, backups *backup.Manager) *Dispatcher {
	return &Dispatcher{svc: svc, engine: engine, codec: codec, backups: backups}
}

// SaveForm validates and persists a new draft form, returning its id.
func (d *Dispatcher) SaveForm(ctx context.Context, incidentName, formType string, formData []byte) (int64, error) {
	return d.svc.Create(ctx, incidentName, formType, formData)
}

// GetForm returns the form with the given id, or nil when missing.
func (d *Dispatcher) GetForm(ctx context.Context, id int64) (*types.Form, error) {
	return d.svc.Get(ctx, id)
}

// UpdateForm writes a new body for the form. Missing ids no-op.
func (d *Dispatcher) UpdateForm(ctx context.Context, id int64, formData []byte) error {
	return d.svc.UpdateBody(ctx, id, formData)
}

// UpdateFormStatus moves the form through the status state machine.
func (d *Dispatcher) UpdateFormStatus(ctx context.Context, id int64, newStatus string) error {
	return d.svc.UpdateStatus(ctx, id, newStatus)
}

// SearchForms returns up to 100 forms whose incident name contains the
// substring, newest first. An empty substring lists everything.
func (d *Dispatcher) SearchForms(ctx context.Context, substr string) ([]*types.Form, error) {
	if substr == "" {
		return d.svc.List(ctx, forms.DefaultLimit)
	}
	return d.svc.Search(ctx, substr, forms.DefaultLimit)
}

// GetAllForms returns up to 100 forms, newest first.
func (d *Dispatcher) GetAllForms(ctx context.Context) ([]*types.Form, error) {
	return d.svc.List(ctx, forms.DefaultLimit)
}

// DeleteForm removes a form; true iff a row was removed.
func (d *Dispatcher) DeleteForm(ctx context.Context, id int64) (bool, error) {
	return d.svc.Delete(ctx, id)
}

// GetAvailableTransitions returns the statuses the form may move to.
// Missing ids yield an empty list.
func (d *Dispatcher) GetAvailableTransitions(ctx context.Context, id int64) ([]string, error) {
	form, err := d.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return []string{}, nil
	}
	return types.TransitionsFrom(form.Status), nil
}

// CanEditForm reports whether the form accepts body edits. Missing ids
// are not editable.
func (d *Dispatcher) CanEditForm(ctx context.Context, id int64) (bool, error) {
	form, err := d.svc.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if form == nil {
		return false, nil
	}
	return form.CanEdit(), nil
}

// StartAutoSave starts the background saver, replaying crash-recovery
// sidecars first when enabled.
func (d *Dispatcher) StartAutoSave(ctx context.Context) error {
	return d.engine.Start(ctx)
}

// StopAutoSave stops the background saver after a final flush.
func (d *Dispatcher) StopAutoSave(ctx context.Context) error {
	return d.engine.Stop(ctx)
}

// TrackFormChange records an in-memory edit; true when the body
// differs from the last tracked fingerprint.
func (d *Dispatcher) TrackFormChange(ctx context.Context, id int64, formData []byte, clientVersion int64) (bool, error) {
	return d.engine.TrackChange(ctx, id, formData, clientVersion)
}

// GetAutoSaveStatus returns the last-operation status.
func (d *Dispatcher) GetAutoSaveStatus() autosave.Status {
	return d.engine.Status()
}

// GetPendingChangesCount returns the number of tracked dirty forms.
func (d *Dispatcher) GetPendingChangesCount() int {
	return d.engine.PendingCount()
}

// ForceSaveAllChanges flushes every tracked change now.
func (d *Dispatcher) ForceSaveAllChanges(ctx context.Context) ([]int64, error) {
	return d.engine.FlushAll(ctx)
}

// ConfigureAutoSave replaces the auto-save configuration.
func (d *Dispatcher) ConfigureAutoSave(cfg types.AutoSaveConfig) error {
	return d.engine.Configure(cfg)
}

// ExportFormsJSON serializes all forms inside the metadata envelope.
func (d *Dispatcher) ExportFormsJSON(ctx context.Context) (string, error) {
	return d.codec.ExportAll(ctx)
}

// ExportFormJSON serializes one form without an envelope.
func (d *Dispatcher) ExportFormJSON(ctx context.Context, id int64) (string, error) {
	return d.codec.ExportForm(ctx, id)
}

// ImportFormsJSON inserts the payload's records, skipping duplicates.
// Returns the count imported.
func (d *Dispatcher) ImportFormsJSON(ctx context.Context, payload string) (int, error) {
	return d.codec.Import(ctx, payload)
}

// ExportFormICSDES renders one form as a radio-wire ICS-DES frame.
func (d *Dispatcher) ExportFormICSDES(ctx context.Context, id int64) (string, error) {
	form, err := d.svc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if form == nil {
		return "", types.ErrNotFound
	}
	return export.EncodeICSDES(form)
}

// CreateBackup snapshots the database file to dest.
func (d *Dispatcher) CreateBackup(ctx context.Context, dest string) (string, error) {
	return d.backups.Create(ctx, dest)
}

// RestoreBackup replaces the live database from the backup at src.
// Callers must pause auto-save first; the database must be quiescent.
func (d *Dispatcher) RestoreBackup(src string) (string, error) {
	return d.backups.Restore(src)
}

// ListBackups lists database files in dir with sidecar annotations.
func (d *Dispatcher) ListBackups(dir string) ([]backup.Entry, error) {
	return d.backups.List(dir)
}

// GetBackupInfo returns a backup's parsed sidecar, or size alone.
func (d *Dispatcher) GetBackupInfo(path string) (backup.Info, error) {
	return d.backups.Info(path)
}
