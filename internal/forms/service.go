// Package forms implements the form record service: CRUD over the forms
// table with per-call validation and status-transition rules.
package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fieldworks/radioforms/internal/validation"
	"github.com/fieldworks/radioforms/pkg/types"
)

// DefaultLimit caps list and search results.
const DefaultLimit = 100

// Service provides typed access to the forms table. All methods are
// safe for use from the command surface and the auto-save flusher; the
// storage engine serializes writes.
type Service struct {
	db *sql.DB
}

// NewService returns a Service bound to the given connection pool.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create validates all three inputs and inserts a new draft form.
// Returns the store-assigned id.
func (s *Service) Create(ctx context.Context, incidentName, formType string, body []byte) (int64, error) {
	if err := validation.Form(incidentName, formType, body); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO forms (incident_name, form_type, status, form_body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		strings.TrimSpace(incidentName), formType, types.StatusDraft, string(body), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting form: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}

// Get returns the form with the given id, or (nil, nil) when no such
// row exists. A missing form is not an error.
func (s *Service) Get(ctx context.Context, id int64) (*types.Form, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, incident_name, form_type, status, form_body, created_at, updated_at FROM forms WHERE id = ?",
		id,
	)
	form, err := scanForm(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting form %d: %w", id, err)
	}
	return form, nil
}

// UpdateBody validates the body's JSON shape and writes form_body and
// updated_at. Silently succeeds when the id does not exist; callers use
// Get to confirm presence.
func (s *Service) UpdateBody(ctx context.Context, id int64, body []byte) error {
	if err := validation.FormBody(body); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		"UPDATE forms SET form_body = ?, updated_at = ? WHERE id = ?",
		string(body), now, id,
	)
	if err != nil {
		return fmt.Errorf("updating form %d body: %w", id, err)
	}
	return nil
}

// UpdateStatus moves the form to a new status, enforcing the state
// machine. Returns types.ErrNotFound for a missing id and a
// *types.TransitionError for a rejected transition.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus string) error {
	if !types.ValidStatus(newStatus) {
		return &types.ValidationError{Field: "status", Msg: "unknown status value"}
	}

	var current string
	err := s.db.QueryRowContext(ctx, "SELECT status FROM forms WHERE id = ?", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.ErrNotFound
		}
		return fmt.Errorf("reading form %d status: %w", id, err)
	}

	if !types.CanTransition(current, newStatus) {
		return &types.TransitionError{From: current, To: newStatus}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		"UPDATE forms SET status = ?, updated_at = ? WHERE id = ?",
		newStatus, now, id,
	); err != nil {
		return fmt.Errorf("updating form %d status: %w", id, err)
	}
	return nil
}

// List returns forms newest first. Sub-second created_at collisions are
// broken by id descending. A non-positive or over-cap limit falls back
// to DefaultLimit.
func (s *Service) List(ctx context.Context, limit int) ([]*types.Form, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, incident_name, form_type, status, form_body, created_at, updated_at FROM forms ORDER BY created_at DESC, id DESC LIMIT ?",
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing forms: %w", err)
	}
	defer rows.Close()
	return collectForms(rows)
}

// Search returns forms whose incident name contains the given substring,
// case-insensitively, newest first.
func (s *Service) Search(ctx context.Context, substr string, limit int) ([]*types.Form, error) {
	pattern := "%" + escapeLike(substr) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, incident_name, form_type, status, form_body, created_at, updated_at FROM forms WHERE incident_name LIKE ? ESCAPE '\' ORDER BY created_at DESC, id DESC LIMIT ?`,
		pattern, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("searching forms: %w", err)
	}
	defer rows.Close()
	return collectForms(rows)
}

// All returns every persisted form newest first, with no limit. Used by
// the bulk export codec; interactive listings go through List.
func (s *Service) All(ctx context.Context) ([]*types.Form, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, incident_name, form_type, status, form_body, created_at, updated_at FROM forms ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing all forms: %w", err)
	}
	defer rows.Close()
	return collectForms(rows)
}

// Delete removes the form with the given id. Returns true iff a row was
// removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM forms WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting form %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of persisted forms.
func (s *Service) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM forms").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting forms: %w", err)
	}
	return n, nil
}

// Exists reports whether a form with the given incident name and form
// type is already persisted. Used by the import codec to skip
// duplicates.
func (s *Service) Exists(ctx context.Context, incidentName, formType string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM forms WHERE incident_name = ? AND form_type = ?",
		incidentName, formType,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking form existence: %w", err)
	}
	return n > 0, nil
}

// ImportRecord inserts a fully formed record, preserving its status,
// body, and timestamps. The id is reassigned by the store. Used by the
// JSON import codec; interactive creation goes through Create.
func (s *Service) ImportRecord(ctx context.Context, f *types.Form) (int64, error) {
	if err := validation.Form(f.IncidentName, f.FormType, f.FormBody); err != nil {
		return 0, err
	}
	if !types.ValidStatus(f.Status) {
		return 0, &types.ValidationError{Field: "status", Msg: "unknown status value"}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO forms (incident_name, form_type, status, form_body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		strings.TrimSpace(f.IncidentName), f.FormType, f.Status, string(f.FormBody),
		f.CreatedAt.UTC().Format(time.RFC3339), f.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("importing form: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading imported id: %w", err)
	}
	return id, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanForm hydrates one row into a *types.Form.
func scanForm(row rowScanner) (*types.Form, error) {
	var f types.Form
	var body, createdAt, updatedAt string
	if err := row.Scan(&f.ID, &f.IncidentName, &f.FormType, &f.Status, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.FormBody = json.RawMessage(body)

	var err error
	f.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	f.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &f, nil
}

// collectForms hydrates every row in the result set.
func collectForms(rows *sql.Rows) ([]*types.Form, error) {
	forms := []*types.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating form: %w", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating forms: %w", err)
	}
	return forms, nil
}

// clampLimit applies the default limit for non-positive or over-cap
// values.
func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

// escapeLike escapes LIKE wildcards in user input so a substring search
// matches them literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
