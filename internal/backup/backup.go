// Package backup implements file-level snapshots of the database file
// with a sidecar metadata descriptor, and the verified restore path.
// Callers must pause auto-save before restoring; the database is
// assumed quiescent for both operations.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/radioforms/pkg/types"
)

// FormatVersion is written into every backup sidecar.
const FormatVersion = "1.0.0"

// MetaSuffix is appended to the backup path to name its sidecar.
const MetaSuffix = ".meta"

// DBExtension identifies database files when listing a backup directory.
const DBExtension = ".db"

// Metadata is the sidecar descriptor written next to each backup. The
// checksum is the decimal byte length of the copied file, which detects
// truncation of the local copy.
type Metadata struct {
	Version   string    `json:"version"`
	BackupID  string    `json:"backup_id"`
	CreatedAt time.Time `json:"created_at"`
	FormCount int       `json:"form_count"`
	Checksum  string    `json:"checksum"`
}

// Entry describes one backup file found by List.
type Entry struct {
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
	ModTime     time.Time `json:"mod_time"`
	HasMetadata bool      `json:"has_metadata"`
}

// Info describes a single backup: its parsed sidecar when present,
// otherwise the file size alone.
type Info struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// formCounter is the slice of the form service the manager needs: the
// number of persisted forms at backup time.
type formCounter interface {
	Count(ctx context.Context) (int, error)
}

// Manager snapshots and restores the live database file.
type Manager struct {
	dbPath string
	svc    formCounter
	logger *slog.Logger
}

// NewManager returns a Manager for the live database at dbPath.
func NewManager(dbPath string, svc formCounter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dbPath: dbPath, svc: svc, logger: logger}
}

// Create copies the live database to dest and writes the metadata
// sidecar <dest>.meta. Returns a human-readable summary.
func (m *Manager) Create(ctx context.Context, dest string) (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("database file %s is not readable: %w", m.dbPath, err)
	}

	if err := copyFile(m.dbPath, dest); err != nil {
		return "", fmt.Errorf("copying database to %s: %w", dest, err)
	}
	size, err := fileSize(dest)
	if err != nil {
		return "", err
	}

	count, err := m.svc.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("counting forms for backup: %w", err)
	}

	meta := Metadata{
		Version:   FormatVersion,
		BackupID:  newBackupID(),
		CreatedAt: time.Now().UTC(),
		FormCount: count,
		Checksum:  strconv.FormatInt(size, 10),
	}
	if err := writeMetadata(dest+MetaSuffix, meta); err != nil {
		return "", err
	}

	m.logger.Info("backup created", "dest", dest, "form_count", count, "size_bytes", size)
	return fmt.Sprintf("backup created at %s (%d forms, %d bytes)", dest, count, size), nil
}

// Restore replaces the live database with the backup at src. When a
// sidecar exists, its checksum must equal the current byte length of
// src; a mismatch aborts with types.ErrIntegrityFailed. The live
// database is first copied aside as a safety snapshot.
func (m *Manager) Restore(src string) (string, error) {
	size, err := fileSize(src)
	if err != nil {
		return "", fmt.Errorf("backup file %s is not readable: %w", src, err)
	}

	meta, err := readMetadata(src + MetaSuffix)
	switch {
	case err == nil:
		if meta.Checksum != strconv.FormatInt(size, 10) {
			return "", fmt.Errorf("backup %s has checksum %s but is %d bytes: %w",
				src, meta.Checksum, size, types.ErrIntegrityFailed)
		}
	case os.IsNotExist(err):
		// No sidecar; restore proceeds unverified.
	default:
		return "", err
	}

	snapshot := ""
	if _, statErr := os.Stat(m.dbPath); statErr == nil {
		snapshot = fmt.Sprintf("%s.backup.%d", m.dbPath, time.Now().Unix())
		if err := copyFile(m.dbPath, snapshot); err != nil {
			return "", fmt.Errorf("creating safety snapshot: %w", err)
		}
	}

	if err := copyFile(src, m.dbPath); err != nil {
		return "", fmt.Errorf("restoring database from %s: %w", src, err)
	}

	m.logger.Info("backup restored", "src", src, "safety_snapshot", snapshot)
	if snapshot == "" {
		return fmt.Sprintf("restored database from %s", src), nil
	}
	return fmt.Sprintf("restored database from %s (previous database saved as %s)", src, snapshot), nil
}

// List returns every database file in dir, annotating entries whose
// sidecar exists.
func (m *Manager) List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	backups := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != DBExtension {
			continue
		}
		path := filepath.Join(dir, de.Name())
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("reading backup entry %s: %w", path, err)
		}
		_, metaErr := os.Stat(path + MetaSuffix)
		backups = append(backups, Entry{
			Path:        path,
			SizeBytes:   info.Size(),
			ModTime:     info.ModTime(),
			HasMetadata: metaErr == nil,
		})
	}
	return backups, nil
}

// Info returns the parsed sidecar for a backup when present, otherwise
// the file size alone.
func (m *Manager) Info(path string) (Info, error) {
	size, err := fileSize(path)
	if err != nil {
		return Info{}, fmt.Errorf("backup file %s is not readable: %w", path, err)
	}

	out := Info{Path: path, SizeBytes: size}
	if meta, err := readMetadata(path + MetaSuffix); err == nil {
		out.Metadata = &meta
	}
	return out, nil
}

// newBackupID generates a UUID v7 backup identifier, falling back to
// v4 if v7 generation fails.
func newBackupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// writeMetadata writes the sidecar atomically: temp file, sync, rename.
func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding backup metadata: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".meta-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing metadata: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming metadata: %w", err)
	}
	return nil
}

// readMetadata parses a sidecar file.
func readMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parsing backup metadata %s: %w", path, err)
	}
	return meta, nil
}

// copyFile copies src to dest, syncing before close.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// fileSize returns the byte length of the file at path.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
