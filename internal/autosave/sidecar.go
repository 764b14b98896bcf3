package autosave

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CorruptSuffix is appended to sidecar files that fail to parse during
// crash recovery. Quarantined files are left on disk for inspection.
const CorruptSuffix = ".corrupt"

// sidecar is the on-disk recovery record for one form: the most recent
// unsaved canonical body plus the form id and client version.
type sidecar struct {
	FormID        int64           `json:"form_id"`
	ClientVersion int64           `json:"client_version"`
	Body          json.RawMessage `json:"body"`
}

// sidecarPath returns the recovery file path for a form id.
func sidecarPath(dir string, formID int64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.json", formID))
}

// writeSidecar atomically replaces the sidecar for sc.FormID using the
// write-temp-then-rename pattern, so a crash mid-write never leaves a
// truncated sidecar in place of a good one.
func writeSidecar(dir string, sc sidecar) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating recovery directory: %w", err)
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshaling sidecar: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sidecar-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing sidecar: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing sidecar: %w", err)
	}
	if err := os.Rename(tmpName, sidecarPath(dir, sc.FormID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming sidecar: %w", err)
	}
	return nil
}

// readSidecar parses the sidecar file at path.
func readSidecar(path string) (sidecar, error) {
	var sc sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading sidecar: %w", err)
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing sidecar: %w", err)
	}
	return sc, nil
}

// removeSidecar deletes the sidecar for a form id. A missing file is
// not an error.
func removeSidecar(dir string, formID int64) error {
	err := os.Remove(sidecarPath(dir, formID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing sidecar: %w", err)
	}
	return nil
}

// quarantine renames a malformed sidecar with the corrupt suffix so it
// never blocks recovery of sibling files.
func quarantine(path string) error {
	return os.Rename(path, path+CorruptSuffix)
}
