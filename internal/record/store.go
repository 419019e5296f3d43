package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRecordName is the file name of the deployment record inside a
// project directory.
const DefaultRecordName = "deployment.yaml"

// Sentinel errors for record storage.
var (
	// ErrNotFound indicates no record exists at the locator. The operator
	// should run `daoforge init` to create one.
	ErrNotFound = errors.New("deployment record not found")
)

// CorruptError indicates a record was read but failed structural validation.
//
// Corrupt records are never auto-repaired; the operator has to fix or
// re-create the file.
type CorruptError struct {
	// Path is the record file that failed validation.
	Path string

	// Reason describes what was wrong.
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("deployment record %s is corrupt: %s", e.Path, e.Reason)
}

// FieldError indicates a value could not be assigned to a record field path.
type FieldError struct {
	Path  string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("cannot assign %v (%T) to record field %q", e.Value, e.Value, e.Path)
}

// ResolvePath determines the deployment record location.
//
// Resolution order:
//  1. DAOFORGE_RECORD_PATH environment variable (used as-is if set)
//  2. Explicit recordPath parameter (if non-empty)
//  3. deployment.yaml under projectDir
//
// The projectDir is the project root directory. Pass empty string for cwd.
func ResolvePath(projectDir, recordPath string) string {
	if envPath := os.Getenv("DAOFORGE_RECORD_PATH"); envPath != "" {
		return envPath
	}
	if recordPath != "" {
		return recordPath
	}
	return filepath.Join(projectDir, DefaultRecordName)
}

// Load reads and validates the deployment record at path.
//
// Returns [ErrNotFound] (wrapped) when no file exists, and a [CorruptError]
// when the file cannot be parsed or fails structural validation (missing
// name or owner address).
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read deployment record: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptError{Path: path, Reason: err.Error()}
	}
	if rec.Name == "" {
		return nil, &CorruptError{Path: path, Reason: "missing name"}
	}
	if rec.OwnerAddress == "" {
		return nil, &CorruptError{Path: path, Reason: "missing owner_address"}
	}
	return &rec, nil
}

// Save writes the record to path as a whole.
//
// The write goes to a temporary file in the same directory followed by an
// atomic rename, so either the new record fully lands or the prior on-disk
// content stays untouched. The file is created 0600 because the record
// carries credentials.
func Save(rec *Record, path string) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment record: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to write deployment record: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	return nil
}

// FileStore adapts [Load] and [Save] to the orchestrator's Store interface.
type FileStore struct{}

// Load implements the orchestrator Store interface.
func (FileStore) Load(path string) (*Record, error) { return Load(path) }

// Save implements the orchestrator Store interface.
func (FileStore) Save(rec *Record, path string) error { return Save(rec, path) }
