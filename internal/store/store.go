package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MrJamesThe3rd/facture/internal/encoding"
)

// Store keeps JSON records as whole files under a single directory.
// It assumes it is the only writer of that directory.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Load reads the record stored under key into a value of type T.
// A missing or unparsable record is replaced on disk by def, which is then
// returned. Errors are logged and never returned.
func Load[T any](s *Store, key string, def T) T {
	var v T

	err := s.Read(key, &v)
	if err == nil {
		return v
	}

	if !os.IsNotExist(err) {
		slog.Error("record corrupt, restoring default", "key", key, "error", err)
	}

	s.Save(key, def)

	return def
}

// Read decodes the record stored under key into v without any defaulting.
// A missing record yields an error satisfying os.IsNotExist.
func (s *Store) Read(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return err
	}

	return Decode(data, v)
}

// Save overwrites the record stored under key with v and reports success.
// Failures are logged; the caller keeps working with its in-memory copy.
func (s *Store) Save(key string, v any) bool {
	if err := s.Write(key, v); err != nil {
		slog.Error("failed to save record", "key", key, "error", err)
		return false
	}

	slog.Debug("saved record", "key", key)

	return true
}

// Write is Save with the error surfaced.
func (s *Store) Write(key string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	return WriteFile(s.path(key), data)
}

// Decode parses a JSON record after normalising its text encoding.
func Decode(data []byte, v any) error {
	utf8Data, err := encoding.ToUTF8(data)
	if err != nil {
		return fmt.Errorf("normalising encoding: %w", err)
	}

	if err := json.Unmarshal(utf8Data, v); err != nil {
		return fmt.Errorf("parsing json: %w", err)
	}

	return nil
}

// Encode renders v the way every data file is written: two-space indent,
// non-ASCII text kept as-is, trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile replaces path with data via a temporary file and rename, so a
// crash mid-write never leaves a truncated record behind.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}

	return nil
}
