package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Store reads and writes one JSON document per collection inside a directory.
//
// Load never fails: a missing, unreadable or malformed document yields the
// empty value of the requested type and the file on disk is left alone.
// Decode reports the same problems as errors.
// Writes go to a temp file that is renamed over the target, so a failed
// write never leaves a truncated document behind.
type Store struct {
	dir string
	log logrus.FieldLogger

	// beforeWrite, when set, runs ahead of every write and can veto it.
	beforeWrite func(name string) error
}

// NewStore creates dir if needed. Failing here is fatal for the application.
func NewStore(dir string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir is the data directory the store owns.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the document file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Decode is the strict form of Load. A missing document gives the zero T
// and no error; an unreadable or malformed one gives an error wrapping
// ErrPersistence, so callers can tell "absent" from "broken".
func Decode[T any](s *Store, name string) (T, error) {
	var v T
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("%w: read %s: %w", ErrPersistence, name, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decode %s: %w", ErrPersistence, name, err)
	}
	return v, nil
}

// Load decodes a document into a fresh T. Missing or malformed documents
// (including a JSON shape that does not match T) give the zero T.
func Load[T any](s *Store, name string) T {
	v, err := Decode[T](s, name)
	if err != nil {
		s.log.WithFields(logrus.Fields{"document": name, "error": err}).Warn("document is unusable, using empty default")
	}
	return v
}

// Save encodes v and replaces the document.
func (s *Store) Save(name string, v any) error {
	data, err := encodeDocument(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, name, err)
	}
	return s.Write(name, data)
}

// Write atomically replaces the document with data.
func (s *Store) Write(name string, data []byte) error {
	if err := s.write(name, data); err != nil {
		s.log.WithFields(logrus.Fields{"document": name, "error": err}).Error("failed to save document")
		return fmt.Errorf("%w: save %s: %w", ErrPersistence, name, err)
	}
	return nil
}

func (s *Store) write(name string, data []byte) error {
	if s.beforeWrite != nil {
		if err := s.beforeWrite(name); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(name))
}

// encodeDocument writes human-readable JSON with non-ASCII text kept verbatim.
func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
