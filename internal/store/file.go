package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one <collection>.json file per collection in Dir.
// Writes go to a temp file in the same directory and are renamed over the
// target, so readers see either the old or the new array.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.Dir, collection+".json")
}

func (s *FileStore) Load(_ context.Context, collection string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []json.RawMessage{}, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path(collection), err)
	}
	return out, nil
}

func (s *FileStore) Replace(ctx context.Context, collection string, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, collection+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(collection))
}
