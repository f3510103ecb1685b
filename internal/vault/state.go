package vault

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// State maps vault-relative slash-separated paths to the modification
// time recorded at the last successful import, as fractional epoch
// seconds. A file is re-imported when its current mtime differs from
// the stored value.
type State map[string]float64

// LoadState reads the state file at the vault root. Missing or corrupt
// state yields an empty map, which simply means a full re-import.
func LoadState(root string) State {
	path := filepath.Join(root, StateFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return State{}
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		slog.Warn("state file unreadable, starting fresh", "path", path, "error", err.Error())
		return State{}
	}
	if st == nil {
		return State{}
	}
	return st
}

// SaveState writes the state file via a temp-file rename, so a crash
// mid-write leaves the previous state intact.
func SaveState(root string, st State) error {
	path := filepath.Join(root, StateFileName)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.New(errors.ErrCodeStateWrite, "encoding state", err).WithPath(path)
	}

	tmp, err := os.CreateTemp(root, StateFileName+".tmp-*")
	if err != nil {
		return errors.New(errors.ErrCodeStateWrite, "creating temp state file", err).WithPath(path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.New(errors.ErrCodeStateWrite, "writing state", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.New(errors.ErrCodeStateWrite, "closing temp state file", err).WithPath(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.New(errors.ErrCodeStateWrite, "replacing state file", err).WithPath(path)
	}
	return nil
}

// Changed reports whether f needs importing under this state: either
// it was never recorded or its modification time moved.
func (st State) Changed(f *File) bool {
	prev, ok := st[f.RelPath]
	if !ok {
		return true
	}
	return prev != f.Mtime()
}
