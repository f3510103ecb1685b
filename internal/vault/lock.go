package vault

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// Lock is a cross-process lock on a vault, preventing two imports
// from interleaving state-file writes. Backed by a lock file at the
// vault root.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewLock creates a lock for the vault at root. Nothing is acquired
// until TryLock.
func NewLock(root string) *Lock {
	path := filepath.Join(root, LockFileName)
	return &Lock{path: path, flock: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking. A vault held
// by another process returns ErrCodeVaultLocked.
func (l *Lock) TryLock() error {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return errors.New(errors.ErrCodeVaultLocked, "acquiring vault lock", err).WithPath(l.path)
	}
	if !acquired {
		return errors.New(errors.ErrCodeVaultLocked, "vault is locked by another import", nil).WithPath(l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return errors.New(errors.ErrCodeVaultLocked, "releasing vault lock", err).WithPath(l.path)
	}
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }
