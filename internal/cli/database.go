package cli

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/roach88/spellbook/internal/store"
)

// lockSuffix names the lock file that sits next to a transcript database.
const lockSuffix = ".lock"

// openedDB is a store plus the file lock guarding it.
type openedDB struct {
	*store.Store
	lock *flock.Flock
}

// Close closes the store and releases the lock.
func (d *openedDB) Close() error {
	err := d.Store.Close()
	if unlockErr := d.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// openDatabase opens the transcript database at path under a file lock.
// Writers take the lock exclusively; readers share it. Readers also require
// the database to exist, since store.Open would otherwise create it.
func openDatabase(path string, write bool) (*openedDB, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError,
			"no database: pass --db or set database in the config file")
	}
	if !write {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
	}

	lock := flock.New(path + lockSuffix)
	var (
		locked bool
		err    error
	)
	if write {
		locked, err = lock.TryLock()
	} else {
		locked, err = lock.TryRLock()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to lock database", err)
	}
	if !locked {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("database %s is locked by another process", path))
	}

	st, err := store.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return &openedDB{Store: st, lock: lock}, nil
}
