// Package lock serializes warehouse writers with advisory file locks.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// RetryDelay is the polling interval while waiting for a held lock.
const RetryDelay = 250 * time.Millisecond

// FileLocker hands out one lock file per name under a directory.
type FileLocker struct {
	dir string
}

// New creates a FileLocker rooted at dir, creating it if needed.
func New(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir %s: %w", dir, err)
	}
	return &FileLocker{dir: dir}, nil
}

// Path returns the lock file used for name.
func (l *FileLocker) Path(name string) string {
	safe := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(name)
	return filepath.Join(l.dir, safe+".lock")
}

// Lock blocks until the lock for name is held or ctx is done.
func (l *FileLocker) Lock(ctx context.Context, name string) (func() error, error) {
	fl := flock.New(l.Path(name))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		logging.Info().Str("lock", name).Msg("Waiting for another writer")
		ok, err = fl.TryLockContext(ctx, RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("acquire lock %s: %w", name, ctx.Err())
		}
	}

	logging.Debug().Str("lock", name).Msg("Acquired lock")
	return fl.Unlock, nil
}
