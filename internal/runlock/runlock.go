// Package runlock serializes runs that share a full log.
//
// The lock is an advisory flock on a sibling file, so it also excludes
// cooperating runs started from other processes or cron entries.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another run held the lock for the whole wait.
var ErrLocked = errors.New("another sensorlog run holds the lock")

const (
	lockSuffix = ".lock"
	retryDelay = 50 * time.Millisecond
)

// Lock guards one full log.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file used for the log at logPath.
func PathFor(logPath string) string {
	return logPath + lockSuffix
}

// New returns an unlocked Lock backed by the file at path.
func New(path string) *Lock {
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying until timeout elapses. A timeout <= 0 makes
// a single attempt. Cancellation of ctx is returned as is; running out of time
// returns ErrLocked.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
	}

	if timeout <= 0 {
		ok, err := l.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", l.path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLocked, l.path)
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := l.lock.TryLockContext(waitCtx, retryDelay)
	if ok {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	return fmt.Errorf("%w: %s (waited %s)", ErrLocked, l.path, timeout)
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || !l.lock.Locked() {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
