package mount

import (
	"context"
	"time"

	"github.com/gofrs/flock"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
)

// fileLock serialises the privileged mount/unmount probe and the EULA
// acceptance sentinel across processes contending for the same shard mount
// point. One fileLock corresponds to one file on disk.
//
// This does not support multi-threading. Use only from within one goroutine.
type fileLock struct {
	lock          *flock.Flock
	file          string
	lockCount     int
	checkInterval time.Duration
}

// newFileLock creates a new file lock.
func newFileLock(file string, checkInterval time.Duration) *fileLock {
	return &fileLock{file: file, checkInterval: checkInterval}
}

// Acquire takes the lock. For every Acquire, Release needs to be called later.
// Returns immediately if this process already holds the lock.
func (l *fileLock) Acquire(ctx context.Context, log ui.Logger) error {
	if l.lock == nil {
		lock := flock.New(l.file)
		gotLock, err := lock.TryLock()
		if err != nil {
			return errors.WithStack(err)
		}
		if !gotLock {
			log.Warnf("%s", "Waiting for a lock at "+l.file)
			ticker := time.NewTicker(l.checkInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					gotLock, err := lock.TryLock()
					if err != nil {
						return errors.WithStack(err)
					}
					if gotLock {
						l.lock = lock
						l.lockCount = 1
						return nil
					}
				case <-ctx.Done():
					return errors.Errorf("timeout while waiting for the lock")
				}
			}
		}
		l.lock = lock
		l.lockCount = 0
	}
	l.lockCount++
	return nil
}

// Release releases the lock. If there is an error while releasing,
// the error is logged.
func (l *fileLock) Release(log ui.Logger) {
	l.lockCount--
	if l.lockCount <= 0 {
		// If the release fails, log an error but allow the execution to continue.
		if err := l.lock.Unlock(); err != nil {
			log.Errorf("%s", err.Error())
		}
		l.lock = nil
	}
}
