package daemonrun

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning reports that another daemon holds the lock for this socket.
var ErrAlreadyRunning = errors.New("daemon already running")

type pidFile struct {
	path string
	lock *flock.Flock
}

// acquirePIDFile takes the exclusive lock at lockPath and records the current
// pid at pidPath.
func acquirePIDFile(pidPath, lockPath string) (*pidFile, error) {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrAlreadyRunning, lockPath)
	}

	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(pidPath, []byte(value), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &pidFile{path: pidPath, lock: lock}, nil
}

// Release removes the pid file, then drops the lock.
func (p *pidFile) Release() error {
	var errs []error
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove pid file: %w", err))
	}
	if err := p.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}
	return errors.Join(errs...)
}
