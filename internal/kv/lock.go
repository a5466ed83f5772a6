package kv

import (
	"fmt"
	"os"
	"time"
)

const (
	lockInitialBackoff = 5 * time.Millisecond
	lockMaxBackoff     = 50 * time.Millisecond
)

// fileLock guards the cache database against a second writer process.
// The OS releases the lock automatically if the holder crashes.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// acquire tries to take the exclusive lock, retrying with backoff until
// the timeout expires.
func (l *fileLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.file = f

	deadline := time.Now().Add(timeout)
	backoff := lockInitialBackoff
	for {
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}
		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.file.Close()
			l.file = nil
			return fmt.Errorf("cache locked by another process (%s)", holder)
		}
		time.Sleep(backoff)
		if backoff < lockMaxBackoff {
			backoff *= 2
			if backoff > lockMaxBackoff {
				backoff = lockMaxBackoff
			}
		}
	}
}

// release drops the lock. Safe to call when not held.
func (l *fileLock) release() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.unlock()
	l.file.Close()
	l.file = nil
}

func (l *fileLock) writeHolder() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.file.Seek(0, 0)
	fmt.Fprintf(l.file, "pid:%d\n", os.Getpid())
	l.file.Sync()
}

func (l *fileLock) readHolder() string {
	data, err := os.ReadFile(l.path)
	if err != nil || len(data) == 0 {
		return "holder unknown"
	}
	return string(data[:len(data)-1])
}
