//go:build !windows

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const lockFile = "search.lock"

// Lock is an exclusive lock on a search cache directory, held while the
// cache is rebuilt.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the lock on dir without blocking. It fails when another
// process holds it.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating search cache directory: %w", err)
	}

	path := filepath.Join(dir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			pid := strings.TrimSpace(string(content))
			return nil, fmt.Errorf("search cache is locked by another process (PID %s)", pid)
		}
		return nil, fmt.Errorf("search cache is locked by another process")
	}

	unlock := func(err error) (*Lock, error) {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, err
	}
	if err := file.Truncate(0); err != nil {
		return unlock(fmt.Errorf("truncating lock file: %w", err))
	}
	if _, err := file.Seek(0, 0); err != nil {
		return unlock(fmt.Errorf("seeking lock file: %w", err))
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return unlock(fmt.Errorf("writing PID to lock file: %w", err))
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
