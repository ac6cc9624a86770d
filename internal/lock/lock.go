// Package lock serializes ingestion runs that write to the same target.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/colinfo/colinfo/internal/config"
)

const DefaultPath = "~/.colinfo/colinfo.lock"

var ErrHeld = errors.New("lock held by another process")

// Lock is a held PID lock file.
type Lock struct {
	path string
}

// Acquire writes the current PID to path. A lock file left by a process that
// is no longer running is taken over.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	held, pid, err := IsHeld(path)
	if err != nil {
		return nil, err
	}
	if held && pid != os.Getpid() {
		return nil, fmt.Errorf("colinfo PID %d: %w", pid, ErrHeld)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// IsHeld reports whether the lock file at path names a running process.
func IsHeld(path string) (bool, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0, nil
	}
	return isProcessRunning(pid), pid, nil
}

func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
