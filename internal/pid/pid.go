package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/robotctl/internal/errors"
)

const (
	pidFile = "robotctl.pid"
)

// File is a single-instance guard backed by a PID file.
type File struct {
	path string
}

// New returns a guard for robotctl.pid inside dir. An empty dir means the
// system temp directory.
func New(dir string) *File {
	if dir == "" {
		dir = os.TempDir()
	}

	return &File{path: filepath.Join(dir, pidFile)}
}

// Path returns the location of the PID file.
func (f *File) Path() string {
	return f.path
}

// Acquire writes the current process ID, failing with already_running when
// a live process still owns the file. Stale files are overwritten.
func (f *File) Acquire() error {
	errFactory := errors.New()

	if bytes, err := os.ReadFile(f.path); err == nil {
		owner, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && owner != os.Getpid() && alive(owner) {
			return errFactory.WithData(errors.ErrAlreadyRunning, owner)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Release removes the PID file.
func (f *File) Release() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
