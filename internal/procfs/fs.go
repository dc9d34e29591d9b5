// Package procfs reads system and per-process state from a procfs mount.
//
// Every reader takes its input from FS.Root, so the same code runs against
// /proc in production and against fixture trees in tests.
package procfs

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultRoot is where the kernel exposes procfs.
const DefaultRoot = "/proc"

// ErrMalformed is returned when a pseudo-file does not match its grammar.
var ErrMalformed = errors.New("malformed procfs data")

// FS is a procfs mount.
type FS struct {
	Root string

	// MaxProcesses bounds the process snapshot. Zero means unbounded.
	MaxProcesses int

	// LookupUser resolves a numeric owner id to a user name.
	LookupUser func(uid string) (string, error)

	Log logrus.FieldLogger
}

// New returns an FS rooted at root, or DefaultRoot when root is empty.
func New(root string) FS {
	if root == "" {
		root = DefaultRoot
	}
	return FS{
		Root:       root,
		LookupUser: lookupUsername,
		Log:        logrus.StandardLogger(),
	}
}

func lookupUsername(uid string) (string, error) {
	u, err := user.LookupId(uid)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (fs FS) path(elem ...string) string {
	return filepath.Join(append([]string{fs.Root}, elem...)...)
}

func pidDir(pid int) string { return strconv.Itoa(pid) }

func (fs FS) readFile(elem ...string) ([]byte, error) {
	p := fs.path(elem...)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p)
	}
	return data, nil
}

func (fs FS) logger() logrus.FieldLogger {
	if fs.Log == nil {
		return logrus.StandardLogger()
	}
	return fs.Log
}

// PIDs lists the process ids present under Root. Entries whose name is not
// purely numeric are skipped.
func (fs FS) PIDs() ([]int, error) {
	entries, err := os.ReadDir(fs.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "enumerate %s", fs.Root)
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if !isNumeric(e.Name()) {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
