package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fixture is a fake procfs tree under t.TempDir().
type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, root: t.TempDir()}
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	p := filepath.Join(f.root, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(content), 0o644))
}

type fakeProc struct {
	pid      int
	comm     string
	state    byte
	utime    uint64
	stime    uint64
	priority int
	nice     int
	uid      int
	vmSize   uint64
	vmRSS    uint64
	shmem    uint64
	cmdline  []string
}

func statLine(p fakeProc) string {
	return fmt.Sprintf("%d (%s) %c 1 %d %d 0 -1 4194560 10 0 0 0 %d %d 0 0 %d %d 1 0 100 1000 200\n",
		p.pid, p.comm, p.state, p.pid, p.pid, p.utime, p.stime, p.priority, p.nice)
}

func statusText(p fakeProc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:\t%s\n", p.comm)
	fmt.Fprintf(&b, "State:\t%c (sleeping)\n", p.state)
	fmt.Fprintf(&b, "Uid:\t%d\t%d\t%d\t%d\n", p.uid, p.uid, p.uid, p.uid)
	fmt.Fprintf(&b, "Gid:\t%d\t%d\t%d\t%d\n", p.uid, p.uid, p.uid, p.uid)
	if p.vmSize > 0 {
		fmt.Fprintf(&b, "VmSize:\t%8d kB\n", p.vmSize)
	}
	if p.vmRSS > 0 {
		fmt.Fprintf(&b, "VmRSS:\t%8d kB\n", p.vmRSS)
	}
	if p.shmem > 0 {
		fmt.Fprintf(&b, "RssShmem:\t%8d kB\n", p.shmem)
	}
	b.WriteString("Threads:\t1\n")
	return b.String()
}

func (f *fixture) addProc(p fakeProc) {
	f.t.Helper()
	dir := fmt.Sprint(p.pid)
	f.write(filepath.Join(dir, "stat"), statLine(p))
	f.write(filepath.Join(dir, "status"), statusText(p))
	args := ""
	if len(p.cmdline) > 0 {
		args = strings.Join(p.cmdline, "\x00") + "\x00"
	}
	f.write(filepath.Join(dir, "cmdline"), args)
}

func (f *fixture) fs() FS {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return FS{
		Root: f.root,
		LookupUser: func(uid string) (string, error) {
			switch uid {
			case "0":
				return "root", nil
			case "1000":
				return "alice", nil
			}
			return "", errors.New("unknown user")
		},
		Log: log,
	}
}
