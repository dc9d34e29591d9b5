package procfs

import (
	"bytes"
	"iter"
	"strconv"
	"strings"
	"unicode"

	"github.com/Dicklesworthstone/toplite/internal/metrics"
	"github.com/Dicklesworthstone/toplite/internal/model"
)

// ProbeKind classifies the outcome of inspecting one process.
type ProbeKind int

const (
	Found ProbeKind = iota
	Vanished
	ParseError
)

func (k ProbeKind) String() string {
	switch k {
	case Found:
		return "found"
	case Vanished:
		return "vanished"
	case ParseError:
		return "parse-error"
	default:
		return "unknown"
	}
}

// Probe is the result of inspecting a single pid. Process is only set when
// Kind is Found.
type Probe struct {
	PID     int
	Kind    ProbeKind
	Process model.Process
	Err     error
}

type procStatus struct {
	UID    uint64
	VmSize uint64
	VmRSS  uint64
	Shared uint64
}

var statusRules = []lineRule[procStatus]{
	{"Uid:", func(s *procStatus, v uint64) { s.UID = v }},
	{"VmSize:", func(s *procStatus, v uint64) { s.VmSize = v }},
	{"VmRSS:", func(s *procStatus, v uint64) { s.VmRSS = v }},
	{"RssShmem:", func(s *procStatus, v uint64) { s.Shared = v }},
}

// Probes inspects each pid lazily, in order.
func (fs FS) Probes(pids []int, memTotalKiB uint64) iter.Seq[Probe] {
	return func(yield func(Probe) bool) {
		for _, pid := range pids {
			if !yield(fs.probe(pid, memTotalKiB)) {
				return
			}
		}
	}
}

func (fs FS) probe(pid int, memTotalKiB uint64) Probe {
	statData, err := fs.readFile(pidDir(pid), "stat")
	if err != nil {
		return Probe{PID: pid, Kind: Vanished, Err: err}
	}
	st, err := parseStat(statData)
	if err != nil {
		return Probe{PID: pid, Kind: ParseError, Err: err}
	}
	statusData, err := fs.readFile(pidDir(pid), "status")
	if err != nil {
		return Probe{PID: pid, Kind: Vanished, Err: err}
	}
	var status procStatus
	applyRules(statusRules, &status, statusData)

	return Probe{PID: pid, Kind: Found, Process: model.Process{
		PID:       pid,
		User:      fs.username(status.UID),
		Priority:  priorityString(st.Priority),
		Nice:      st.Nice,
		VirtKiB:   status.VmSize,
		ResKiB:    status.VmRSS,
		SharedKiB: status.Shared,
		State:     st.State,
		Memory:    metrics.MemoryPercent(status.VmRSS, memTotalKiB),
		Ticks:     st.Ticks,
		Command:   fs.command(pid, st.Comm),
		ShortName: st.Comm,
	}}
}

// CollectProcesses replaces the contents of snap with one record per live
// process. It fails only when the process list cannot be read, in which case
// snap is left untouched. Processes that exit mid-scan are omitted. When
// MaxProcesses is reached the scan stops and the partial result is kept.
func (fs FS) CollectProcesses(snap *model.Snapshot, memTotalKiB uint64) error {
	pids, err := fs.PIDs()
	if err != nil {
		return err
	}
	log := fs.logger()
	snap.Processes = snap.Processes[:0]
	snap.Truncated = false
	for p := range fs.Probes(pids, memTotalKiB) {
		switch p.Kind {
		case Vanished:
			log.WithField("pid", p.PID).Debug("process exited during scan")
			continue
		case ParseError:
			log.WithError(p.Err).WithField("pid", p.PID).Debug("skipping process")
			continue
		}
		if fs.MaxProcesses > 0 && len(snap.Processes) >= fs.MaxProcesses {
			snap.Truncated = true
			log.WithField("limit", fs.MaxProcesses).Warn("process snapshot full, keeping partial result")
			break
		}
		snap.Processes = append(snap.Processes, p.Process)
	}
	return nil
}

func (fs FS) username(uid uint64) string {
	id := strconv.FormatUint(uid, 10)
	if fs.LookupUser == nil {
		return id
	}
	name, err := fs.LookupUser(id)
	if err != nil || name == "" {
		return id
	}
	return name
}

func priorityString(prio int64) string {
	if prio < 0 {
		return model.RealtimePriority
	}
	return strconv.FormatInt(prio, 10)
}

// command renders the argument vector on one line: NUL separators and any
// other control characters (newlines in "sh -c" scripts) become spaces.
// Kernel threads have no argument vector and fall back to the short name.
func (fs FS) command(pid int, comm string) string {
	data, err := fs.readFile(pidDir(pid), "cmdline")
	if err != nil {
		return comm
	}
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return comm
	}
	return strings.Map(controlToSpace, string(data))
}

func controlToSpace(r rune) rune {
	if unicode.IsControl(r) {
		return ' '
	}
	return r
}
