package procfs

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// procStat is the subset of /proc/<pid>/stat used by the scanner and collector.
type procStat struct {
	PID      int
	Comm     string
	State    byte
	Ticks    uint64 // utime + stime
	Priority int64
	Nice     int
}

// Field positions after the closing paren of comm, numbered as in proc(5)
// minus three: state is field 3.
const (
	statState    = 0
	statUtime    = 11
	statStime    = 12
	statPriority = 15
	statNice     = 16
)

// parseStatHead parses "pid (comm) state". comm may contain spaces and
// parens, so it runs to the last ')'.
func parseStatHead(data []byte) (procStat, []string, error) {
	var st procStat
	open := bytes.IndexByte(data, '(')
	end := bytes.LastIndexByte(data, ')')
	if open < 1 || end < open {
		return st, nil, errors.Wrap(ErrMalformed, "stat: no comm field")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data[:open])))
	if err != nil {
		return st, nil, errors.Wrap(ErrMalformed, "stat: bad pid")
	}
	st.PID = pid
	st.Comm = string(data[open+1 : end])
	rest := strings.Fields(string(data[end+1:]))
	if len(rest) == 0 || len(rest[statState]) != 1 {
		return st, nil, errors.Wrap(ErrMalformed, "stat: bad state")
	}
	st.State = rest[statState][0]
	return st, rest, nil
}

// parseStat parses the full line including times, priority and nice.
func parseStat(data []byte) (procStat, error) {
	st, rest, err := parseStatHead(data)
	if err != nil {
		return st, err
	}
	if len(rest) <= statNice {
		return st, errors.Wrapf(ErrMalformed, "stat: %d fields", len(rest)+2)
	}
	utime, err1 := strconv.ParseUint(rest[statUtime], 10, 64)
	stime, err2 := strconv.ParseUint(rest[statStime], 10, 64)
	prio, err3 := strconv.ParseInt(rest[statPriority], 10, 64)
	nice, err4 := strconv.Atoi(rest[statNice])
	for _, e := range []error{err1, err2, err3, err4} {
		if e != nil {
			return st, errors.Wrap(ErrMalformed, "stat: "+e.Error())
		}
	}
	st.Ticks = utime + stime
	st.Priority = prio
	st.Nice = nice
	return st, nil
}
