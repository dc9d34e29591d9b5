package procfs

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Dicklesworthstone/toplite/internal/model"
)

const cpuLinePrefix = "cpu "

// minCPUFields is user, nice, system and idle, present on every kernel.
const minCPUFields = 4

// ReadCPU reads the aggregate counters from the first line of /proc/stat.
func (fs FS) ReadCPU() (model.AggregateCPU, error) {
	data, err := fs.readFile("stat")
	if err != nil {
		return model.AggregateCPU{}, err
	}
	cpu, err := parseCPULine(firstLine(data))
	if err != nil {
		return model.AggregateCPU{}, errors.Wrapf(err, "parse %s", fs.path("stat"))
	}
	return cpu, nil
}

// parseCPULine reads up to ten counters after the "cpu " label. Counters
// missing at the end of the line (guest, guest_nice on older kernels) stay zero.
func parseCPULine(line string) (model.AggregateCPU, error) {
	var c model.AggregateCPU
	if !strings.HasPrefix(line, cpuLinePrefix) {
		return c, errors.Wrap(ErrMalformed, "missing aggregate cpu line")
	}
	dst := []*uint64{
		&c.User, &c.Nice, &c.System, &c.Idle, &c.IOWait,
		&c.IRQ, &c.SoftIRQ, &c.Steal, &c.Guest, &c.GuestNice,
	}
	fields := strings.Fields(line[len(cpuLinePrefix):])
	if len(fields) < minCPUFields {
		return c, errors.Wrapf(ErrMalformed, "cpu line has %d counters", len(fields))
	}
	for i := 0; i < len(fields) && i < len(dst); i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return model.AggregateCPU{}, errors.Wrapf(ErrMalformed, "cpu field %d: %q", i, fields[i])
		}
		*dst[i] = v
	}
	return c, nil
}

// lineRule assigns the first numeric value of a line that starts with label.
type lineRule[T any] struct {
	label string
	set   func(*T, uint64)
}

// match maps a line to the rule it satisfies and the parsed value.
func match[T any](rules []lineRule[T], line string) (lineRule[T], uint64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return lineRule[T]{}, 0, false
	}
	for _, r := range rules {
		if fields[0] != r.label {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return lineRule[T]{}, 0, false
		}
		return r, v, true
	}
	return lineRule[T]{}, 0, false
}

// applyRules scans text line by line. Unmatched lines are ignored and
// fields without a matching line keep their current value.
func applyRules[T any](rules []lineRule[T], dst *T, text []byte) {
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		if r, v, ok := match(rules, sc.Text()); ok {
			r.set(dst, v)
		}
	}
}

var meminfoRules = []lineRule[model.Memory]{
	{"MemTotal:", func(m *model.Memory, v uint64) { m.Total = v }},
	{"MemFree:", func(m *model.Memory, v uint64) { m.Free = v }},
	{"MemAvailable:", func(m *model.Memory, v uint64) { m.Available = v }},
	{"Buffers:", func(m *model.Memory, v uint64) { m.Buffers = v }},
	{"Cached:", func(m *model.Memory, v uint64) { m.Cached = v }},
	{"SReclaimable:", func(m *model.Memory, v uint64) { m.SReclaimable = v }},
	{"Shmem:", func(m *model.Memory, v uint64) { m.Shmem = v }},
	{"SwapTotal:", func(m *model.Memory, v uint64) { m.SwapTotal = v }},
	{"SwapFree:", func(m *model.Memory, v uint64) { m.SwapFree = v }},
}

// ReadMemory parses /proc/meminfo. Absent fields are left at zero.
func (fs FS) ReadMemory() (model.Memory, error) {
	data, err := fs.readFile("meminfo")
	if err != nil {
		return model.Memory{}, err
	}
	return parseMeminfo(data), nil
}

func parseMeminfo(data []byte) model.Memory {
	var m model.Memory
	applyRules(meminfoRules, &m, data)
	return m
}

// ReadLoadAverage parses the first three fields of /proc/loadavg.
func (fs FS) ReadLoadAverage() (model.LoadAverage, error) {
	data, err := fs.readFile("loadavg")
	if err != nil {
		return model.LoadAverage{}, err
	}
	vals, err := parseFloats(firstLine(data), 3)
	if err != nil {
		return model.LoadAverage{}, errors.Wrapf(err, "parse %s", fs.path("loadavg"))
	}
	return model.LoadAverage{Load1: vals[0], Load5: vals[1], Load15: vals[2]}, nil
}

// ReadUptime returns seconds since boot from /proc/uptime.
func (fs FS) ReadUptime() (float64, error) {
	data, err := fs.readFile("uptime")
	if err != nil {
		return 0, err
	}
	vals, err := parseFloats(firstLine(data), 1)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", fs.path("uptime"))
	}
	return vals[0], nil
}

// parseFloats reads n finite, non-negative values.
func parseFloats(line string, n int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, errors.Wrapf(ErrMalformed, "want %d fields, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrMalformed, "field %d: %q", i, fields[i])
		}
		out[i] = v
	}
	return out, nil
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(data)
}
