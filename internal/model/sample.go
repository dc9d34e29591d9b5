package model

import "time"

// AggregateCPU holds the system-wide cumulative CPU counters, in clock ticks.
type AggregateCPU struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Total is the number of ticks accounted since boot.
func (c AggregateCPU) Total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait +
		c.IRQ + c.SoftIRQ + c.Steal + c.Guest + c.GuestNice
}

// CPUUtilization is the per-category share of the ticks elapsed between two samples.
type CPUUtilization struct {
	User    float64 // us
	System  float64 // sy
	Nice    float64 // ni
	Idle    float64 // id
	IOWait  float64 // wa
	IRQ     float64 // hi
	SoftIRQ float64 // si
	Steal   float64 // st
}

// IdleUtilization is reported when no ticks elapsed between samples.
func IdleUtilization() CPUUtilization { return CPUUtilization{Idle: 100} }

// Memory mirrors /proc/meminfo. All values are KiB.
type Memory struct {
	Total        uint64
	Free         uint64
	Available    uint64
	Buffers      uint64
	Cached       uint64
	SReclaimable uint64
	Shmem        uint64
	SwapTotal    uint64
	SwapFree     uint64
}

// BuffCache is the quickly reclaimable part of memory, as top reports it.
func (m Memory) BuffCache() uint64 {
	return sub(m.Buffers+m.Cached+m.SReclaimable, m.Shmem)
}

// Used is memory neither free nor in buffers/cache.
func (m Memory) Used() uint64 {
	return sub(sub(m.Total, m.Free), m.BuffCache())
}

// SwapUsed is swap in use.
func (m Memory) SwapUsed() uint64 { return sub(m.SwapTotal, m.SwapFree) }

func sub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// LoadAverage is the 1/5/15 minute run-queue average.
type LoadAverage struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// Uptime is time since boot broken into display units.
type Uptime struct {
	Days    uint64
	Hours   uint64 // < 24
	Minutes uint64 // < 60
}

// TaskCounts buckets processes by run state. Total counts every parsed
// entry, so it may exceed the sum of the buckets.
type TaskCounts struct {
	Total    int
	Running  int
	Sleeping int
	Stopped  int
	Zombie   int
}

// RealtimePriority is shown in place of a negative scheduling priority.
const RealtimePriority = "rt"

// Process is a single row of the process table.
type Process struct {
	PID       int
	User      string
	Priority  string // numeric, or RealtimePriority
	Nice      int
	VirtKiB   uint64
	ResKiB    uint64
	SharedKiB uint64
	State     byte
	CPU       float64 // percent; always 0, per-process accounting is not done
	Memory    float64 // percent of system memory
	Ticks     uint64  // utime + stime
	Command   string
	ShortName string
}

// Snapshot is one tick's process table. It is rebuilt on every collection.
type Snapshot struct {
	Processes []Process
	// Truncated is set when collection stopped at the capacity bound.
	Truncated bool
}

// Len reports the number of collected processes.
func (s *Snapshot) Len() int { return len(s.Processes) }

// Sample is the full snapshot exchanged between sampler, UI, and batch renderer.
type Sample struct {
	Timestamp  time.Time
	Interval   time.Duration
	CPU        CPUUtilization
	Memory     Memory
	Load       LoadAverage
	Uptime     Uptime
	Users      int
	Tasks      TaskCounts
	Processes  Snapshot
	ClockTicks int64 // ticks per second, for converting Process.Ticks
}

// Zero returns an empty sample for initialization.
func Zero() Sample {
	return Sample{Timestamp: time.Now(), CPU: IdleUtilization(), ClockTicks: 100}
}
