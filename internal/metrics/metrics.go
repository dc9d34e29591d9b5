// Package metrics derives percentages and display units from raw counters.
package metrics

import (
	"math"

	"github.com/Dicklesworthstone/toplite/internal/model"
)

// CPUUtilization returns the share of ticks spent in each category between
// prev and now. When no ticks elapsed, or the counters went backwards, the
// result is 100% idle. Individual categories are not clamped.
func CPUUtilization(prev, now model.AggregateCPU) model.CPUUtilization {
	total := float64(now.Total()) - float64(prev.Total())
	if total <= 0 {
		return model.IdleUtilization()
	}
	pct := func(n, p uint64) float64 {
		return (float64(n) - float64(p)) / total * 100
	}
	return model.CPUUtilization{
		User:    pct(now.User, prev.User),
		System:  pct(now.System, prev.System),
		Nice:    pct(now.Nice, prev.Nice),
		Idle:    pct(now.Idle, prev.Idle),
		IOWait:  pct(now.IOWait, prev.IOWait),
		IRQ:     pct(now.IRQ, prev.IRQ),
		SoftIRQ: pct(now.SoftIRQ, prev.SoftIRQ),
		Steal:   pct(now.Steal, prev.Steal),
	}
}

// MemoryPercent is resident memory as a percentage of system memory.
func MemoryPercent(residentKiB, totalKiB uint64) float64 {
	if totalKiB == 0 {
		return 0
	}
	return float64(residentKiB) / float64(totalKiB) * 100
}

// FormatUptime splits seconds since boot into days, hours and minutes.
// Leftover seconds are dropped.
func FormatUptime(seconds float64) model.Uptime {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	mins := uint64(seconds / 60)
	return model.Uptime{
		Days:    mins / (60 * 24),
		Hours:   (mins / 60) % 24,
		Minutes: mins % 60,
	}
}
