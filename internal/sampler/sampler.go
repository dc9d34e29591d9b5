package sampler

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/sirupsen/logrus"
	"github.com/tklauser/go-sysconf"

	"github.com/Dicklesworthstone/toplite/internal/metrics"
	"github.com/Dicklesworthstone/toplite/internal/model"
	"github.com/Dicklesworthstone/toplite/internal/procfs"
)

// defaultClockTicks is USER_HZ on virtually every Linux build.
const defaultClockTicks = 100

var (
	countUsers = func(ctx context.Context) (int, error) {
		users, err := host.UsersWithContext(ctx)
		return len(users), err
	}
	clockTicks = func() (int64, error) {
		return sysconf.Sysconf(sysconf.SC_CLK_TCK)
	}
)

// Sampler builds one Sample per tick from procfs. It keeps the previous
// aggregate CPU counters for the utilization delta and the last good value
// of every metric, which is reported again when a read fails.
type Sampler struct {
	Interval time.Duration

	fs      procfs.FS
	log     logrus.FieldLogger
	hz      int64
	prevCPU model.AggregateCPU
	last    model.Sample
}

// New primes the sampler with an initial CPU reading. Failure to read the
// aggregate CPU counters is fatal: there is nothing to compute deltas from.
func New(fs procfs.FS, interval time.Duration, log logrus.FieldLogger) (*Sampler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cpu, err := fs.ReadCPU()
	if err != nil {
		return nil, err
	}
	hz, err := clockTicks()
	if err != nil || hz <= 0 {
		log.WithError(err).Warnf("cannot query clock ticks, assuming %d", defaultClockTicks)
		hz = defaultClockTicks
	}
	s := &Sampler{
		Interval: interval,
		fs:       fs,
		log:      log,
		hz:       hz,
		prevCPU:  cpu,
		last:     model.Zero(),
	}
	s.last.Interval = interval
	s.last.ClockTicks = hz
	return s, nil
}

// Sample runs one tick. It never fails: a metric that cannot be read keeps
// its previous value and is retried on the next tick.
func (s *Sampler) Sample(ctx context.Context, now time.Time) model.Sample {
	out := s.last
	out.Timestamp = now

	if cpu, err := s.fs.ReadCPU(); err != nil {
		s.skip("cpu", err)
	} else {
		out.CPU = metrics.CPUUtilization(s.prevCPU, cpu)
		s.prevCPU = cpu
	}

	if mem, err := s.fs.ReadMemory(); err != nil {
		s.skip("meminfo", err)
	} else {
		out.Memory = mem
	}

	if ld, err := s.fs.ReadLoadAverage(); err != nil {
		s.skip("loadavg", err)
	} else {
		out.Load = ld
	}

	if up, err := s.fs.ReadUptime(); err != nil {
		s.skip("uptime", err)
	} else {
		out.Uptime = metrics.FormatUptime(up)
	}

	if n, err := countUsers(ctx); err != nil {
		s.skip("utmp", err)
	} else {
		out.Users = n
	}

	if tc, err := s.fs.ScanTaskStates(); err != nil {
		s.skip("tasks", err)
	} else {
		out.Tasks = tc
	}

	// A fresh buffer each tick: the previous snapshot may still be on screen.
	snap := model.Snapshot{
		Processes: make([]model.Process, 0, len(s.last.Processes.Processes)),
	}
	if err := s.fs.CollectProcesses(&snap, out.Memory.Total); err != nil {
		s.skip("processes", err)
	} else {
		out.Processes = snap
	}

	s.last = out
	return out
}

func (s *Sampler) skip(source string, err error) {
	s.log.WithError(err).WithField("source", source).Warn("read failed, keeping previous value")
}

// Run samples every Interval and hands each Sample to emit, until ctx is
// done, emit returns an error, or n samples were taken (n <= 0 means no
// limit). Sampling and emitting happen on the calling goroutine.
func (s *Sampler) Run(ctx context.Context, n int, emit func(model.Sample) error) error {
	for i := 0; n <= 0 || i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.Interval):
			}
		}
		if err := emit(s.Sample(ctx, time.Now())); err != nil {
			return err
		}
	}
	return nil
}
