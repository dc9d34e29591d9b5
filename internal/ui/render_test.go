package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dicklesworthstone/toplite/internal/model"
	"github.com/Dicklesworthstone/toplite/internal/ranking"
)

func testSample(procs ...model.Process) model.Sample {
	return model.Sample{
		Timestamp: time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local),
		CPU:       model.CPUUtilization{User: 20, System: 10, Idle: 70},
		Memory: model.Memory{
			Total: 1000, Free: 400, Available: 600, Buffers: 100, Cached: 200,
			SReclaimable: 50, Shmem: 30, SwapTotal: 500, SwapFree: 120,
		},
		Load:       model.LoadAverage{Load1: 0.1, Load5: 0.2, Load15: 0.3},
		Uptime:     model.Uptime{Days: 1, Hours: 1, Minutes: 1},
		Users:      1,
		Tasks:      model.TaskCounts{Total: 5, Running: 1, Sleeping: 3, Zombie: 1},
		Processes:  model.Snapshot{Processes: procs},
		ClockTicks: 100,
	}
}

func TestHeader(t *testing.T) {
	lines := strings.Split(strings.TrimSuffix(Header(testSample()), "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, "toplite - 12:34:56 up 1 days, 1:01,  1 user,  load average: 0.10, 0.20, 0.30", lines[0])
	assert.Contains(t, lines[1], "5 total")
	assert.Contains(t, lines[1], "1 zombie")
	assert.Contains(t, lines[2], "20.0 us")
	assert.Contains(t, lines[2], "70.0 id")
	assert.Contains(t, lines[3], "280 used")
	assert.Contains(t, lines[3], "320 buff/cache")
	assert.Contains(t, lines[4], "380 used")
	assert.Contains(t, lines[4], "600 avail Mem")
}

func TestHeaderWithoutDays(t *testing.T) {
	s := testSample()
	s.Uptime = model.Uptime{Hours: 3, Minutes: 7}
	s.Users = 4
	first := strings.SplitN(Header(s), "\n", 2)[0]
	assert.Contains(t, first, "up 3:07,  4 users,")
	assert.NotContains(t, first, "days")
}

func TestFrameRowLimit(t *testing.T) {
	var procs []model.Process
	for pid := 1; pid <= 10; pid++ {
		procs = append(procs, model.Process{PID: pid, Command: "sh", State: 'S'})
	}
	out := Frame(testSample(procs...), ranking.DefaultKey(), 0, HeaderRows+3)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, HeaderRows+3)
	assert.Contains(t, lines[HeaderRows-1], "COMMAND")

	out = Frame(testSample(procs...), ranking.DefaultKey(), 0, 2)
	assert.Len(t, strings.Split(out, "\n"), HeaderRows)
}

func TestFrameControlCharactersStayOnOneRow(t *testing.T) {
	p := model.Process{PID: 9, State: 'S', Command: "python3 -c \nimport os\nimport sys\n\tmain()"}
	height := HeaderRows + 2
	out := Frame(testSample(p, model.Process{PID: 10}), ranking.DefaultKey(), 120, height)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, height)
	assert.Contains(t, lines[HeaderRows], "python3 -c  import os import sys  main()")
}

func TestRowFallsBackToShortName(t *testing.T) {
	row := Row(model.Process{PID: 2, State: 'S', ShortName: "kthreadd"}, 100)
	assert.True(t, strings.HasSuffix(row, "kthreadd"), row)
}

func TestFrameClipsWidth(t *testing.T) {
	p := model.Process{PID: 1, Command: strings.Repeat("x", 200)}
	out := Frame(testSample(p), ranking.DefaultKey(), 60, 30)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 60)
	}
}

func TestRow(t *testing.T) {
	row := Row(model.Process{
		PID: 4242, User: "a-very-long-user", Priority: model.RealtimePriority, Nice: -5,
		VirtKiB: 2000, ResKiB: 100, SharedKiB: 40, State: 'R',
		Memory: 12.5, Ticks: 12345, Command: "/usr/bin/worker --fast",
	}, 100)
	assert.True(t, strings.HasPrefix(row, " 4242 a-very-l  rt  -5"), row)
	assert.Contains(t, row, " R ")
	assert.Contains(t, row, "12.5")
	assert.Contains(t, row, "2:03.45")
	assert.True(t, strings.HasSuffix(row, "/usr/bin/worker --fast"))

	assert.Contains(t, Row(model.Process{PID: 1}, 100), " ? ")
}

func TestFormatTicks(t *testing.T) {
	tests := []struct {
		ticks uint64
		hz    int64
		want  string
	}{
		{0, 100, "0:00.00"},
		{12345, 100, "2:03.45"},
		{360000, 100, "60:00.00"},
		{250, 250, "0:01.00"},
		{125, 250, "0:00.50"},
		{150, 0, "0:01.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTicks(tt.ticks, tt.hz), "ticks=%d hz=%d", tt.ticks, tt.hz)
	}
}
