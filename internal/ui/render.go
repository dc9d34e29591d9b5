package ui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/toplite/internal/model"
	"github.com/Dicklesworthstone/toplite/internal/ranking"
)

// HeaderRows is the number of lines above the first process row.
const HeaderRows = 7

const (
	commandWidth = 40
	userWidth    = 8
)

// Styles
var (
	valueStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
)

type column struct {
	title string
	width int // negative is left aligned
	sort  ranking.Column
}

var columns = []column{
	{"PID", 5, ranking.PID},
	{"USER", -userWidth, ranking.None},
	{"PR", 3, ranking.None},
	{"NI", 3, ranking.None},
	{"VIRT", 8, ranking.None},
	{"RES", 8, ranking.None},
	{"SHR", 8, ranking.None},
	{"S", 1, ranking.None},
	{"%CPU", 5, ranking.CPU},
	{"%MEM", 5, ranking.Memory},
	{"TIME+", 9, ranking.Time},
	{"COMMAND", -commandWidth, ranking.Command},
}

// Frame renders a full screen: the summary header followed by as many
// process rows as fit in height.
func Frame(s model.Sample, key *ranking.Key, width, height int) string {
	var b strings.Builder
	b.WriteString(Header(s))
	b.WriteString("\n")
	b.WriteString(tableHeader(key))
	rows := height - HeaderRows
	for i := 0; i < rows && i < len(s.Processes.Processes); i++ {
		b.WriteString("\n")
		b.WriteString(Row(s.Processes.Processes[i], s.ClockTicks))
	}
	if width <= 0 {
		return b.String()
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

// Header renders the five summary lines and a blank separator.
func Header(s model.Sample) string {
	v := func(format string, a ...any) string {
		return valueStyle.Render(fmt.Sprintf(format, a...))
	}
	var b strings.Builder

	up := s.Uptime
	fmt.Fprintf(&b, "toplite - %s up ", s.Timestamp.Format("15:04:05"))
	if up.Days > 0 {
		fmt.Fprintf(&b, "%s days, ", v("%d", up.Days))
	}
	fmt.Fprintf(&b, "%s,  %s %s,  load average: %s, %s, %s\n",
		v("%d:%02d", up.Hours, up.Minutes),
		v("%d", s.Users), plural(s.Users, "user", "users"),
		v("%.2f", s.Load.Load1), v("%.2f", s.Load.Load5), v("%.2f", s.Load.Load15))

	t := s.Tasks
	fmt.Fprintf(&b, "Tasks: %s total,   %s running, %s sleeping, %s stopped, %s zombie\n",
		v("%d", t.Total), v("%d", t.Running), v("%d", t.Sleeping), v("%d", t.Stopped), v("%d", t.Zombie))

	c := s.CPU
	fmt.Fprintf(&b, "%%Cpu(s): %s us, %s sy, %s ni, %s id, %s wa, %s hi, %s si, %s st\n",
		v("%4.1f", c.User), v("%4.1f", c.System), v("%4.1f", c.Nice), v("%4.1f", c.Idle),
		v("%4.1f", c.IOWait), v("%4.1f", c.IRQ), v("%4.1f", c.SoftIRQ), v("%4.1f", c.Steal))

	m := s.Memory
	fmt.Fprintf(&b, "KiB Mem : %s total, %s free, %s used, %s buff/cache\n",
		v("%8d", m.Total), v("%8d", m.Free), v("%8d", m.Used()), v("%8d", m.BuffCache()))
	fmt.Fprintf(&b, "KiB Swap: %s total, %s free, %s used, %s avail Mem\n",
		v("%8d", m.SwapTotal), v("%8d", m.SwapFree), v("%8d", m.SwapUsed()), v("%8d", m.Available))
	return b.String()
}

func tableHeader(key *ranking.Key) string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		style := headerStyle
		if col.sort != ranking.None && key != nil && col.sort == key.Column() {
			style = activeStyle
		}
		cells[i] = style.Render(fmt.Sprintf("%*s", col.width, col.title))
	}
	return strings.Join(cells, " ")
}

// Row renders one process line. hz converts cumulative ticks to TIME+.
// The output never spans more than one line.
func Row(p model.Process, hz int64) string {
	cmd := p.Command
	if cmd == "" {
		cmd = p.ShortName
	}
	return fmt.Sprintf("%5d %s %3.3s %3d %8d %8d %8d %c %5.1f %5.1f %9s %s",
		p.PID,
		runewidth.FillRight(runewidth.Truncate(singleLine(p.User), userWidth, ""), userWidth),
		p.Priority, p.Nice,
		p.VirtKiB, p.ResKiB, p.SharedKiB,
		stateChar(p.State),
		p.CPU, p.Memory,
		FormatTicks(p.Ticks, hz),
		runewidth.Truncate(singleLine(cmd), commandWidth, ""))
}

func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// FormatTicks renders cumulative CPU ticks as M:SS.hh.
func FormatTicks(ticks uint64, hz int64) string {
	if hz <= 0 {
		hz = 100
	}
	h := uint64(hz)
	secs := ticks / h
	hundredths := (ticks % h) * 100 / h
	return fmt.Sprintf("%d:%02d.%02d", secs/60, secs%60, hundredths)
}

func stateChar(s byte) byte {
	if s == 0 {
		return '?'
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
