// Package ranking orders process snapshots by a user-selected column.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/Dicklesworthstone/toplite/internal/model"
)

// Column identifies a process table column.
type Column int

const (
	// None marks columns that cannot be sorted on.
	None Column = iota
	PID
	CPU
	Memory
	Time
	Command
)

// sortable is the cycling order; None is never selected.
var sortable = []Column{PID, CPU, Memory, Time, Command}

var columnNames = map[Column]string{
	None:    "none",
	PID:     "pid",
	CPU:     "cpu",
	Memory:  "mem",
	Time:    "time",
	Command: "command",
}

func (c Column) String() string {
	if n, ok := columnNames[c]; ok {
		return n
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// ParseColumn maps a name such as "cpu" or "mem" to its sortable column.
func ParseColumn(s string) (Column, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range sortable {
		if columnNames[c] == s {
			return c, nil
		}
	}
	return None, errors.Errorf("unknown sort column %q (want pid|cpu|mem|time|command)", s)
}

// Direction is the sign applied to the natural order of a column.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// commandCompareLen bounds the command comparison.
const commandCompareLen = 256

// Key is the active sort column and direction. It is owned by the caller
// and mutated only through its methods.
type Key struct {
	column    Column
	direction Direction
}

// DefaultKey sorts by CPU, highest first.
func DefaultKey() *Key { return &Key{column: CPU, direction: Descending} }

// NewKey returns a key for column c. Non-sortable columns fall back to CPU.
func NewKey(c Column, d Direction) *Key {
	if !slices.Contains(sortable, c) {
		c = CPU
	}
	if d != Ascending {
		d = Descending
	}
	return &Key{column: c, direction: d}
}

// Column returns the active column.
func (k *Key) Column() Column { return k.column }

// Direction returns the active direction.
func (k *Key) Direction() Direction { return k.direction }

// NextColumn moves to the following sortable column, wrapping at the end.
func (k *Key) NextColumn() { k.step(1) }

// PrevColumn moves to the preceding sortable column, wrapping at the start.
func (k *Key) PrevColumn() { k.step(-1) }

func (k *Key) step(delta int) {
	n := len(sortable)
	i := slices.Index(sortable, k.column)
	if i < 0 {
		k.column = sortable[0]
		return
	}
	k.column = sortable[((i+delta)%n+n)%n]
}

// FlipDirection toggles between ascending and descending.
func (k *Key) FlipDirection() {
	k.direction = -k.direction
}

// Compare orders a and b under the key. Every column compares in its natural
// ascending order before the direction is applied, so Descending puts the
// largest CPU, memory and time values first. Records that tie on the column
// are ordered by pid so the result is deterministic.
func (k *Key) Compare(a, b model.Process) int {
	var r int
	switch k.column {
	case PID:
		r = cmp.Compare(a.PID, b.PID)
	case CPU:
		r = cmp.Compare(a.CPU, b.CPU)
	case Memory:
		r = cmp.Compare(a.Memory, b.Memory)
	case Time:
		r = cmp.Compare(a.Ticks, b.Ticks)
	case Command:
		r = strings.Compare(bounded(a.Command), bounded(b.Command))
	}
	r *= int(k.direction)
	if r == 0 && k.column != PID {
		r = cmp.Compare(a.PID, b.PID)
	}
	return r
}

func bounded(s string) string {
	if len(s) > commandCompareLen {
		return s[:commandCompareLen]
	}
	return s
}

// Sort orders snap in place.
func (k *Key) Sort(snap *model.Snapshot) {
	slices.SortFunc(snap.Processes, k.Compare)
}
