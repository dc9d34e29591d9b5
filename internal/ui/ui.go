package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/toplite/internal/model"
	"github.com/Dicklesworthstone/toplite/internal/ranking"
	"github.com/Dicklesworthstone/toplite/internal/sampler"
)

// Sampler produces one sample per tick.
type Sampler interface {
	Sample(ctx context.Context, now time.Time) model.Sample
}

var _ Sampler = (*sampler.Sampler)(nil)

// Model renders live samples and owns the sort key.
type Model struct {
	sampler   Sampler
	interval  time.Duration
	key       *ranking.Key
	latest    model.Sample
	ready     bool
	ctx       context.Context
	ctxCancel context.CancelFunc
	width     int
	height    int
}

func New(s Sampler, interval time.Duration, key *ranking.Key) *Model {
	if key == nil {
		key = ranking.DefaultKey()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		sampler:   s,
		interval:  interval,
		key:       key,
		latest:    model.Zero(),
		ctx:       ctx,
		ctxCancel: cancel,
		width:     80,
		height:    24,
	}
}

// Messages
type (
	tickMsg   time.Time
	sampleMsg model.Sample
)

// sampleCmd runs one tick. The next tick is only scheduled once this sample
// has been received, so ticks never overlap.
func (m *Model) sampleCmd() tea.Cmd {
	return func() tea.Msg {
		return sampleMsg(m.sampler.Sample(m.ctx, time.Now()))
	}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return m.sampleCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		case "<", ",":
			m.key.PrevColumn()
			m.key.Sort(&m.latest.Processes)
		case ">", ".":
			m.key.NextColumn()
			m.key.Sort(&m.latest.Processes)
		case "R":
			m.key.FlipDirection()
			m.key.Sort(&m.latest.Processes)
		}
	case sampleMsg:
		m.latest = model.Sample(msg)
		m.key.Sort(&m.latest.Processes)
		m.ready = true
		return m, m.tickCmd()
	case tickMsg:
		return m, m.sampleCmd()
	}
	return m, nil
}

func (m *Model) View() string {
	if !m.ready {
		return "Sampling..."
	}
	return Frame(m.latest, m.key, m.width, m.height)
}

// Key returns the active sort key.
func (m *Model) Key() *ranking.Key { return m.key }

// RunTUI starts the Bubble Tea program.
func RunTUI(s Sampler, interval time.Duration, key *ranking.Key) error {
	prog := tea.NewProgram(New(s, interval, key), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
