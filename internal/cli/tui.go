package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/dispatch"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	barDoneStyle      = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// DispatchModel - Interactive dispatch sequence
// =============================================================================

// stepMsg carries the result of one Advance back to the model.
type stepMsg struct {
	step dispatch.Step
	err  error
}

// DispatchModel walks the operator through a running sequence: enter opens
// the next recipient's link, esc aborts.
type DispatchModel struct {
	ctx     context.Context
	seq     *dispatch.Sequencer
	channel campaign.Channel
	ids     []string
	names   map[string]string
	steps   []dispatch.Step
	busy    bool
	err     error

	// Record is set once the sequence completes and is archived.
	Record *campaign.Record
	// Aborted is set when the operator cancelled the sequence.
	Aborted bool
}

// NewDispatchModel creates a model for the sequence seq is running.
// names maps recipient ids to display names.
func NewDispatchModel(ctx context.Context, seq *dispatch.Sequencer, names map[string]string) DispatchModel {
	st := seq.State()
	return DispatchModel{
		ctx:     ctx,
		seq:     seq,
		channel: st.Draft.Channel,
		ids:     st.Selected,
		names:   names,
	}
}

func (m DispatchModel) Init() tea.Cmd {
	return nil
}

func (m DispatchModel) advance() tea.Cmd {
	return func() tea.Msg {
		step, err := m.seq.Advance(m.ctx)
		return stepMsg{step: step, err: err}
	}
}

func (m DispatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ", "n":
			if m.busy || m.Record != nil {
				return m, nil
			}
			m.busy = true
			m.err = nil
			return m, m.advance()
		case "esc", "q", "ctrl+c":
			if m.Record != nil {
				return m, tea.Quit
			}
			if err := m.seq.Abort(); err != nil {
				m.err = err
				return m, nil
			}
			m.Aborted = true
			return m, tea.Quit
		}
	case stepMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.steps = append(m.steps, msg.step)
		if msg.step.Completed {
			m.Record = msg.step.Record
			return m, tea.Quit
		}
	}
	return m, nil
}

// next is the index of the recipient the next Advance visits.
func (m DispatchModel) next() int {
	if len(m.steps) == 0 {
		return 0
	}
	last := m.steps[len(m.steps)-1]
	if last.Completed {
		return len(m.ids)
	}
	return last.Index + 1
}

func (m DispatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dispatching " + strings.ToLower(string(m.channel))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎ open next  esc abort"))
	b.WriteString("\n\n")

	done := len(m.steps)
	b.WriteString(progressBar(done, len(m.ids), 30))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d", done, len(m.ids))))
	b.WriteString("\n\n")

	start := 0
	if len(m.steps) > 8 {
		start = len(m.steps) - 8
	}
	for _, step := range m.steps[start:] {
		b.WriteString(stepLine(step, len(m.ids)))
		b.WriteString("\n")
	}

	if next := m.next(); next < len(m.ids) {
		id := m.ids[next]
		name := m.names[id]
		if name == "" {
			name = id
		}
		label := "▸ next: " + name
		if m.busy {
			label = "▸ opening " + name + "…"
		}
		b.WriteString(listSelectedStyle.Render(label))
		b.WriteString("\n")
	}

	if m.err != nil {
		t := errors.ToastFor(m.err)
		b.WriteString("\n")
		b.WriteString(styleIconError.Render(iconError) + " " + t.Message)
		if errors.Is(m.err, errors.ErrCodeNavigate) || errors.Is(m.err, errors.ErrCodeStorage) {
			b.WriteString(listDimStyle.Render("  (⏎ to retry)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := done * width / total
	return barDoneStyle.Render(strings.Repeat("█", filled)) + listDimStyle.Render(strings.Repeat("░", width-filled))
}
