package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/edpgen/compare"
)

type compareFlags struct {
	config    string
	left      string
	right     string
	leftKind  string
	rightKind string
}

const (
	compareIdle = iota
	compareUploading
	compareRunning
	compareDone
)

type compareCmdModel struct {
	app        *app
	comparison *compare.Comparison
	side       compare.Side
	state      int
	textinput  textinput.Model
	spinner    spinner.Model
	err        error
}

func newCompareModel(a *app, f compareFlags) (compareCmdModel, error) {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	m := compareCmdModel{
		app:        a,
		comparison: compare.New(a.clients.Generator, a.logger),
		side:       compare.Left,
		textinput:  ti,
		spinner:    s,
	}

	preload := []struct {
		side compare.Side
		kind string
		path string
	}{
		{compare.Left, f.leftKind, f.left},
		{compare.Right, f.rightKind, f.right},
	}
	for _, p := range preload {
		if p.kind != "" {
			if err := m.comparison.SetKind(p.side, compare.Kind(p.kind)); err != nil {
				return compareCmdModel{}, err
			}
		}
		if p.path != "" {
			if err := m.upload(p.side, p.path); err != nil {
				return compareCmdModel{}, err
			}
		}
	}
	return m, nil
}

func (m compareCmdModel) upload(side compare.Side, path string) error {
	data, err := m.app.fs.ReadFile(path)
	if err != nil {
		return err
	}
	return m.comparison.Upload(side, filepath.Base(path), data)
}

func (m compareCmdModel) Init() tea.Cmd {
	return nil
}

func (m compareCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.state == compareUploading {
			return m.handleUploadKey(msg)
		}
		return m.handleKeyPress(msg)
	case actionDoneMsg:
		m.err = msg.err
		if msg.err != nil {
			m.state = compareIdle
		} else {
			m.state = compareDone
		}
		return m, nil
	case spinner.TickMsg:
		if m.state == compareRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if m.state == compareUploading {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m compareCmdModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == compareRunning {
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "left", "right", "tab":
		if m.side == compare.Left {
			m.side = compare.Right
		} else {
			m.side = compare.Left
		}
	case "t":
		kind := compare.UseCaseDocument
		if m.comparison.Slot(m.side).Kind == compare.UseCaseDocument {
			kind = compare.CodeFile
		}
		m.err = m.comparison.SetKind(m.side, kind)
		m.state = compareIdle
	case "u":
		m.state = compareUploading
		m.textinput.Reset()
		m.textinput.Placeholder = "path/to/file (" + compare.AcceptList(m.comparison.Slot(m.side).Kind) + ")"
		m.textinput.Focus()
		return m, textinput.Blink
	case "x":
		m.comparison.Clear(m.side)
		m.state = compareIdle
		m.err = nil
	case "enter", "c":
		slot := func(s compare.Side) compare.Slot { return m.comparison.Slot(s) }
		if err := compare.CanCompare(slot(compare.Left), slot(compare.Right)).Error(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.state = compareRunning
		cmd := m.app.run("compare", func(ctx context.Context) error {
			_, err := m.comparison.Compare(ctx)
			return err
		})
		return m, tea.Batch(m.spinner.Tick, cmd)
	}
	return m, nil
}

func (m compareCmdModel) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = compareIdle
		m.textinput.Blur()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.textinput.Value())
		if path == "" {
			m.err = errors.New("enter a file path")
			return m, nil
		}
		m.err = m.upload(m.side, path)
		m.state = compareIdle
		m.textinput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m compareCmdModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("edpgen · compare") + "\n\n")

	panels := make([]string, 0, 2)
	for _, side := range []compare.Side{compare.Left, compare.Right} {
		panels = append(panels, m.slotView(side))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...) + "\n")

	switch m.state {
	case compareUploading:
		b.WriteString("\nUpload to " + m.side.String() + " slot:\n" + m.textinput.View())
		b.WriteString(helpStyle("\n\nenter upload · esc cancel"))
	case compareRunning:
		b.WriteString(fmt.Sprintf("\n%s Comparing...", m.spinner.View()))
	case compareDone:
		b.WriteString("\n" + renderReport(m.comparison.Report()) + "\n")
		fallthrough
	default:
		b.WriteString(helpStyle("\n←/→ slot · t toggle kind · u upload · x clear · enter compare · q quit"))
	}
	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return b.String()
}

func (m compareCmdModel) slotView(side compare.Side) string {
	slot := m.comparison.Slot(side)
	style := boxStyle.Width(36)
	if side == m.side {
		style = style.BorderForeground(lipgloss.Color("212"))
	}
	status := faintStyle.Render("no file uploaded")
	if slot.Uploaded {
		status = check + " " + slot.FileName
	}
	return style.Render(fmt.Sprintf("%s\n%s\n%s",
		lipgloss.NewStyle().Bold(true).Render(slot.Kind.Label()),
		faintStyle.Render(compare.AcceptList(slot.Kind)),
		status))
}

var (
	heading2Style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202"))
	heading3Style = lipgloss.NewStyle().Bold(true)
	boldStyle     = lipgloss.NewStyle().Bold(true)
)

// renderReport styles parsed report blocks for the terminal.
func renderReport(blocks []compare.Block) string {
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		var text strings.Builder
		for _, span := range block.Spans {
			if span.Bold {
				text.WriteString(boldStyle.Render(span.Text))
			} else {
				text.WriteString(span.Text)
			}
		}
		switch block.Kind {
		case compare.Heading2:
			lines = append(lines, heading2Style.Render(block.Text()))
		case compare.Heading3:
			lines = append(lines, heading3Style.Render(block.Text()))
		case compare.Bullet:
			lines = append(lines, "  • "+text.String())
		case compare.Numbered:
			lines = append(lines, fmt.Sprintf("  %d. %s", block.Number, text.String()))
		case compare.Spacer:
			lines = append(lines, "")
		default:
			lines = append(lines, text.String())
		}
	}
	return strings.Join(lines, "\n")
}
