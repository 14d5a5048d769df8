package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/usecase"
)

type usecaseFlags struct {
	config string
	out    string
	files  []string
}

const (
	usecaseIdle = iota
	usecaseAdding
	usecaseRunning
)

type usecaseCmdModel struct {
	app       *app
	generator *usecase.Generator
	out       string
	state     int
	cursor    int
	textinput textinput.Model
	spinner   spinner.Model
	clipboard artifact.Clipboard
	status    string
	err       error
}

func newUsecaseModel(a *app, f usecaseFlags) (usecaseCmdModel, error) {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	out := f.out
	if out == "" {
		out = a.cfg.OutputDir
	}

	g := usecase.NewGenerator(a.clients.Generator, a.logger)
	for _, path := range f.files {
		if err := g.AddFile(a.fs, path); err != nil {
			return usecaseCmdModel{}, err
		}
	}
	return usecaseCmdModel{
		app:       a,
		generator: g,
		out:       out,
		textinput: ti,
		spinner:   s,
		clipboard: systemClipboard{},
	}, nil
}

func (m usecaseCmdModel) Init() tea.Cmd {
	return nil
}

func (m usecaseCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.state {
		case usecaseAdding:
			return m.handleAddKey(msg)
		case usecaseRunning:
			return m, nil
		}
		return m.handleKeyPress(msg)
	case actionDoneMsg:
		m.state = usecaseIdle
		m.err = msg.err
		if msg.err == nil {
			m.status = "Use case documentation generated"
		}
		return m, nil
	case spinner.TickMsg:
		if m.state == usecaseRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if m.state == usecaseAdding {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m usecaseCmdModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	files := m.generator.Files()
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "a":
		m.state = usecaseAdding
		m.textinput.Reset()
		m.textinput.Placeholder = "path/to/file (" + strings.Join(usecase.Extensions, ",") + ")"
		m.textinput.Focus()
		return m, textinput.Blink
	case "x":
		if len(files) > 0 {
			m.generator.Remove(files[m.cursor].Name)
			if m.cursor > 0 && m.cursor >= len(files)-1 {
				m.cursor--
			}
		}
	case "enter", "g":
		if len(files) == 0 {
			m.err = errors.New("upload at least one source file")
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.state = usecaseRunning
		cmd := m.app.run("usecase", func(ctx context.Context) error {
			_, err := m.generator.Generate(ctx)
			return err
		})
		return m, tea.Batch(m.spinner.Tick, cmd)
	case "c":
		m.report(m.generator.Copy(m.clipboard), "Copied to clipboard")
	case "d":
		path, err := m.generator.Download(m.app.fs, m.out)
		m.report(err, "Saved "+path)
	default:
		m.cursor = moveCursor(msg, m.cursor, len(files))
	}
	return m, nil
}

func (m *usecaseCmdModel) report(err error, ok string) {
	m.err = err
	if err == nil {
		m.status = ok
	} else {
		m.status = ""
	}
}

func (m usecaseCmdModel) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = usecaseIdle
		m.textinput.Blur()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.textinput.Value())
		if path == "" {
			m.err = errors.New("enter a file path")
			return m, nil
		}
		m.err = m.generator.AddFile(m.app.fs, path)
		m.state = usecaseIdle
		m.textinput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m usecaseCmdModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("edpgen · use case documentation") + "\n\n")

	files := m.generator.Files()
	if len(files) == 0 {
		b.WriteString(faintStyle.Render("No source files uploaded.") + "\n")
	} else {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Name
		}
		b.WriteString(menu(names, m.cursor))
	}

	switch m.state {
	case usecaseAdding:
		b.WriteString("\nAdd source file:\n" + m.textinput.View())
		b.WriteString(helpStyle("\n\nenter add · esc cancel"))
	case usecaseRunning:
		b.WriteString(fmt.Sprintf("\n%s Generating documentation...", m.spinner.View()))
	default:
		if doc := m.generator.Document(); doc != "" {
			b.WriteString("\n" + boxStyle.Render(truncateLines(doc, 30)) + "\n")
		}
		b.WriteString(helpStyle("\na add · x remove · enter generate · c copy · d download · q quit"))
	}
	if m.status != "" {
		b.WriteString("\n\n" + check + " " + m.status)
	}
	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return b.String()
}
