package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/edpgen/config"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
)

// app bundles what every screen needs.
type app struct {
	cfg     *config.Config
	clients *llm.Clients
	fs      *fs.FileSystem
	logger  logger.Logger
	engine  *Engine
	pub     *CliStepPublisher
	ctx     context.Context
	cancel  context.CancelFunc
}

func newApp(configPath string) (*app, error) {
	logger.InitLogger()
	l := logger.GetLogger()
	l.Debug("Initializing edpgen CLI")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	clients, err := llm.NewClients(cfg, l)
	if err != nil {
		return nil, err
	}
	return newAppWith(cfg, clients, fs.NewOsFileSystem(), l)
}

func newAppWith(cfg *config.Config, clients *llm.Clients, fsys *fs.FileSystem, l logger.Logger) (*app, error) {
	pub := NewCliStepPublisher(l)
	engine, err := NewEngine(pub, l, 1, fsys)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	engine.Start(ctx)
	return &app{
		cfg:     cfg,
		clients: clients,
		fs:      fsys,
		logger:  l,
		engine:  engine,
		pub:     pub,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (a *app) Shutdown() {
	a.cancel()
	a.engine.Shutdown(5 * time.Second)
}

// actionDoneMsg carries the result of an engine request back to a model.
type actionDoneMsg struct {
	name string
	err  error
}

// run queues fn on the engine and reports completion as an actionDoneMsg.
// fn gets a context that expires after cfg.Timeout.
func (a *app) run(name string, fn func(ctx context.Context) error) tea.Cmd {
	timeout := a.cfg.Timeout
	resultChan := a.engine.AddRequest(name, func(ctx context.Context) error {
		if timeout <= 0 {
			return fn(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := fn(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Error(fmt.Sprintf("%s timed out after %v", name, timeout))
			return fmt.Errorf("%s timed out after %v: %w", name, timeout, err)
		}
		return err
	})
	return func() tea.Msg {
		return actionDoneMsg{name: name, err: <-resultChan}
	}
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render
	check         = successStyle.Render("✓")
)

// menu renders options with a cursor marker.
func menu(options []string, cursor int) string {
	var out string
	for i, o := range options {
		if i == cursor {
			out += selectedStyle.Render("> "+o) + "\n"
		} else {
			out += "  " + o + "\n"
		}
	}
	return out
}

// moveCursor handles up/down keys over n options.
func moveCursor(msg tea.KeyMsg, cursor, n int) int {
	switch msg.String() {
	case "up", "k":
		if cursor > 0 {
			cursor--
		}
	case "down", "j":
		if cursor < n-1 {
			cursor++
		}
	}
	return cursor
}
