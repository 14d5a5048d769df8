package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/edpgen/fs"
)

type progressMsg float64

type progressErrMsg struct{ err error }

type downloadCompleteMsg struct{}

type getFlags struct {
	server  string
	session string
	token   string
}

const (
	downloading = iota
	prompting
)

const (
	padding  = 2
	maxWidth = 80
)

type getCmdModel struct {
	pw        *progressWriter
	progress  progress.Model
	fs        *fs.FileSystem
	textinput textinput.Model
	state     int
	err       error
}

func newGetCmdModel(pw *progressWriter, fsys *fs.FileSystem, defaultDir string) getCmdModel {
	ti := textinput.New()
	ti.Placeholder = defaultDir
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return getCmdModel{
		pw:        pw,
		progress:  progress.New(progress.WithGradient("#FFBA08", "#F48C06")),
		fs:        fsys,
		textinput: ti,
		state:     downloading,
	}
}

func (m getCmdModel) Init() tea.Cmd {
	return nil
}

func (m getCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEscape || msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && m.state == prompting {
			dir := strings.TrimSpace(m.textinput.Value())
			if dir == "" {
				dir = m.textinput.Placeholder
			}
			return m.handleSaveFiles(dir)
		}
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil

	case progressErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case progressMsg:
		var cmds []tea.Cmd
		if msg >= 1.0 {
			cmds = append(cmds, tea.Sequence(finalPause(), func() tea.Msg {
				return downloadCompleteMsg{}
			}))
		}
		cmds = append(cmds, m.progress.SetPercent(float64(msg)))
		return m, tea.Batch(cmds...)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case downloadCompleteMsg:
		m.state = prompting
		return m, textinput.Blink
	}
	if m.state != prompting {
		return m, nil
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m getCmdModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	if m.state == prompting {
		return fmt.Sprintf("\nSave generated files to: %s", m.textinput.View())
	}
	pad := strings.Repeat(" ", padding)
	return "\n" +
		pad + m.progress.View() + "\n\n" +
		pad + helpStyle("Press esc to quit")
}

func finalPause() tea.Cmd {
	return tea.Tick(time.Millisecond*750, func(_ time.Time) tea.Msg {
		return nil
	})
}

func (m getCmdModel) handleSaveFiles(dir string) (tea.Model, tea.Cmd) {
	paths, err := extractArchive(m.fs, m.pw.buf.Bytes(), dir)
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("%s Saved %s", check, nameStyle.Render(p)))
	}
	return m, tea.Sequence(tea.Printf("%s", strings.Join(lines, "\n")), tea.Quit)
}

// extractArchive writes every entry of a zip archive under dir and returns
// the written paths in name order.
func extractArchive(fsys *fs.FileSystem, data []byte, dir string) ([]string, error) {
	entries, err := fs.ReadZipBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error reading archive: %w", err)
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if !strings.HasPrefix(path, filepath.Clean(dir)+string(filepath.Separator)) {
			return nil, fmt.Errorf("invalid file path: %s", name)
		}
		if err := fsys.WriteFile(path, entries[name]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// archiveURL is where the server exposes a session's generated files.
func archiveURL(server, session string) string {
	return strings.TrimRight(server, "/") + "/sessions/" + session + "/archive"
}

func downloadFile(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if token != "" {
		req.Header.Add("Authorization", "Bearer "+token)
	}
	req.Header.Add("Accept", "application/zip")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, fmt.Errorf("token is invalid or has expired")
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("session not found or has no generated files")
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/zip" && contentType != "application/octet-stream" {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected content type: %s", contentType)
	}
	return resp, nil
}

type progressWriter struct {
	total      int
	downloaded int
	buf        bytes.Buffer
	reader     io.Reader
	onProgress func(float64)
}

func (pw *progressWriter) Start(p *tea.Program) {
	// TeeReader calls pw.Write() each time a new response is received
	_, err := io.Copy(&pw.buf, io.TeeReader(pw.reader, pw))
	if err != nil {
		p.Send(progressErrMsg{err})
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += len(p)
	if pw.total > 0 && pw.onProgress != nil {
		pw.onProgress(float64(pw.downloaded) / float64(pw.total))
	}
	return len(p), nil
}
