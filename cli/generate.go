package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/core"
)

type screen int

const (
	screenSource screen = iota
	screenFile
	screenText
	screenSummarizing
	screenTarget
	screenComponent
	screenPrompt
	screenGenerating
	screenFiles
	screenRegenerate
	screenBatch
	screenFinished
)

type genFlags struct {
	file      string
	text      string
	config    string
	target    string
	component string
	out       string
	zip       bool
}

// batch reports whether the flags describe a complete non-interactive run.
func (f genFlags) batch() bool {
	return f.target != "" && f.component != "" && (f.file != "" || f.text != "")
}

var sourceOptions = []core.InputSource{core.UploadDocument, core.ReferenceIndex}

func sourceLabel(s core.InputSource) string {
	if s == core.UploadDocument {
		return "Upload a specification document (.txt, .md, .doc, .docx, .odt)"
	}
	return "Type the specification (reference index)"
}

type generateCmdModel struct {
	app            *app
	wizard         *core.Wizard
	flags          genFlags
	screen         screen
	cursor         int
	textInput      textinput.Model
	textArea       textarea.Model
	spinner        spinner.Model
	editing        bool
	busyLabel      string
	status         string
	err            error
	steps          []core.StepType
	completedSteps []core.StepType
	pipeline       *core.Pipeline
	resultChan     chan error
	clipboard      artifact.Clipboard
}

func newGenerateModel(a *app, f genFlags) (generateCmdModel, error) {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 80

	ta := textarea.New()
	ta.SetWidth(100)
	ta.SetHeight(12)
	ta.CharLimit = 0

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	if f.out == "" {
		f.out = a.cfg.OutputDir
	}

	w := core.NewWizard(a.clients.Summarizer, a.clients.Generator, nil,
		core.Options{RemoteRegenerate: a.cfg.Regenerate.Remote}, a.logger)

	m := generateCmdModel{
		app:       a,
		wizard:    w,
		flags:     f,
		screen:    screenSource,
		textInput: ti,
		textArea:  ta,
		spinner:   s,
		clipboard: systemClipboard{},
	}

	switch {
	case f.batch():
		req, err := m.batchRequest()
		if err != nil {
			return generateCmdModel{}, err
		}
		if err := req.Validate(); err != nil {
			return generateCmdModel{}, err
		}
		m.screen = screenBatch
		m.steps = core.NewDefaultStepManager(req).GetSteps()
		m.pipeline, m.resultChan = a.engine.AddPipeline(req, w)
	case f.text != "":
		if _, err := w.Dispatch(core.SelectInputSource{Source: core.ReferenceIndex}); err != nil {
			return generateCmdModel{}, err
		}
		if _, err := w.Dispatch(core.SetSpecificationText{Text: f.text}); err != nil {
			return generateCmdModel{}, err
		}
		m.screen = screenTarget
	case f.file != "":
		m.screen = screenFile
		m.textInput.SetValue(f.file)
		m.textInput.Focus()
	}
	return m, nil
}

func (m generateCmdModel) Init() tea.Cmd {
	switch m.screen {
	case screenBatch:
		return tea.Batch(m.spinner.Tick, m.startPipeline())
	case screenFile:
		return textinput.Blink
	}
	return nil
}

func (m generateCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.handleQuit()
		}
		return m.handleKeyPress(msg)
	case actionDoneMsg:
		return m.handleActionDone(msg)
	case core.StepType:
		return m.handleStep(msg)
	case stepErrorMsg:
		m.app.logger.Error(fmt.Sprintf("Error received during generation: %v", msg))
		m.err = msg
		return m, nil
	case spinner.TickMsg:
		if m.waiting() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m generateCmdModel) waiting() bool {
	return m.screen == screenSummarizing || m.screen == screenGenerating || m.screen == screenBatch
}

func (m *generateCmdModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenFile, screenRegenerate:
		m.textInput, cmd = m.textInput.Update(msg)
	case screenText:
		m.textArea, cmd = m.textArea.Update(msg)
	case screenPrompt:
		if m.editing {
			m.textArea, cmd = m.textArea.Update(msg)
		}
	}
	return m, cmd
}

// handleKeyPress routes a key to the handler of the active screen.
func (m *generateCmdModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenSource:
		return m.handleSourceKey(msg)
	case screenFile:
		return m.handleFileKey(msg)
	case screenText:
		return m.handleTextKey(msg)
	case screenTarget:
		return m.handleTargetKey(msg)
	case screenComponent:
		return m.handleComponentKey(msg)
	case screenPrompt:
		return m.handlePromptKey(msg)
	case screenFiles:
		return m.handleFilesKey(msg)
	case screenRegenerate:
		return m.handleRegenerateKey(msg)
	}
	return m, nil
}

func (m *generateCmdModel) dispatch(ev core.Event) bool {
	if _, err := m.wizard.Dispatch(ev); err != nil {
		m.err = err
		return false
	}
	m.err = nil
	return true
}

func (m *generateCmdModel) handleSourceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.handleQuit()
	case tea.KeyEnter:
		source := sourceOptions[m.cursor]
		if !m.dispatch(core.SelectInputSource{Source: source}) {
			return m, nil
		}
		m.status = ""
		if source == core.UploadDocument {
			m.screen = screenFile
			m.textInput.Reset()
			m.textInput.Placeholder = "path/to/specification.docx"
			m.textInput.Focus()
			return m, textinput.Blink
		}
		m.screen = screenText
		m.textArea.Reset()
		m.textArea.Placeholder = "Describe the use case..."
		return m, m.textArea.Focus()
	}
	m.cursor = moveCursor(msg, m.cursor, len(sourceOptions))
	return m, nil
}

func (m *generateCmdModel) handleFileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenSource
		m.textInput.Blur()
		return m, nil
	case tea.KeyTab:
		m.dispatch(core.SetUseSummarizedInput{Enabled: !m.wizard.State().UseSummarizedInput})
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.textInput.Value())
		if path == "" {
			m.err = errors.New("enter the path of a specification document")
			return m, nil
		}
		m.err = nil
		m.screen = screenSummarizing
		m.busyLabel = "Extracting and summarizing " + filepath.Base(path)
		if m.wizard.State().UseSummarizedInput {
			m.busyLabel = "Extracting " + filepath.Base(path)
		}
		cmd := m.app.run("summarize", func(ctx context.Context) error {
			data, err := m.app.fs.ReadFile(path)
			if err != nil {
				return err
			}
			return m.wizard.Upload(ctx, filepath.Base(path), data)
		})
		return m, tea.Batch(m.spinner.Tick, cmd)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *generateCmdModel) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenSource
		m.textArea.Blur()
		return m, nil
	case tea.KeyCtrlS:
		text := m.textArea.Value()
		if strings.TrimSpace(text) == "" {
			m.err = errors.New("the specification is empty")
			return m, nil
		}
		if !m.dispatch(core.SetSpecificationText{Text: text}) {
			return m, nil
		}
		m.textArea.Blur()
		m.screen = screenTarget
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.textArea, cmd = m.textArea.Update(msg)
	return m, cmd
}

func (m *generateCmdModel) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := catalog.Targets()
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenSource
		m.cursor = 0
		return m, nil
	case tea.KeyEnter:
		if m.dispatch(core.SelectCodeTarget{Target: targets[m.cursor]}) {
			m.screen = screenComponent
			m.cursor = 0
			m.status = ""
		}
		return m, nil
	}
	m.cursor = moveCursor(msg, m.cursor, len(targets))
	return m, nil
}

func (m *generateCmdModel) handleComponentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	components := catalog.ComponentsFor(m.wizard.State().CodeTarget)
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenTarget
		m.cursor = 0
		return m, nil
	case tea.KeyEnter:
		if m.dispatch(core.SelectComponentType{Component: components[m.cursor]}) {
			m.screen = screenPrompt
			m.editing = false
			m.textArea.Blur()
			m.textArea.SetValue(m.wizard.State().PromptText)
		}
		return m, nil
	}
	m.cursor = moveCursor(msg, m.cursor, len(components))
	return m, nil
}

func (m *generateCmdModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyCtrlS:
			if m.dispatch(core.EditPrompt{Text: m.textArea.Value()}) {
				m.editing = false
				m.textArea.Blur()
				m.status = "Prompt saved"
			}
			return m, nil
		case tea.KeyEsc:
			m.editing = false
			m.textArea.Blur()
			m.textArea.SetValue(m.wizard.State().PromptText)
			return m, nil
		}
		var cmd tea.Cmd
		m.textArea, cmd = m.textArea.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.screen = screenComponent
		m.cursor = 0
	case "e":
		if m.wizard.State().IsEditingPrompt {
			if m.dispatch(core.SetEditingPrompt{Editing: false}) {
				m.textArea.SetValue(m.wizard.State().PromptText)
				m.status = "Template prompt restored"
			}
			return m, nil
		}
		if m.dispatch(core.SetEditingPrompt{Editing: true}) {
			m.editing = true
			m.textArea.SetValue(m.wizard.State().PromptText)
			return m, m.textArea.Focus()
		}
	case "enter", "g":
		return m.startGenerate()
	}
	return m, nil
}

func (m *generateCmdModel) startGenerate() (tea.Model, tea.Cmd) {
	if err := core.CanGenerate(m.wizard.State()).Error(); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.screen = screenGenerating
	m.busyLabel = "Generating code"
	return m, tea.Batch(m.spinner.Tick, m.app.run("generate", m.wizard.Generate))
}

func (m *generateCmdModel) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.wizard.State()
	switch msg.String() {
	case "q", "esc":
		return m.handleQuit()
	case "left", "right", "tab":
		files := s.Files.Files()
		if len(files) > 1 {
			idx := 0
			for i, f := range files {
				if f.ID == s.Files.ActiveID() {
					idx = i
				}
			}
			if msg.String() == "left" {
				idx = (idx + len(files) - 1) % len(files)
			} else {
				idx = (idx + 1) % len(files)
			}
			m.dispatch(core.SelectFile{ID: files[idx].ID})
		}
	case "c":
		m.report(s.Files.CopyActive(m.clipboard), "Copied to clipboard")
	case "d":
		path, err := s.Files.DownloadActive(m.app.fs, m.flags.out)
		m.report(err, "Saved "+path)
	case "a":
		path, err := s.Files.DownloadAll(m.app.fs, m.flags.out)
		m.report(err, "Saved "+path)
	case "r":
		m.screen = screenRegenerate
		m.textInput.Reset()
		m.textInput.Placeholder = "Describe the change..."
		m.textInput.Focus()
		return m, textinput.Blink
	case "p":
		m.screen = screenPrompt
		m.textArea.SetValue(s.PromptText)
	case "t":
		m.screen = screenTarget
		m.cursor = 0
	}
	return m, nil
}

func (m *generateCmdModel) report(err error, ok string) {
	if err != nil {
		m.err = err
		m.status = ""
		return
	}
	m.err = nil
	m.status = ok
}

func (m *generateCmdModel) handleRegenerateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenFiles
		m.textInput.Blur()
		return m, nil
	case tea.KeyEnter:
		active, ok := m.wizard.State().Files.Active()
		if !ok {
			m.screen = screenFiles
			return m, nil
		}
		instruction := m.textInput.Value()
		if err := core.CanRegenerate(m.wizard.State(), active.Name, instruction).Error(); err != nil {
			m.err = err
			return m, nil
		}
		m.textInput.Blur()
		m.screen = screenGenerating
		m.busyLabel = "Regenerating " + active.Name
		cmd := m.app.run("regenerate", func(ctx context.Context) error {
			return m.wizard.Regenerate(ctx, active.Name, instruction)
		})
		return m, tea.Batch(m.spinner.Tick, cmd)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *generateCmdModel) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.err = msg.err
	switch msg.name {
	case "summarize":
		if msg.err != nil {
			m.screen = screenFile
			m.textInput.Focus()
			return m, textinput.Blink
		}
		m.screen = screenTarget
		m.cursor = 0
		m.status = "Specification summarized"
		if m.wizard.State().UseSummarizedInput {
			m.status = "Document used as the summarized specification"
		}
	case "generate":
		if msg.err != nil {
			m.screen = screenPrompt
			return m, nil
		}
		m.screen = screenFiles
		m.status = fmt.Sprintf("Generated %d file(s)", m.wizard.State().Files.Len())
	case "regenerate":
		m.screen = screenFiles
		if msg.err == nil {
			m.status = "File regenerated"
		}
	case "pipeline":
		return m.handleFinalization(msg.err)
	}
	return m, nil
}

func (m generateCmdModel) startPipeline() tea.Cmd {
	resultChan := m.resultChan
	wait := func() tea.Msg {
		return actionDoneMsg{name: "pipeline", err: <-resultChan}
	}
	return tea.Batch(m.app.pub.listen, wait)
}

func (m *generateCmdModel) batchRequest() (*core.Request, error) {
	target, err := catalog.ParseTarget(m.flags.target)
	if err != nil {
		return nil, err
	}
	component, err := catalog.ParseComponent(target, m.flags.component)
	if err != nil {
		return nil, err
	}
	req := core.NewRequest(m.flags.file, m.flags.text, target, component, m.flags.out)
	req.Zip = m.flags.zip
	return req, nil
}

func (m *generateCmdModel) handleStep(step core.StepType) (tea.Model, tea.Cmd) {
	m.app.logger.Debug(fmt.Sprintf("Received step: %v", step))
	m.completedSteps = append(m.completedSteps, step)
	if step == core.Done {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, m.app.pub.listen)
}

func (m *generateCmdModel) handleFinalization(err error) (tea.Model, tea.Cmd) {
	m.screen = screenFinished
	if err != nil {
		m.err = err
		return m, tea.Sequence(tea.Printf("%s", errorStyle.Render("Error: "+err.Error())), tea.Quit)
	}
	var paths []string
	if m.pipeline != nil {
		paths = m.pipeline.SavedPaths()
	}
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	var out strings.Builder
	for _, p := range paths {
		out.WriteString(fmt.Sprintf("%s Saved %s\n", check, nameStyle.Render(p)))
	}
	return m, tea.Sequence(tea.Printf("%s", strings.TrimRight(out.String(), "\n")), tea.Quit)
}

// handleQuit leaves the program.
func (m *generateCmdModel) handleQuit() (tea.Model, tea.Cmd) {
	m.app.logger.Debug("User exited the application")
	m.screen = screenFinished
	return m, tea.Sequence(tea.Printf("%s", faintStyle.Render("Exiting...")), tea.Quit)
}

var stepLabels = map[core.StepType][2]string{
	core.LoadSpecification:      {"Loading specification.", "Loaded specification."},
	core.SummarizeSpecification: {"Summarizing specification.", "Summarized specification."},
	core.BuildPrompt:            {"Building prompt.", "Built prompt."},
	core.GenerateCode:           {"Generating code.", "Generated code."},
	core.SaveFiles:              {"Saving files.", "Saved files."},
	core.Done:                   {"Done.", "Done."},
}

func (m generateCmdModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("edpgen · code generation"))
	if m.screen != screenBatch && m.screen != screenFinished {
		step := m.wizard.State().Step()
		b.WriteString(faintStyle.Render(fmt.Sprintf("  step %d/4 (%s)", int(step)+1, step)))
	}
	b.WriteString("\n\n")

	switch m.screen {
	case screenSource:
		b.WriteString("How will you provide the specification?\n\n")
		labels := make([]string, len(sourceOptions))
		for i, s := range sourceOptions {
			labels[i] = sourceLabel(s)
		}
		b.WriteString(menu(labels, m.cursor))
		b.WriteString(helpStyle("\n↑/↓ choose · enter select · esc quit"))
	case screenFile:
		b.WriteString("Specification document:\n\n" + m.textInput.View())
		box := "[ ]"
		if m.wizard.State().UseSummarizedInput {
			box = "[x]"
		}
		b.WriteString("\n\n" + box + " File is already summarized (skip AI summarization)")
		b.WriteString(helpStyle("\n\nenter upload · tab toggle summarized · esc back"))
	case screenText:
		b.WriteString("Specification text:\n\n" + m.textArea.View())
		b.WriteString(helpStyle("\n\nctrl+s continue · esc back"))
	case screenSummarizing, screenGenerating:
		b.WriteString(fmt.Sprintf("%s %s...", m.spinner.View(), m.busyLabel))
	case screenTarget:
		b.WriteString("Code target:\n\n")
		targets := catalog.Targets()
		labels := make([]string, len(targets))
		for i, t := range targets {
			labels[i] = string(t)
		}
		b.WriteString(menu(labels, m.cursor))
		b.WriteString(helpStyle("\n↑/↓ choose · enter select · esc back"))
	case screenComponent:
		s := m.wizard.State()
		b.WriteString(fmt.Sprintf("Component type for %s:\n\n", s.CodeTarget))
		components := catalog.ComponentsFor(s.CodeTarget)
		labels := make([]string, len(components))
		for i, c := range components {
			labels[i] = string(c)
		}
		b.WriteString(menu(labels, m.cursor))
		b.WriteString(helpStyle("\n↑/↓ choose · enter select · esc back"))
	case screenPrompt:
		s := m.wizard.State()
		mode := "template"
		if s.IsEditingPrompt {
			mode = "edited"
		}
		b.WriteString(fmt.Sprintf("Prompt for %s/%s (%s):\n\n", s.CodeTarget, s.ComponentType, mode))
		if m.editing {
			b.WriteString(m.textArea.View())
			b.WriteString(helpStyle("\n\nctrl+s save · esc cancel"))
		} else {
			b.WriteString(boxStyle.Render(truncateLines(s.PromptText, 20)))
			b.WriteString(helpStyle("\n\nenter generate · e edit/restore prompt · esc back"))
		}
	case screenFiles:
		b.WriteString(m.filesView())
	case screenRegenerate:
		active, _ := m.wizard.State().Files.Active()
		b.WriteString(fmt.Sprintf("Regenerate %s:\n\n%s", active.Name, m.textInput.View()))
		b.WriteString(helpStyle("\n\nenter regenerate · esc back"))
	case screenBatch:
		b.WriteString(m.batchView())
	case screenFinished:
		return ""
	}

	if m.status != "" {
		b.WriteString("\n\n" + check + " " + m.status)
	}
	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return b.String()
}

func (m generateCmdModel) filesView() string {
	s := m.wizard.State()
	var tabs []string
	for _, f := range s.Files.Files() {
		name := f.DownloadName()
		if f.ID == s.Files.ActiveID() {
			tabs = append(tabs, selectedStyle.Render("["+name+"]"))
		} else {
			tabs = append(tabs, faintStyle.Render(name))
		}
	}
	active, ok := s.Files.Active()
	if !ok {
		return "No files generated."
	}
	return strings.Join(tabs, "  ") + "\n" +
		faintStyle.Render(string(active.Language)) + "\n" +
		boxStyle.Render(truncateLines(active.Content, 30)) +
		helpStyle("\n\nc copy · d download · a download all · r regenerate · p prompt · t target · q quit")
}

func (m generateCmdModel) batchView() string {
	enumerator := func(l list.Items, i int) string {
		if i < len(m.completedSteps) {
			return check
		}
		if i == len(m.completedSteps) {
			return m.spinner.View()
		}
		return ""
	}

	l := list.New().Enumerator(enumerator)
	for i, step := range m.steps {
		labels := stepLabels[step]
		if i < len(m.completedSteps) {
			l.Item(labels[1])
		} else if i == len(m.completedSteps) {
			l.Item(labels[0])
		}
	}
	return fmt.Sprint(l)
}

// truncateLines keeps the first n lines of s.
func truncateLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n" + faintStyle.Render(fmt.Sprintf("... %d more lines", len(lines)-n))
}
