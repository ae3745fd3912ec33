package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/styles"
)

// chromeHeight is the number of rows taken by the header, prompt and status bar.
const chromeHeight = 7

// App is the console application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	statusBar  *status.Bar
	transcript *transcript.Transcript
	viewport   viewport.Model
	spinner    spinner.Model

	// nextID numbers questions from 1 within the session.
	nextID int

	// pending is the question being answered, empty when idle.
	pending string

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a console with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		statusBar:  status.NewBar(s, km),
		transcript: transcript.New(s),
		viewport:   viewport.New(80, 20),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.Title),
		),
		nextID: 1,
	}, nil
}

// WithContext sets the context passed to workflow runs.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("galassia"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.Busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.AnswerReceived:
		a.handleAnswer(msg)
		return a, nil

	case messages.TranscriptCleared:
		a.transcript.Reset()
		a.statusBar.Reset()
		a.refresh()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Ask):
		return a, a.submit()

	case keymap.Matches(k, a.keymap.Previous):
		a.input.Previous()
		return a, nil

	case keymap.Matches(k, a.keymap.Next):
		a.input.Next()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollUp), keymap.Matches(k, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case keymap.Matches(k, a.keymap.Trace):
		a.transcript.ToggleTrace()
		a.refresh()
		return a, nil

	case keymap.Matches(k, a.keymap.Clear):
		return a, func() tea.Msg { return messages.TranscriptCleared{} }
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit hands the typed question to the workflow. Only one question runs
// at a time.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.Busy() {
		return nil
	}

	id := a.nextID
	a.nextID++
	a.pending = question
	a.input.Commit(question)
	a.statusBar.Begin(fmt.Sprintf("Answering question %d...", id))

	return tea.Batch(a.spinner.Tick, a.ask(id, question))
}

func (a *App) ask(id int, question string) tea.Cmd {
	workflow := a.ports.Workflow
	ctx := a.ctx
	return func() tea.Msg {
		result, err := workflow.RunWorkflow(ctx, question, id)
		return messages.AnswerReceived{ID: id, Question: question, Result: result, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReceived) {
	a.pending = ""

	entry := transcript.Entry{
		ID:       msg.ID,
		Question: msg.Question,
		Result:   msg.Result,
		Err:      msg.Err,
	}
	if msg.Err == nil && a.ports.Formatter != nil {
		entry.IDs = a.ports.Formatter.Format(msg.Result.Results)
	}
	a.transcript.Add(entry)

	if msg.Err != nil {
		a.statusBar.Fail(msg.Err)
	} else {
		a.statusBar.Done(msg.Result.LowConfidence)
	}
	a.refresh()
	a.viewport.GotoBottom()
}

// refresh re-renders the transcript into the viewport.
func (a *App) refresh() {
	a.viewport.SetContent(a.transcript.Render())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("galassia") + a.styles.Muted.Render("  intergalactic menu assistant")

	pending := ""
	if a.Busy() {
		pending = a.spinner.View() + " " + a.styles.Muted.Render(a.pending)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		a.viewport.View(),
		pending,
		a.input.View(),
		a.statusBar.View(),
	)
}

// Run starts the console.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.pending != ""
}

// Transcript returns the session transcript.
func (a *App) Transcript() *transcript.Transcript {
	return a.transcript
}

// Status returns the status bar.
func (a *App) Status() *status.Bar {
	return a.statusBar
}

// Input returns the question prompt.
func (a *App) Input() *input.QuestionInput {
	return a.input
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.SetWidth(width)
	a.statusBar.SetWidth(width)
	a.transcript.SetWidth(width)

	a.viewport.Width = width
	a.viewport.Height = max(height-chromeHeight, 3)
	a.refresh()
}
