// Package input provides the question prompt for the console.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/styles"
)

// QuestionInput wraps a bubbles textinput and remembers asked questions.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	// history holds submitted questions, oldest first. cursor indexes into
	// it while recalling; len(history) means the live draft.
	history []string
	cursor  int
	draft   string
}

// NewQuestionInput creates a focused question prompt.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about dishes, planets, chefs..."
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	return &QuestionInput{
		textinput: ti,
		styles:    s,
		width:     60,
	}
}

// Init starts the cursor blink.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the prompt.
func (q *QuestionInput) View() string {
	label := q.styles.Title.Render("Ask: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value and moves the cursor to its end.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
	q.textinput.CursorEnd()
}

// Commit records question in the history and clears the prompt.
func (q *QuestionInput) Commit(question string) {
	if n := len(q.history); n == 0 || q.history[n-1] != question {
		q.history = append(q.history, question)
	}
	q.cursor = len(q.history)
	q.draft = ""
	q.textinput.Reset()
}

// Previous recalls the previous question. It reports false at the oldest entry.
func (q *QuestionInput) Previous() bool {
	if q.cursor == 0 {
		return false
	}
	if q.cursor == len(q.history) {
		q.draft = q.textinput.Value()
	}
	q.cursor--
	q.SetValue(q.history[q.cursor])
	return true
}

// Next moves towards the newest question and finally back to the draft.
func (q *QuestionInput) Next() bool {
	if q.cursor >= len(q.history) {
		return false
	}
	q.cursor++
	if q.cursor == len(q.history) {
		q.SetValue(q.draft)
		return true
	}
	q.SetValue(q.history[q.cursor])
	return true
}

// History returns the submitted questions, oldest first.
func (q *QuestionInput) History() []string {
	return q.history
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	// label and border
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	q.textinput.Width = inputWidth
}

// Width returns the current width.
func (q *QuestionInput) Width() int {
	return q.width
}
