// Package status renders the console status line: what the workflow is
// doing, a tally of the session, and the key hints.
package status

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/styles"
)

// State is the console activity shown on the left of the bar.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Tally counts the questions of a session.
type Tally struct {
	Answered      int
	LowConfidence int
	Failed        int
}

func (t Tally) String() string {
	if t == (Tally{}) {
		return ""
	}
	parts := []string{fmt.Sprintf("%d answered", t.Answered)}
	if t.LowConfidence > 0 {
		parts = append(parts, fmt.Sprintf("%d low confidence", t.LowConfidence))
	}
	if t.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", t.Failed))
	}
	return strings.Join(parts, ", ")
}

// Bar is the bottom line of the console.
type Bar struct {
	styles  *styles.Styles
	hints   string
	state   State
	message string
	tally   Tally
	width   int
}

// NewBar builds a ready bar. Nil arguments take the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		hints:  hintLine(km),
		state:  StateReady,
		width:  80,
	}
}

func hintLine(km *keymap.KeyMap) string {
	var hints []string
	for _, b := range km.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

// Begin shows message while a question is answered.
func (b *Bar) Begin(message string) {
	b.state = StateThinking
	b.message = message
}

// Done records an answered question.
func (b *Bar) Done(lowConfidence bool) {
	b.state = StateReady
	b.message = ""
	b.tally.Answered++
	if lowConfidence {
		b.tally.LowConfidence++
	}
}

// Fail records a question that ended in err.
func (b *Bar) Fail(err error) {
	b.state = StateError
	b.message = ""
	if err != nil {
		b.message = err.Error()
	}
	b.tally.Failed++
}

// Reset forgets the session.
func (b *Bar) Reset() {
	b.state = StateReady
	b.message = ""
	b.tally = Tally{}
}

func (b *Bar) State() State    { return b.state }
func (b *Bar) Message() string { return b.message }
func (b *Bar) Tally() Tally    { return b.tally }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left := b.activity()
	right := b.styles.Muted.Render(b.hints)

	gap := max(1, b.width-lipgloss.Width(left)-lipgloss.Width(right))
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) activity() string {
	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render(cmp.Or(b.message, "Thinking..."))
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	}
	if summary := b.tally.String(); summary != "" {
		return b.styles.Normal.Render(summary)
	}
	return b.styles.Muted.Render("Ready")
}
