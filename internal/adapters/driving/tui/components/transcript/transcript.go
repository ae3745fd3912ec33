// Package transcript renders the questions asked in a console session.
package transcript

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/galassia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/galassia/internal/core/domain"
)

// Entry is one finished question.
type Entry struct {
	ID       int
	Question string
	Result   domain.WorkflowResult
	IDs      string
	Err      error
}

// Transcript holds the session's entries, oldest first.
type Transcript struct {
	styles    *styles.Styles
	entries   []Entry
	showTrace bool
	width     int
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{styles: s, width: 80}
}

// Add appends an entry.
func (t *Transcript) Add(e Entry) {
	t.entries = append(t.entries, e)
}

// Entries returns the entries, oldest first.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Reset removes every entry.
func (t *Transcript) Reset() {
	t.entries = nil
}

// ToggleTrace switches the stage trace on or off and returns the new setting.
func (t *Transcript) ToggleTrace() bool {
	t.showTrace = !t.showTrace
	return t.showTrace
}

// ShowTrace reports whether traces are rendered.
func (t *Transcript) ShowTrace() bool {
	return t.showTrace
}

// SetWidth sets the wrap width.
func (t *Transcript) SetWidth(width int) {
	t.width = width
}

// Render draws every entry.
func (t *Transcript) Render() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("No questions yet.")
	}
	blocks := make([]string, len(t.entries))
	for i, e := range t.entries {
		blocks[i] = t.renderEntry(e)
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderEntry(e Entry) string {
	wrap := t.styles.Normal.Width(t.width)
	var b strings.Builder

	b.WriteString(t.styles.Question.Render(fmt.Sprintf("[%d] %s", e.ID, e.Question)))
	if badge := t.styles.Route(e.Result.State.Route); badge != "" && e.Err == nil {
		b.WriteString(" " + badge)
	}
	b.WriteString("\n")

	if e.Err != nil {
		b.WriteString(t.styles.Error.Render("Failed: " + e.Err.Error()))
		return b.String()
	}

	answer := strings.TrimSpace(e.Result.Answer)
	if answer == "" {
		answer = "No answer."
	}
	b.WriteString(wrap.Render(answer))
	b.WriteString("\n")

	if len(e.Result.Results) > 0 {
		dishes := make([]string, len(e.Result.Results))
		for i, name := range e.Result.Results {
			dishes[i] = t.styles.Dish.Render(name)
		}
		b.WriteString(t.styles.Muted.Render("Dishes: ") + strings.Join(dishes, ", "))
		b.WriteString("\n")
	}
	if e.IDs != "" {
		b.WriteString(t.styles.Muted.Render("IDs: ") + t.styles.IDs.Render(e.IDs))
		b.WriteString("\n")
	}
	if e.Result.LowConfidence {
		b.WriteString(t.styles.Warning.Render("Low confidence: the regeneration limit was reached."))
		b.WriteString("\n")
	}
	if t.showTrace && len(e.Result.State.Trace) > 0 {
		stages := make([]string, len(e.Result.State.Trace))
		for i, s := range e.Result.State.Trace {
			stages[i] = s.String()
		}
		b.WriteString(t.styles.Muted.Render("Trace: " + strings.Join(stages, " > ")))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
