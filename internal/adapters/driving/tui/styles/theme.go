// Package styles holds the console palette and the lipgloss styles built
// from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// Theme is the console palette. Accent colours the header and prompt, Dish
// colours entity names and Web marks answers sourced from web search.
type Theme struct {
	Accent  lipgloss.Color
	Dish    lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
	IDs     lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Web     lipgloss.Color
	Border  lipgloss.Color
	Bar     lipgloss.Color
}

// DefaultTheme is a dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#7C3AED"),
		Dish:    lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		IDs:     lipgloss.Color("#A6E3A1"),
		Warning: lipgloss.Color("#F9E2AF"),
		Error:   lipgloss.Color("#F38BA8"),
		Web:     lipgloss.Color("#FAB387"),
		Border:  lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the rendered roles of the console.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Question   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Dish       lipgloss.Style
	IDs        lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	routes map[domain.Route]lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	badge := func(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true).Padding(0, 1) }

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Question:   fg(theme.Text).Bold(true),
		Normal:     fg(theme.Text),
		Muted:      fg(theme.Dim),
		Dish:       fg(theme.Dish),
		IDs:        fg(theme.IDs).Bold(true),
		Error:      fg(theme.Error),
		Warning:    fg(theme.Warning),
		InputField: lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border).Padding(0, 1),
		StatusBar:  fg(theme.Dim).Background(theme.Bar).Padding(0, 1),
		routes: map[domain.Route]lipgloss.Style{
			domain.RouteVectorstore: badge(theme.Dish),
			domain.RouteWebsearch:   badge(theme.Web),
		},
	}
}

func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

func (s *Styles) Theme() *Theme {
	return s.theme
}

// Route renders the datasource a question was answered from. Runs that
// failed before routing render nothing.
func (s *Styles) Route(route domain.Route) string {
	style, ok := s.routes[route]
	if !ok {
		return ""
	}
	return style.Render(route.String())
}
