package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haivivi/bodyview/pkg/view"
)

// Theme is the TUI color scheme.
type Theme struct {
	Primary  lipgloss.Color
	Dim      lipgloss.Color
	Color    lipgloss.Color
	Depth    lipgloss.Color
	Skeleton lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary:  lipgloss.Color("#00ff9f"),
	Dim:      lipgloss.Color("#6e7681"),
	Color:    lipgloss.Color("#ffb86c"),
	Depth:    lipgloss.Color("#8be9fd"),
	Skeleton: lipgloss.Color("#50fa7b"),
}

// Styles are derived from a Theme.
type Styles struct {
	theme Theme

	Title lipgloss.Style
	Label lipgloss.Style
	Help  lipgloss.Style
	Panel lipgloss.Style
}

// NewStyles creates styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		theme: t,
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
	}
}

func (s Styles) modeColor(m view.Mode) lipgloss.Color {
	switch m {
	case view.ModeDepth:
		return s.theme.Depth
	case view.ModeSkeleton:
		return s.theme.Skeleton
	default:
		return s.theme.Color
	}
}

// ModeBadge renders the mode name highlighted in its color.
func (s Styles) ModeBadge(m view.Mode, suppressed bool) string {
	text := " " + strings.ToUpper(m.String()) + " "
	badge := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(s.modeColor(m)).
		Render(text)
	if suppressed && m == view.ModeSkeleton {
		badge += " " + s.Help.Render("overlay hidden")
	}
	return badge
}

// Preview tints an ASCII preview with the color of its mode.
func (s Styles) Preview(m view.Mode, ascii string) string {
	return lipgloss.NewStyle().Foreground(s.modeColor(m)).Render(ascii)
}

// Section is a labeled block of lines.
type Section struct {
	Label string
	Lines []string
}

// Frame is a full-screen TUI layout: a title bar, panels side by side and
// a help line.
type Frame struct {
	Styles Styles
	Title  string
	Status string
	Left   []Section
	Right  []Section
	Help   string
}

// Render lays out the frame for a terminal of the given size.
func (f Frame) Render(width, height int) string {
	if width == 0 || height == 0 {
		return "Loading..."
	}
	title := f.Styles.Title.Render(f.Title) + " " + f.Styles.Help.Render("["+f.Status+"]")

	// Two borders and the horizontal padding per panel.
	frameW := f.Styles.Panel.GetHorizontalFrameSize()
	leftW := max(width/2-frameW, 10)
	rightW := max(width-leftW-2*frameW, 10)
	bodyH := max(height-4, 3)

	left := f.Styles.Panel.Width(leftW).Height(bodyH).Render(f.renderSections(f.Left, leftW, bodyH))
	right := f.Styles.Panel.Width(rightW).Height(bodyH).Render(f.renderSections(f.Right, rightW, bodyH))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		f.Styles.Help.Render(f.Help),
	)
}

// renderSections stacks sections and keeps the tail of the last one when
// they do not fit.
func (f Frame) renderSections(secs []Section, width, height int) string {
	var lines []string
	for i, sec := range secs {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, f.Styles.Label.Render(sec.Label))
		for _, l := range sec.Lines {
			lines = append(lines, truncate(l, width))
		}
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to width cells, ending with an ellipsis.
func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width-1 {
			return s[:i] + "…"
		}
		w += rw
	}
	return s
}
