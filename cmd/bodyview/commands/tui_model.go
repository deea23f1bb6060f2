package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/display"
	"github.com/haivivi/bodyview/pkg/view"
)

const tuiLogLines = 100

// tuiModel shows an ASCII preview of the active view next to frame stats
// and the log.
type tuiModel struct {
	app       *app
	logWriter *cli.LogWriter

	logView viewport.Model
	logs    []string
	preview string
	state   view.State
	stats   []string

	styles   cli.Styles
	width    int
	height   int
	quitting bool
}

func newTUIModel(a *app, lw *cli.LogWriter) tuiModel {
	return tuiModel{
		app:       a,
		logWriter: lw,
		logView:   viewport.New(40, 10),
		styles:    cli.NewStyles(cli.DefaultTheme),
	}
}

type logMsg string

type tickMsg time.Time

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.listenLogs(), m.tick())
}

func (m tuiModel) listenLogs() tea.Cmd {
	if m.logWriter == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-m.logWriter.Channel()
		if !ok {
			return nil
		}
		return logMsg(line)
	}
}

func (m tuiModel) tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = max(m.width/2-4, 10)
		m.logView.Height = max(m.height-14, 3)
		m.refresh()

	case logMsg:
		m.logs = append(m.logs, string(msg))
		if len(m.logs) > tuiLogLines {
			m.logs = m.logs[len(m.logs)-tuiLogLines:]
		}
		m.logView.SetContent(strings.Join(m.logs, "\n"))
		m.logView.GotoBottom()
		cmds = append(cmds, m.listenLogs())

	case tickMsg:
		m.refresh()
		cmds = append(cmds, m.tick())
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey applies view keys; it returns a command only to quit.
func (m *tuiModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	sel := m.app.sel
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		m.quitting = true
		return tea.Quit
	case "1":
		_ = sel.Select(view.ModeColor)
	case "2":
		_ = sel.Select(view.ModeDepth)
	case "3":
		_ = sel.Select(view.ModeSkeleton)
	case "s", "left":
		_ = sel.ApplyGesture(view.GestureSwipeToLeft)
	case "o":
		_ = sel.ApplyGesture(view.GestureCircle)
	}
	m.refresh()
	return nil
}

func (m *tuiModel) refresh() {
	m.state = m.app.sel.State()
	cols := max(m.width/2-8, 16)
	rows := max(cols*3/8, 6) // 4:3 frame, characters twice as tall as wide
	if m.height > 0 {
		rows = min(rows, max(m.height-8, 6))
	}
	m.preview = display.Preview(m.app.comp.Current().Image(), cols, rows)

	st := m.app.comp.Stats()
	up := time.Since(m.app.started)
	m.stats = []string{
		"view      " + m.styles.ModeBadge(st.View, st.Suppressed),
		fmt.Sprintf("color     %s  dropped %s  empty %s", cli.FormatRate(st.Color.Accepted, up), cli.FormatCount(st.Color.Dropped), cli.FormatCount(st.Color.Empty)),
		fmt.Sprintf("depth     %s  dropped %s", cli.FormatRate(st.Depth.Accepted, up), cli.FormatCount(st.Depth.Dropped)),
		fmt.Sprintf("skeleton  %s  dropped %s", cli.FormatRate(st.Skeleton.Accepted, up), cli.FormatCount(st.Skeleton.Dropped)),
		fmt.Sprintf("gestures  %d  dropped %d", st.Gestures, st.GesturesDropped),
		fmt.Sprintf("voice     %d accepted  %d rejected", m.app.voice.Accepted(), m.app.voice.Rejected()),
		"uptime    " + cli.FormatUptime(up),
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Bye.\n"
	}
	preview := m.preview
	if preview == "" {
		preview = "waiting for frames"
	} else {
		preview = m.styles.Preview(m.state.Mode, preview)
	}
	frame := cli.Frame{
		Styles: m.styles,
		Title:  "BODYVIEW",
		Status: m.app.status(),
		Left:   []cli.Section{{Label: "Preview", Lines: strings.Split(preview, "\n")}},
		Right: []cli.Section{
			{Label: "Stats", Lines: m.stats},
			{Label: "Log", Lines: strings.Split(m.logView.View(), "\n")},
		},
		Help: "1/2/3=color/depth/skeleton  s=swipe  o=overlay  q=quit",
	}
	return frame.Render(m.width, m.height)
}
