// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/stats"
	"github.com/verte-zerg/tuidict/internal/store"
)

const (
	tabOverview = iota
	tabVideos
	tabLines
)

var tabNames = [...]string{"Overview", "Videos", "Hardest Lines"}

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
	activeTabStyle = tabStyle.
			Bold(true).
			Foreground(lipgloss.Color("#EDEDED")).
			BorderForeground(lipgloss.Color("#5FAFD7"))
	inactiveTabStyle = tabStyle.
				Foreground(lipgloss.Color("#A8A8A8")).
				BorderForeground(lipgloss.Color("#444444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#444444"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EDEDED")).Bold(true)
	tableStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#BCBCBC"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	opts  stats.Options

	report stats.Report
	errMsg string

	active int
	pages  [len(tabNames)]viewport.Model
	videos table.Model

	width  int
	height int

	editing bool
	form    filterForm
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, opts stats.Options) *Model {
	if opts.Window < 1 {
		opts.Window = 1
	}
	m := &Model{store: st, opts: opts, videos: newVideoTable(nil, 0, 1)}
	m.form = newFilterForm(func(ctx context.Context, prefix string) (string, error) {
		rec, err := st.GetVideo(ctx, prefix)
		return rec.ID, err
	})
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderPages()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "left", "h":
		m.switchTab(-1)
		return tea.ClearScreen
	case "right", "l":
		m.switchTab(1)
		return tea.ClearScreen
	case "=":
		m.opts.Window = nextCurveWindow(m.opts.Window)
		m.renderPages()
	case "-":
		m.opts.Window = prevCurveWindow(m.opts.Window)
		m.renderPages()
	case "/":
		m.editing = true
		return m.form.open(m.opts)
	case "g", "home":
		if m.active == tabVideos {
			m.videos.GotoTop()
		} else {
			m.pages[m.active].GotoTop()
		}
	case "G", "end":
		if m.active == tabVideos {
			m.videos.GotoBottom()
		} else {
			m.pages[m.active].GotoBottom()
		}
	default:
		var cmd tea.Cmd
		if m.active == tabVideos {
			m.videos, cmd = m.videos.Update(msg)
		} else {
			m.pages[m.active], cmd = m.pages[m.active].Update(msg)
		}
		return cmd
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		return nil
	case tea.KeyTab:
		return m.form.focus(m.form.focused + 1)
	case tea.KeyShiftTab:
		return m.form.focus(m.form.focused - 1)
	case tea.KeyEnter:
		opts, err := m.form.options()
		if err != nil {
			m.form.err = err.Error()
			return nil
		}
		m.editing = false
		m.opts = opts
		m.reload()
		m.resize()
		return nil
	}
	return m.form.update(msg)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top, body, bottom := m.heights()
	return strings.Join([]string{
		fitBlock(m.renderTabs()+"\n"+m.renderSettings(), m.width, top),
		fitBlock(m.renderBody(), m.width, body),
		fitBlock(m.renderFooter(), m.width, bottom),
	}, "\n")
}

func (m *Model) heights() (top, body, bottom int) {
	top = lipgloss.Height(activeTabStyle.Render("x")) + 1
	bottom = 1
	if !m.editing && m.errMsg != "" {
		bottom = 2
	}
	body = max(1, m.height-top-bottom)
	return top, body, bottom
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.videos.SetWidth(m.width)
	m.videos.SetHeight(max(1, body-1))
	m.form.setWidth(m.width)
}

func (m *Model) switchTab(delta int) {
	m.active = (m.active + delta + len(tabNames)) % len(tabNames)
	if m.active == tabVideos {
		m.videos.Focus()
	} else {
		m.videos.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := inactiveTabStyle
		if i == m.active {
			style = activeTabStyle
		}
		parts[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderSettings() string {
	video, since, last := "all", "any", "all"
	if m.opts.VideoID != "" {
		video = m.opts.VideoID
	}
	if m.opts.Since != nil {
		since = m.opts.Since.Format(dateLayout)
	}
	if m.opts.Last > 0 {
		last = strconv.Itoa(m.opts.Last)
	}
	line := fmt.Sprintf("Settings: video=%s  since=%s  last=%s  window=%d", video, since, last, m.opts.Window)
	if m.width > 0 {
		line = runewidth.Truncate(line, m.width, "...")
	}
	return dimStyle.Render(line)
}

func (m *Model) renderFooter() string {
	if m.editing {
		return dimStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := dimStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		help += "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	switch {
	case m.editing:
		return m.form.view()
	case m.active != tabVideos:
		return m.pages[m.active].View()
	case len(m.report.Videos) == 0:
		return "No attempts found."
	default:
		return tableStyle.Render(m.videos.View())
	}
}

// reload rebuilds the report for the current options.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.opts)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.pages {
			m.pages[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	_, body, _ := m.heights()
	m.videos = newVideoTable(report.Videos, m.width, body)
	if m.active == tabVideos {
		m.videos.Focus()
	}
	m.renderPages()
}

func (m *Model) renderPages() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.pages[tabOverview].SetContent(overview(m.report, m.opts.Window, width))
	m.pages[tabLines].SetContent(hardestLines(m.report))
}

func overview(report stats.Report, window, width int) string {
	if len(report.Attempts) == 0 {
		return "No attempts found."
	}
	var curve bytes.Buffer
	if err := stats.RenderCurve(&curve, report.Attempts, window, width); err != nil {
		return fmt.Sprintf("Failed to render curve: %v", err)
	}
	return strings.TrimRight(summaryCards(report.Videos, width)+"\n\n"+curve.String(), "\n")
}

func summaryCards(videos []model.VideoAggregate, width int) string {
	var attempts, correct, total int
	best := 0.0
	for _, v := range videos {
		attempts += v.Attempts
		correct += v.CorrectWords
		total += v.TotalWords
		best = max(best, stats.Accuracy(v.CorrectWords, v.TotalWords))
	}
	cards := []string{
		card("Videos", strconv.Itoa(len(videos))),
		card("Attempts", strconv.Itoa(attempts)),
		card("Words", fmt.Sprintf("%d/%d", correct, total)),
		card("Accuracy", percent(stats.Accuracy(correct, total))),
		card("Best video", percent(best)),
	}
	if width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func hardestLines(report stats.Report) string {
	if len(report.WeakLines) == 0 {
		return "No line has enough attempts yet."
	}
	var buf bytes.Buffer
	if err := stats.RenderWeakLines(&buf, report.WeakLines, report.Names); err != nil {
		return fmt.Sprintf("Failed to render lines: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newVideoTable(videos []model.VideoAggregate, width, height int) table.Model {
	nameWidth := 24
	for _, v := range videos {
		nameWidth = max(nameWidth, runewidth.StringWidth(v.DisplayName))
	}
	if width > 0 {
		nameWidth = min(nameWidth, max(8, width-48))
	}
	rows := make([]table.Row, 0, len(videos))
	for _, v := range stats.SortByAccuracy(videos) {
		name := v.DisplayName
		if name == "" {
			name = v.VideoID
		}
		rows = append(rows, table.Row{
			runewidth.Truncate(name, nameWidth, "…"),
			strconv.Itoa(v.Attempts),
			fmt.Sprintf("%d/%d", v.CorrectWords, v.TotalWords),
			percent(stats.Accuracy(v.CorrectWords, v.TotalWords)),
			v.LastAt.Local().Format(dateLayout),
		})
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#EDEDED")).
		Background(lipgloss.Color("#1F4A5F")).
		Bold(false)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Video", Width: nameWidth},
			{Title: "Attempts", Width: 8},
			{Title: "Words", Width: 11},
			{Title: "Accuracy", Width: 8},
			{Title: "Last", Width: 10},
		}),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
		table.WithStyles(styles),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	return t
}

// nextCurveWindow steps the window up to the next multiple of five.
func nextCurveWindow(n int) int {
	return (n/5 + 1) * 5
}

// prevCurveWindow steps down to the previous multiple of five, then to 1.
func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	return ((n - 1) / 5) * 5
}

// fitBlock pads every line to width and clips or pads to height lines.
func fitBlock(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}
