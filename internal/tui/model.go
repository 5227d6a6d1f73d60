// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/tuidict/internal/export"
	"github.com/verte-zerg/tuidict/internal/media"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/playback"
	"github.com/verte-zerg/tuidict/internal/reveal"
	"github.com/verte-zerg/tuidict/internal/stats"
	"github.com/verte-zerg/tuidict/internal/store"
	"github.com/verte-zerg/tuidict/internal/subtitle"
	"github.com/verte-zerg/tuidict/internal/tokenize"
)

const (
	tickInterval  = 33 * time.Millisecond
	noticeDisplay = 3 * time.Second
	exportTimeout = time.Minute
	scrubStep     = 5.0
	volumeStep    = 5.0
	speedStep     = 0.1
)

type tickMsg time.Time

type exportDoneMsg struct {
	err error
}

// Options configures a practice model.
type Options struct {
	Record       model.VideoRecord
	PeekDuration time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	sync     *playback.Synchronizer
	el       media.Element
	tuner    media.Tuner
	store    *store.Store
	exporter *export.Exporter
	opts     Options
	now      func() time.Time

	keys keyMap
	help help.Model
	bar  progress.Model
	spin spinner.Model

	width  int
	height int

	lineID    int
	tokens    []tokenize.Token
	words     []tokenize.Token
	inputs    []string
	focus     int
	autoMoved bool
	results   []tokenize.WordComparisonResult
	reveal    *reveal.State

	notice    string
	noticeErr bool
	noticeAt  time.Time

	sectionOffsets []int
	totalLines     int
	lastSave       time.Time

	sessionCorrect int
	sessionTotal   int
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	inputStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	expectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	peekStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#69C0FF")).Italic(true)
	selectedStyle  = correctStyle.Copy().Bold(true)
	punctStyle     = pendingStyle
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Italic(true)
)

// NewModel constructs a practice model around a synchronizer. st and exp
// may be nil, which disables persistence and export.
func NewModel(sync *playback.Synchronizer, el media.Element, st *store.Store, exp *export.Exporter, opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.PeekDuration <= 0 {
		opts.PeekDuration = reveal.DefaultPeek
	}
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	m := &Model{
		sync:     sync,
		el:       el,
		store:    st,
		exporter: exp,
		opts:     opts,
		now:      now,
		keys:     defaultKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spin:     spin,
		reveal:   reveal.New(),
		lastSave: now(),
	}
	if t, ok := el.(media.Tuner); ok {
		m.tuner = t
	}
	for _, s := range sync.Sections() {
		m.sectionOffsets = append(m.sectionOffsets, m.totalLines)
		m.totalLines += len(s.Lines)
	}
	sync.Subscribe(m.onEvent)
	m.loadLine()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spin.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, m.contentWidth())
		return m, nil
	case tickMsg:
		m.sync.Tick()
		m.reveal.Expire(m.now())
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case exportDoneMsg:
		if msg.err != nil {
			log.Printf("export failed: %v", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.saveProgress()
		return m, tea.Quit
	}
	if m.typing() && m.handleTyping(msg) {
		return m, nil
	}
	if m.drivesPlayback(msg) && m.sync.Snapshot().Held {
		m.setNotice("Recording audio, playback keys are paused")
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.saveProgress()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Enter):
		return m, m.handleEnter()
	case key.Matches(msg, m.keys.TogglePlay):
		m.sync.TogglePlay()
	case key.Matches(msg, m.keys.Replay):
		m.sync.Replay(false)
	case key.Matches(msg, m.keys.Listen):
		m.sync.Replay(true)
	case key.Matches(msg, m.keys.PrevLine):
		m.sync.SkipPrev()
	case key.Matches(msg, m.keys.NextLine):
		m.sync.SkipNext()
	case key.Matches(msg, m.keys.PrevSection):
		m.sync.SwitchSection(m.sync.Snapshot().SectionIndex - 1)
	case key.Matches(msg, m.keys.NextSection):
		m.sync.SwitchSection(m.sync.Snapshot().SectionIndex + 1)
	case key.Matches(msg, m.keys.ScrubBack):
		m.scrub(-scrubStep)
	case key.Matches(msg, m.keys.ScrubFwd):
		m.scrub(scrubStep)
	case key.Matches(msg, m.keys.WordLeft):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.WordRight):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.Reveal):
		if m.revealMode() && m.focus < len(m.words) {
			m.reveal.Reveal(m.focus)
		}
	case key.Matches(msg, m.keys.RevealNext):
		if m.revealMode() {
			if idx := m.reveal.RevealNext(len(m.words)); idx >= 0 {
				m.focus = idx
			}
		}
	case key.Matches(msg, m.keys.RevealAll):
		if m.revealMode() {
			m.reveal.RevealAll(len(m.words))
		}
	case key.Matches(msg, m.keys.Peek):
		m.peek()
	case key.Matches(msg, m.keys.Save):
		m.saveLine()
	case key.Matches(msg, m.keys.JumpSaved):
		m.jumpToSaved()
	case key.Matches(msg, m.keys.Copy):
		m.copyLine()
	case key.Matches(msg, m.keys.ExportLine):
		return m, m.exportLine()
	case key.Matches(msg, m.keys.ExportWord):
		return m, m.exportWord(false)
	case key.Matches(msg, m.keys.ExportAudio):
		return m, m.exportWord(true)
	case key.Matches(msg, m.keys.VolumeUp):
		m.adjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		m.adjustVolume(-volumeStep)
	case key.Matches(msg, m.keys.SpeedUp):
		m.adjustSpeed(speedStep)
	case key.Matches(msg, m.keys.SpeedDown):
		m.adjustSpeed(-speedStep)
	}
	return m, nil
}

// drivesPlayback reports whether msg would seek, play or pause the element.
func (m *Model) drivesPlayback(msg tea.KeyMsg) bool {
	k := m.keys
	return key.Matches(msg, k.Enter, k.TogglePlay, k.Replay, k.Listen, k.PrevLine, k.NextLine,
		k.PrevSection, k.NextSection, k.ScrubBack, k.ScrubFwd, k.JumpSaved)
}

func (m *Model) revealMode() bool {
	return m.sync.Config().LearningMode == model.LearningReveal
}

// typing reports whether plain keys belong to the dictation boxes.
func (m *Model) typing() bool {
	if m.revealMode() || len(m.words) == 0 {
		return false
	}
	return m.sync.Snapshot().Mode == playback.Input
}

func (m *Model) handleTyping(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return false
		}
		m.typeRunes(msg.Runes)
		return true
	case tea.KeySpace:
		if msg.Alt {
			return false
		}
		m.nextWordOrSubmit()
		return true
	case tea.KeyEnter:
		m.nextWordOrSubmit()
		return true
	case tea.KeyBackspace:
		m.backspace()
		return true
	default:
		return false
	}
}

func (m *Model) typeRunes(runes []rune) {
	for _, r := range runes {
		if !m.typing() {
			return
		}
		if unicode.IsSpace(r) {
			if m.focus < len(m.words)-1 {
				m.focus++
			}
			m.autoMoved = false
			continue
		}
		m.autoMoved = false
		m.inputs[m.focus] += string(r)
		m.afterInput()
	}
}

// afterInput moves to the next box once the focused word matches and
// submits when the last word completes a fully correct line.
func (m *Model) afterInput() {
	if !tokenize.MatchFlexible(m.inputs[m.focus], m.words[m.focus].Value) {
		return
	}
	if m.focus < len(m.words)-1 {
		m.focus++
		m.autoMoved = true
		return
	}
	if tokenize.AllWordsCorrect(m.tokens, m.inputs) {
		m.submit()
	}
}

func (m *Model) nextWordOrSubmit() {
	if m.autoMoved && m.inputs[m.focus] == "" {
		m.autoMoved = false
		return
	}
	m.autoMoved = false
	if m.focus < len(m.words)-1 {
		m.focus++
		return
	}
	m.submit()
}

func (m *Model) backspace() {
	m.autoMoved = false
	input := m.inputs[m.focus]
	if input == "" {
		if m.focus > 0 {
			m.focus--
		}
		return
	}
	runes := []rune(input)
	m.inputs[m.focus] = string(runes[:len(runes)-1])
}

// submit scores the inputs, records the attempt and shows feedback. A fully
// correct line is replayed once and then advanced.
func (m *Model) submit() {
	m.results = tokenize.CompareWords(m.tokens, m.inputs)
	m.recordAttempt(tokenize.CorrectCount(m.results), len(m.results))
	m.sync.Submit()
	if tokenize.AllWordsCorrect(m.tokens, m.inputs) {
		m.sync.Replay(true)
	}
}

func (m *Model) handleEnter() tea.Cmd {
	snap := m.sync.Snapshot()
	switch {
	case snap.SessionComplete:
		m.saveProgress()
		return tea.Quit
	case snap.SectionComplete:
		m.sync.NextSection()
		m.sync.Resume()
	case m.revealMode():
		if snap.Mode != playback.Listening || m.reveal.AllRevealed(len(m.words)) {
			m.sync.Continue()
		}
	case snap.Mode == playback.Feedback:
		m.sync.Continue()
	}
	return nil
}

func (m *Model) onEvent(ev playback.Event) {
	switch ev.Kind {
	case playback.LineChanged:
		m.loadLine()
		if m.exporter != nil {
			m.exporter.Reset()
		}
		m.saveProgress()
	case playback.ModeChanged:
		if ev.Mode == playback.Input {
			m.focus = 0
			m.autoMoved = false
		}
	case playback.SectionComplete:
		m.saveProgress()
		m.setNotice("Section complete")
	case playback.SessionComplete:
		m.saveProgress()
		m.setNotice("Session complete")
	}
}

// loadLine resets per-line state for the active line.
func (m *Model) loadLine() {
	snap := m.sync.Snapshot()
	m.tokens = nil
	m.words = nil
	m.lineID = 0
	if snap.HasLine {
		m.lineID = snap.Line.ID
		m.tokens = tokenize.Tokenize(snap.Line.Text)
		m.words = tokenize.WordTokens(m.tokens)
	}
	m.inputs = make([]string, len(m.words))
	m.focus = 0
	m.autoMoved = false
	m.results = nil
	m.reveal.OnLineChanged(m.lineID)
}

func (m *Model) moveFocus(delta int) {
	if len(m.words) == 0 {
		return
	}
	m.focus += delta
	if m.focus < 0 {
		m.focus = 0
	}
	if m.focus >= len(m.words) {
		m.focus = len(m.words) - 1
	}
	m.autoMoved = false
}

func (m *Model) peek() {
	if len(m.words) == 0 {
		return
	}
	now := m.now()
	if !m.reveal.IsRevealed(m.focus) {
		m.reveal.Peek(m.focus, now, m.opts.PeekDuration)
		return
	}
	m.reveal.PeekNext(len(m.words), now, m.opts.PeekDuration)
}

func (m *Model) scrub(delta float64) {
	d := m.el.Duration()
	if d <= 0 {
		return
	}
	m.sync.ScrubTo(m.el.CurrentTime()/d*100 + delta)
}

// completion is the share of lines before the resume point.
func (m *Model) completion(p model.Progress) float64 {
	if m.totalLines == 0 || p.SectionIndex >= len(m.sectionOffsets) {
		return 0
	}
	return float64(m.sectionOffsets[p.SectionIndex]+p.LineIndex) / float64(m.totalLines)
}

// saveProgress persists the resume point. The first line of a section is
// never written so an aborted start keeps the previous resume point.
func (m *Model) saveProgress() {
	if m.store == nil || m.opts.Record.ID == "" {
		return
	}
	p := m.sync.Progress()
	if p.LineIndex <= 0 {
		return
	}
	now := m.now()
	elapsed := int64(now.Sub(m.lastSave) / time.Second)
	m.lastSave = m.lastSave.Add(time.Duration(elapsed) * time.Second)
	if err := m.store.UpdateProgress(context.Background(), m.opts.Record.ID, p, m.completion(p), now, elapsed); err != nil {
		m.fail("failed to save progress", err)
	}
}

func (m *Model) recordAttempt(correct, total int) {
	m.sessionCorrect += correct
	m.sessionTotal += total
	if m.store == nil || m.opts.Record.ID == "" || total == 0 {
		return
	}
	attempt := model.Attempt{
		VideoID:      m.opts.Record.ID,
		LineID:       m.lineID,
		CorrectWords: correct,
		TotalWords:   total,
		At:           m.now(),
	}
	if err := m.store.InsertAttempts(context.Background(), []model.Attempt{attempt}); err != nil {
		m.fail("failed to save attempt", err)
	}
}

func (m *Model) saveLine() {
	snap := m.sync.Snapshot()
	if !snap.HasLine {
		return
	}
	if m.store == nil {
		m.setNotice("Saving is unavailable")
		return
	}
	line := model.SavedLine{
		ID:          uuid.NewString(),
		Text:        snap.Line.Text,
		VideoID:     m.opts.Record.ID,
		LineID:      snap.Line.ID,
		VideoName:   m.opts.Record.DisplayName,
		TimeDisplay: subtitle.FormatTimeCode(snap.Line.StartTime),
		DateSaved:   m.now(),
	}
	inserted, err := m.store.SaveLine(context.Background(), line)
	if err != nil {
		m.fail("failed to save line", err)
		return
	}
	if !inserted {
		m.setNotice("Line already saved")
		return
	}
	m.setNotice("Line saved")
}

// jumpToSaved restores the next saved line of this video after the active
// one, wrapping to the first.
func (m *Model) jumpToSaved() {
	if m.store == nil || m.opts.Record.ID == "" {
		return
	}
	saved, err := m.store.ListSavedLines(context.Background(), m.opts.Record.ID)
	if err != nil {
		m.fail("failed to load saved lines", err)
		return
	}
	ids := make([]int, 0, len(saved))
	for _, s := range saved {
		ids = append(ids, s.LineID)
	}
	sort.Ints(ids)
	sections := m.sync.Sections()
	target := -1
	for _, id := range ids {
		if _, _, ok := subtitle.FindLineByID(sections, id); !ok {
			continue
		}
		if target < 0 {
			target = id
		}
		if id > m.lineID {
			target = id
			break
		}
	}
	if target < 0 {
		m.setNotice("No saved lines for this video")
		return
	}
	si, li, _ := subtitle.FindLineByID(sections, target)
	m.sync.Restore(si, li)
	m.setNotice(fmt.Sprintf("Jumped to saved line at %s", subtitle.FormatTimeCode(sections[si].Lines[li].StartTime)))
}

func (m *Model) copyLine() {
	snap := m.sync.Snapshot()
	if !snap.HasLine {
		return
	}
	if err := clipboard.WriteAll(snap.Line.Text); err != nil {
		m.fail("failed to copy line", err)
		return
	}
	m.setNotice("Copied line")
}

func (m *Model) exportLine() tea.Cmd {
	snap := m.sync.Snapshot()
	if !snap.HasLine || !m.exportReady() {
		return nil
	}
	exp := m.exporter
	req := export.LineRequest{Line: snap.Line, SourceName: m.opts.Record.DisplayName}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		return exportDoneMsg{err: exp.ExportLine(ctx, req)}
	}
}

func (m *Model) exportWord(withAudio bool) tea.Cmd {
	snap := m.sync.Snapshot()
	if !snap.HasLine || !m.exportReady() {
		return nil
	}
	word := m.selectedWord()
	if word == "" {
		m.setNotice("Select a word first")
		return nil
	}
	exp := m.exporter
	req := export.WordRequest{
		Line:       snap.Line,
		SourceName: m.opts.Record.DisplayName,
		Word:       word,
		WithAudio:  withAudio,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		return exportDoneMsg{err: exp.ExportWord(ctx, req)}
	}
}

func (m *Model) exportReady() bool {
	if m.exporter == nil {
		m.setNotice("Anki export is not configured")
		return false
	}
	if m.exporter.Busy() {
		m.setNotice("Export already running")
		return false
	}
	return true
}

// selectedWord is the last revealed word, or the focused one.
func (m *Model) selectedWord() string {
	idx := m.reveal.Selected()
	if idx < 0 {
		idx = m.focus
	}
	if idx < 0 || idx >= len(m.words) {
		return ""
	}
	return m.words[idx].Value
}

func (m *Model) adjustVolume(delta float64) {
	if m.tuner == nil {
		m.setNotice("Volume control is unavailable")
		return
	}
	if err := m.tuner.SetVolume(m.tuner.Volume() + delta); err != nil {
		m.fail("failed to set volume", err)
		return
	}
	m.setNotice(fmt.Sprintf("Volume %.0f", m.tuner.Volume()))
}

func (m *Model) adjustSpeed(delta float64) {
	if m.tuner == nil {
		m.setNotice("Speed control is unavailable")
		return
	}
	if err := m.tuner.SetSpeed(m.tuner.Speed() + delta); err != nil {
		m.fail("failed to set speed", err)
		return
	}
	m.setNotice(fmt.Sprintf("Speed %.2fx", m.tuner.Speed()))
}

func (m *Model) setNotice(msg string) {
	m.notice = msg
	m.noticeErr = false
	m.noticeAt = m.now()
}

func (m *Model) fail(what string, err error) {
	log.Printf("%s: %v", what, err)
	m.notice = fmt.Sprintf("%s: %v", what, err)
	m.noticeErr = true
	m.noticeAt = m.now()
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.sync.Snapshot()
	content := m.renderBody(snap)
	if m.width == 0 || m.height == 0 {
		return content
	}
	width := m.contentWidth()
	header := titleStyle.Render(m.opts.Record.DisplayName)
	if snap.Section.Label != "" {
		header += footerStyle.Render("  " + snap.Section.Label)
	}
	body := lipgloss.NewStyle().Width(width).Render(content)
	block := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	footer := []string{
		m.bar.ViewAs(snap.Progress),
		m.renderStatus(snap),
		m.help.View(m.keys),
	}
	footerBlock := strings.Join(footer, "\n")
	footerHeight := lipgloss.Height(footerBlock)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, block)
	}
	main := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, block)
	return main + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footerBlock)
}

func (m *Model) renderBody(snap playback.Snapshot) string {
	width := 0
	if m.width > 0 {
		width = m.contentWidth()
	}
	now := m.now()
	switch {
	case snap.SessionComplete:
		return fmt.Sprintf("Session complete. Accuracy %.1f%%. Press enter to quit.",
			stats.Accuracy(m.sessionCorrect, m.sessionTotal)*100)
	case snap.SectionComplete:
		return "Section complete. Press enter for the next section."
	case !snap.HasLine:
		return hintStyle.Render("No lines in this section.")
	case len(m.words) == 0:
		return pendingStyle.Render(snap.Line.Text)
	case m.revealMode():
		segs := buildRevealSegments(m.tokens, m.reveal, m.focus, now)
		hint := fmt.Sprintf("%d/%d revealed", m.reveal.RevealedCount(), len(m.words))
		return wrapSegments(segs, width) + "\n\n" + hintStyle.Render(hint)
	}
	switch snap.Mode {
	case playback.Input:
		segs := buildInputSegments(m.tokens, m.inputs, m.focus, m.reveal, now)
		return wrapSegments(segs, width) + "\n\n" + hintStyle.Render("type what you heard · space next word · enter submit")
	case playback.Feedback:
		segs := buildFeedbackSegments(m.tokens, m.results)
		score := fmt.Sprintf("%d/%d correct", tokenize.CorrectCount(m.results), len(m.results))
		typed := tokenize.ReconstructText(m.tokens, m.inputs)
		return wrapSegments(segs, width) + "\n\n" + hintStyle.Render(score+" · you typed: "+typed)
	default:
		segs := buildMaskedSegments(m.tokens)
		return wrapSegments(segs, width) + "\n\n" + hintStyle.Render("listening…")
	}
}

func (m *Model) renderStatus(snap playback.Snapshot) string {
	lineCount := len(snap.Section.Lines)
	segments := []string{
		fmt.Sprintf("Section %d/%d", snap.SectionIndex+1, snap.SectionCount),
		fmt.Sprintf("Line %d/%d", min(snap.LineIndex+1, lineCount), lineCount),
		fmt.Sprintf("%s / %s", subtitle.FormatTimeCode(snap.Position), subtitle.FormatTimeCode(m.el.Duration())),
	}
	state := snap.Mode.String()
	if !snap.Playing {
		state += " (paused)"
	}
	segments = append(segments, state)
	if m.tuner != nil {
		segments = append(segments, fmt.Sprintf("vol %.0f · %.2fx", m.tuner.Volume(), m.tuner.Speed()))
	}
	out := footerStyle.Render(strings.Join(segments, "  "))
	if status := m.renderExportStatus(); status != "" {
		out += "  " + status
	}
	if m.notice != "" && m.now().Sub(m.noticeAt) < noticeDisplay {
		style := footerStyle
		if m.noticeErr {
			style = errorStyle
		}
		out += "  " + style.Render(m.notice)
	}
	return out
}

func (m *Model) renderExportStatus() string {
	if m.exporter == nil {
		return ""
	}
	status, msg := m.exporter.Status()
	switch status {
	case export.Recording, export.Sending:
		return m.spin.View() + footerStyle.Render(status.String()+"…")
	case export.Success:
		return correctStyle.Render("✓ " + msg)
	case export.Failed:
		return errorStyle.Render("✗ " + msg)
	default:
		return ""
	}
}
