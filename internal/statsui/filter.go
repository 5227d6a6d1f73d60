package statsui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuidict/internal/stats"
)

const (
	fieldVideo = iota
	fieldSince
	fieldLast
	fieldWindow
)

const dateLayout = "2006-01-02"

// resolveVideo maps an id prefix typed in the form to a full video id.
type resolveVideo func(ctx context.Context, prefix string) (string, error)

// filterForm edits stats.Options in place of the tab body.
type filterForm struct {
	inputs  []textinput.Model
	focused int
	err     string
	resolve resolveVideo
}

func newFilterForm(resolve resolveVideo) filterForm {
	prompts := []string{"Video: ", "Since (YYYY-MM-DD): ", "Last: ", "Curve window: "}
	f := filterForm{resolve: resolve, inputs: make([]textinput.Model, len(prompts))}
	for i, p := range prompts {
		in := textinput.New()
		in.Prompt = p
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	return f
}

// open fills the inputs from opts and focuses the first one.
func (f *filterForm) open(opts stats.Options) tea.Cmd {
	since := ""
	if opts.Since != nil {
		since = opts.Since.Format(dateLayout)
	}
	last := ""
	if opts.Last > 0 {
		last = strconv.Itoa(opts.Last)
	}
	values := []string{opts.VideoID, since, last, strconv.Itoa(opts.Window)}
	for i, v := range values {
		f.inputs[i].SetValue(v)
	}
	f.err = ""
	return f.focus(0)
}

func (f *filterForm) focus(idx int) tea.Cmd {
	f.focused = (idx + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focused {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

// options parses the inputs. Invalid input leaves the form open with err set.
func (f *filterForm) options() (stats.Options, error) {
	var opts stats.Options
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }

	if v := value(fieldVideo); v != "" {
		id, err := f.resolve(context.Background(), v)
		if err != nil {
			return opts, errors.New("unknown video " + strconv.Quote(v))
		}
		opts.VideoID = id
	}
	if v := value(fieldSince); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return opts, errors.New("invalid since date (expected YYYY-MM-DD)")
		}
		opts.Since = &parsed
	}
	if v := value(fieldLast); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("invalid last value (use 0 or positive integer)")
		}
		opts.Last = n
	}
	opts.Window = 1
	if v := value(fieldWindow); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New("invalid curve window (use integer >= 1)")
		}
		opts.Window = n
	}
	return opts, nil
}

func (f *filterForm) view() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
