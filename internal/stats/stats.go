// Package stats contains dictation accuracy calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/tuidict/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	sparkLabel          = "Accuracy "
)

// Accuracy returns the share of correct words, or 0 when nothing was typed.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Resample reduces values to at most width points by averaging buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		from := i * len(values) / width
		to := (i + 1) * len(values) / width
		if to <= from {
			to = from + 1
		}
		var sum float64
		for _, v := range values[from:to] {
			sum += v
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth returns the stdout width, falling back to 80 columns.
func TerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return terminalWidthBackup
}

// RenderSummary prints overall accuracy across videos.
func RenderSummary(w io.Writer, videos []model.VideoAggregate) error {
	if len(videos) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	attempts, correct, total := 0, 0, 0
	best := 0.0
	for _, v := range videos {
		attempts += v.Attempts
		correct += v.CorrectWords
		total += v.TotalWords
		if acc := Accuracy(v.CorrectWords, v.TotalWords); acc > best {
			best = acc
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Videos: %d", len(videos)),
		fmt.Sprintf("Attempts: %d", attempts),
		fmt.Sprintf("Words: %d/%d", correct, total),
		fmt.Sprintf("Accuracy: %.2f%%", Accuracy(correct, total)*100),
		fmt.Sprintf("Best video: %.2f%%", best*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints a moving-average accuracy sparkline over attempts,
// squeezed into totalWidth columns.
func RenderCurve(w io.Writer, attempts []model.Attempt, window, totalWidth int) error {
	if len(attempts) == 0 {
		return nil
	}
	accs := make([]float64, len(attempts))
	for i, a := range attempts {
		accs[i] = Accuracy(a.CorrectWords, a.TotalWords) * 100
	}
	accs = MovingAverage(accs, window)
	width := totalWidth - len(sparkLabel) - 2
	if width < 10 {
		width = 10
	}
	accs = Resample(accs, width)
	if _, err := fmt.Fprintf(w, "Learning Curve (window %d)\n", window); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s|%s|\n", sparkLabel, Sparkline(accs)); err != nil {
		return err
	}
	first, last := accs[0], accs[len(accs)-1]
	if _, err := fmt.Fprintf(w, "First %.1f%%  Last %.1f%%\n\n", first, last); err != nil {
		return err
	}
	return nil
}

// RenderVideoTable prints per-video aggregates, weakest first.
func RenderVideoTable(w io.Writer, videos []model.VideoAggregate) error {
	if len(videos) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Video"); err != nil {
		return err
	}
	headers := []string{"Video", "Attempts", "Words", "Accuracy", "Last"}
	rows := make([][]string, 0, len(videos))
	for _, v := range SortByAccuracy(videos) {
		name := v.DisplayName
		if name == "" {
			name = shortID(v.VideoID)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", v.Attempts),
			fmt.Sprintf("%d/%d", v.CorrectWords, v.TotalWords),
			fmt.Sprintf("%.2f%%", Accuracy(v.CorrectWords, v.TotalWords)*100),
			v.LastAt.Local().Format("2006-01-02"),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
