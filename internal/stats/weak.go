package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/tuidict/internal/model"
)

// LineAggregate sums attempts for one subtitle line.
type LineAggregate struct {
	VideoID      string
	LineID       int
	Attempts     int
	CorrectWords int
	TotalWords   int
}

// SortByAccuracy returns a copy of videos ordered from lowest accuracy.
func SortByAccuracy(videos []model.VideoAggregate) []model.VideoAggregate {
	out := make([]model.VideoAggregate, len(videos))
	copy(out, videos)
	sort.SliceStable(out, func(i, j int) bool {
		ai := Accuracy(out[i].CorrectWords, out[i].TotalWords)
		aj := Accuracy(out[j].CorrectWords, out[j].TotalWords)
		if ai == aj {
			return out[i].VideoID < out[j].VideoID
		}
		return ai < aj
	})
	return out
}

// SelectWeakLines groups attempts per line and returns the top lowest-accuracy
// lines with at least minAttempts attempts.
func SelectWeakLines(attempts []model.Attempt, top, minAttempts int) []LineAggregate {
	type key struct {
		video string
		line  int
	}
	byLine := map[key]*LineAggregate{}
	for _, a := range attempts {
		k := key{video: a.VideoID, line: a.LineID}
		agg, ok := byLine[k]
		if !ok {
			agg = &LineAggregate{VideoID: a.VideoID, LineID: a.LineID}
			byLine[k] = agg
		}
		agg.Attempts++
		agg.CorrectWords += a.CorrectWords
		agg.TotalWords += a.TotalWords
	}
	candidates := make([]LineAggregate, 0, len(byLine))
	for _, agg := range byLine {
		if agg.Attempts < minAttempts {
			continue
		}
		candidates = append(candidates, *agg)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := Accuracy(candidates[i].CorrectWords, candidates[i].TotalWords)
		aj := Accuracy(candidates[j].CorrectWords, candidates[j].TotalWords)
		if ai != aj {
			return ai < aj
		}
		if candidates[i].VideoID != candidates[j].VideoID {
			return candidates[i].VideoID < candidates[j].VideoID
		}
		return candidates[i].LineID < candidates[j].LineID
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}

// RenderWeakLines prints the hardest lines. names maps video IDs to display names.
func RenderWeakLines(w io.Writer, lines []LineAggregate, names map[string]string) error {
	if len(lines) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Hardest Lines"); err != nil {
		return err
	}
	headers := []string{"Video", "Line", "Attempts", "Accuracy"}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		name := names[l.VideoID]
		if name == "" {
			name = shortID(l.VideoID)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("#%d", l.LineID),
			fmt.Sprintf("%d", l.Attempts),
			fmt.Sprintf("%.2f%%", Accuracy(l.CorrectWords, l.TotalWords)*100),
		})
	}
	for _, line := range FormatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
