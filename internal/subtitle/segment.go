package subtitle

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/tuidict/internal/model"
)

// FullSectionPadding extends the single section past the last line end.
const FullSectionPadding = 1.0

// Segment partitions lines into sections of sectionMinutes. Zero means one
// section holding every line. Windows are half-open on line start time; a
// window becomes a section when it holds a line or when it is the first
// window. Line IDs are preserved.
func Segment(lines []model.Line, sectionMinutes float64) []model.Section {
	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	lastEnd := 0.0
	for _, l := range sorted {
		if l.EndTime > lastEnd {
			lastEnd = l.EndTime
		}
	}

	if sectionMinutes <= 0 {
		return []model.Section{{
			ID:        0,
			Label:     "Full video",
			StartTime: 0,
			EndTime:   lastEnd + FullSectionPadding,
			Lines:     sorted,
		}}
	}

	width := sectionMinutes * 60
	windows := int(math.Ceil(lastEnd / width))
	if windows < 1 {
		windows = 1
	}

	var sections []model.Section
	next := 0
	for k := 0; k < windows; k++ {
		start := float64(k) * width
		end := float64(k+1) * width
		var members []model.Line
		for next < len(sorted) && sorted[next].StartTime < end {
			members = append(members, sorted[next])
			next++
		}
		if len(members) == 0 && k != 0 {
			continue
		}
		sections = append(sections, model.Section{
			ID:        len(sections),
			Label:     sectionLabel(len(sections), start, end),
			StartTime: start,
			EndTime:   end,
			Lines:     members,
		})
	}
	return sections
}

func sectionLabel(idx int, start, end float64) string {
	return fmt.Sprintf("Section %d (%s-%s)", idx+1, FormatTimeCode(start), FormatTimeCode(end))
}

// FindSection returns the index of the section whose window contains t, or -1.
func FindSection(sections []model.Section, t float64) int {
	for i, s := range sections {
		if s.Contains(t) {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line in lines spanning t inclusively, or -1.
func FindLine(lines []model.Line, t float64) int {
	for i, l := range lines {
		if t >= l.StartTime && t <= l.EndTime {
			return i
		}
	}
	return -1
}

// FindLineByID returns the section and line indices holding id.
func FindLineByID(sections []model.Section, id int) (int, int, bool) {
	for si, s := range sections {
		for li, l := range s.Lines {
			if l.ID == id {
				return si, li, true
			}
		}
	}
	return -1, -1, false
}
