// Package subtitle parses time-coded subtitle sources into lines and groups
// them into fixed-length sections.
package subtitle

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuidict/internal/model"
)

// ErrNoLines is returned when a source yields no usable line.
var ErrNoLines = errors.New("no subtitle lines found")

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	timestampRe = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})(?:[,.](\d{1,3}))?$`)
)

// Parse converts an SRT-style source into lines. Blocks are separated by
// blank lines; each needs a "start --> end" line followed by text. Blocks
// that fail to parse or have no text after markup removal are dropped.
// IDs are assigned in parse order starting at 1.
func Parse(src string) ([]model.Line, error) {
	src = strings.TrimPrefix(src, "\uFEFF")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")

	var lines []model.Line
	nextID := 1
	for _, block := range splitBlocks(src) {
		line, ok := parseBlock(block)
		if !ok {
			continue
		}
		line.ID = nextID
		nextID++
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	return lines, nil
}

func splitBlocks(src string) [][]string {
	var blocks [][]string
	var current []string
	for _, raw := range strings.Split(src, "\n") {
		if strings.TrimSpace(raw) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, raw)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(block []string) (model.Line, bool) {
	timeIdx := -1
	for i, l := range block {
		if strings.Contains(l, "-->") {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 || timeIdx == len(block)-1 {
		return model.Line{}, false
	}
	start, end, err := parseTimeRange(block[timeIdx])
	if err != nil || end <= start {
		return model.Line{}, false
	}
	text := cleanText(block[timeIdx+1:])
	if text == "" {
		return model.Line{}, false
	}
	return model.Line{StartTime: start, EndTime: end, Text: text}, true
}

func parseTimeRange(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("missing arrow in %q", line)
	}
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// Cue settings may follow the end timestamp.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("missing end time in %q", line)
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp converts "HH:MM:SS,mmm" to seconds. A dot separator and
// shorter fractions are accepted.
func ParseTimestamp(s string) (float64, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	millis := 0
	if m[4] != "" {
		frac := m[4] + strings.Repeat("0", 3-len(m[4]))
		millis, _ = strconv.Atoi(frac)
	}
	totalMs := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(millis)
	return float64(totalMs) / 1000, nil
}

func cleanText(textLines []string) string {
	joined := strings.Join(textLines, " ")
	joined = tagRe.ReplaceAllString(joined, "")
	return strings.Join(strings.Fields(joined), " ")
}

// FormatTimeCode formats seconds as MM:SS. Minutes are not wrapped at 60.
func FormatTimeCode(seconds float64) string {
	if seconds <= 0 || seconds != seconds {
		return "00:00"
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
