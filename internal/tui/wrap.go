package tui

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuidict/internal/reveal"
	"github.com/verte-zerg/tuidict/internal/tokenize"
)

// segment is one rendered piece of a line: a word box, punctuation or space.
type segment struct {
	s       string
	width   int
	isSpace bool
}

const maskRune = '_'

type styleFunc func(...string) string

func newSegment(text string, style styleFunc) segment {
	return segment{s: style(text), width: runewidth.StringWidth(text)}
}

func spaceSegment() segment {
	return segment{s: " ", width: 1, isSpace: true}
}

// mask hides a word while keeping its display width.
func mask(word string) string {
	w := runewidth.StringWidth(word)
	if w < 1 {
		w = 1
	}
	return strings.Repeat(string(maskRune), w)
}

// fitWidth pads or truncates s to the display width of target so input
// boxes do not shift the line while typing.
func fitWidth(s, target string) string {
	pad := runewidth.StringWidth(target) - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(string(maskRune), pad)
}

// eachToken walks tokens, calling word with the word position for word
// tokens and appending fixed segments for the rest.
func eachToken(tokens []tokenize.Token, word func(idx int, tok tokenize.Token) segment) []segment {
	out := make([]segment, 0, len(tokens))
	wordIdx := 0
	for _, tok := range tokens {
		switch tok.Type {
		case tokenize.Space:
			out = append(out, spaceSegment())
		case tokenize.Punctuation:
			out = append(out, newSegment(tok.Value, punctStyle.Render))
		default:
			out = append(out, word(wordIdx, tok))
			wordIdx++
		}
	}
	return out
}

// buildMaskedSegments renders the line with every word hidden.
func buildMaskedSegments(tokens []tokenize.Token) []segment {
	return eachToken(tokens, func(_ int, tok tokenize.Token) segment {
		return newSegment(mask(tok.Value), pendingStyle.Render)
	})
}

// buildInputSegments renders the dictation boxes. The focused box is
// underlined and a peeked word shows its target in place of the input.
func buildInputSegments(tokens []tokenize.Token, inputs []string, focus int, rs *reveal.State, now time.Time) []segment {
	return eachToken(tokens, func(idx int, tok tokenize.Token) segment {
		input := ""
		if idx < len(inputs) {
			input = inputs[idx]
		}
		style := inputStyle
		text := fitWidth(input, tok.Value)
		switch {
		case rs != nil && rs.PeekActive(idx, now):
			style = peekStyle
			text = tok.Value
		case input == "":
			style = pendingStyle
		}
		if idx == focus {
			style = style.Underline(true)
		}
		return newSegment(text, style.Render)
	})
}

// buildFeedbackSegments shows each input coloured by result, with the
// expected word after a wrong one.
func buildFeedbackSegments(tokens []tokenize.Token, results []tokenize.WordComparisonResult) []segment {
	return eachToken(tokens, func(idx int, tok tokenize.Token) segment {
		if idx >= len(results) {
			return newSegment(tok.Value, pendingStyle.Render)
		}
		r := results[idx]
		if r.IsCorrect {
			return newSegment(r.InputWord, correctStyle.Render)
		}
		typed := r.InputWord
		if typed == "" {
			typed = mask(tok.Value)
		}
		text := typed + "→" + tok.Value
		return segment{
			s:     incorrectStyle.Render(typed) + pendingStyle.Render("→") + expectedStyle.Render(tok.Value),
			width: runewidth.StringWidth(text),
		}
	})
}

// buildRevealSegments shows revealed and peeked words and masks the rest.
func buildRevealSegments(tokens []tokenize.Token, rs *reveal.State, focus int, now time.Time) []segment {
	return eachToken(tokens, func(idx int, tok tokenize.Token) segment {
		style := pendingStyle
		text := mask(tok.Value)
		switch {
		case rs.IsRevealed(idx) && idx == rs.Selected():
			style = selectedStyle
			text = tok.Value
		case rs.IsRevealed(idx):
			style = correctStyle
			text = tok.Value
		case rs.PeekActive(idx, now):
			style = peekStyle
			text = tok.Value
		}
		if idx == focus {
			style = style.Underline(true)
		}
		return newSegment(text, style.Render)
	})
}

func renderSegments(segs []segment) string {
	var b strings.Builder
	for _, item := range segs {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapSegments breaks at space segments so words never split across lines
// unless a single word is wider than the line.
func wrapSegments(segs []segment, width int) string {
	if width <= 0 {
		return renderSegments(segs)
	}
	var out strings.Builder
	line := make([]segment, 0, len(segs))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(segs); {
		item := segs[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderSegments(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]segment{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderSegments(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
				if item.isSpace {
					i++
				}
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderSegments(line))
	return out.String()
}

func lineWidthOf(line []segment) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []segment) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
