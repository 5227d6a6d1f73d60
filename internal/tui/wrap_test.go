package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuidict/internal/reveal"
	"github.com/verte-zerg/tuidict/internal/tokenize"
)

func plainSegments(text string) []segment {
	var out []segment
	for _, tok := range tokenize.Tokenize(text) {
		if tok.Type == tokenize.Space {
			out = append(out, spaceSegment())
			continue
		}
		out = append(out, segment{s: tok.Value, width: len(tok.Value)})
	}
	return out
}

func TestWrapSegmentsBreaksAtSpaces(t *testing.T) {
	got := wrapSegments(plainSegments("one two three"), 8)
	if got != "one two\nthree" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestWrapSegmentsSplitsLongWord(t *testing.T) {
	segs := []segment{{s: "abcdef", width: 6}, spaceSegment(), {s: "g", width: 1}}
	got := wrapSegments(segs, 4)
	if got != "abcdef\ng" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestMaskKeepsDisplayWidth(t *testing.T) {
	if got := mask("adiós"); got != "_____" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := fitWidth("ad", "adiós"); got != "ad___" {
		t.Fatalf("unexpected padded input %q", got)
	}
	if got := fitWidth("adiosss", "adiós"); got != "adiosss" {
		t.Fatalf("expected long input kept, got %q", got)
	}
}

func TestMaskedSegmentsKeepPunctuation(t *testing.T) {
	segs := buildMaskedSegments(tokenize.Tokenize("Hola, mundo."))
	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segs))
	}
	if segs[0].width != 4 || segs[1].s != punctStyle.Render(",") || !segs[2].isSpace {
		t.Fatalf("unexpected segments %+v", segs)
	}
}

func TestFeedbackSegmentsShowExpected(t *testing.T) {
	tokens := tokenize.Tokenize("uno dos")
	results := tokenize.CompareWords(tokens, []string{"uno", "tres"})
	segs := buildFeedbackSegments(tokens, results)
	if segs[0].s != correctStyle.Render("uno") {
		t.Fatalf("expected correct style for first word")
	}
	if segs[2].width != len("tres")+1+len("dos") {
		t.Fatalf("expected width of input, arrow and target, got %d", segs[2].width)
	}
	if !strings.Contains(segs[2].s, "dos") {
		t.Fatalf("expected target word in feedback segment")
	}
}

func TestRevealSegments(t *testing.T) {
	now := time.Unix(10, 0)
	rs := reveal.New()
	tokens := tokenize.Tokenize("uno dos tres")
	rs.Reveal(1)
	rs.Peek(2, now, time.Second)
	segs := buildRevealSegments(tokens, rs, -1, now)
	if segs[0].s != pendingStyle.Render("___") {
		t.Fatalf("expected hidden first word")
	}
	if segs[2].s != selectedStyle.Render("dos") {
		t.Fatalf("expected selected revealed word")
	}
	if segs[4].s != peekStyle.Render("tres") {
		t.Fatalf("expected peeked word")
	}
}
