package tokenize

import (
	"strings"
	"testing"
)

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"Hello, world!",
		"¿Qué tal?  Miren   esto...",
		"don't stop—it's 3 o'clock",
		"\tleading and trailing \n",
		"日本語のテキスト。",
		"rock'n'roll",
		"end'",
		"a b",
	}
	for _, in := range inputs {
		tokens := Tokenize(in)
		var b strings.Builder
		for i, tok := range tokens {
			if tok.Value == "" {
				t.Fatalf("empty token in %q", in)
			}
			if tok.Index != i {
				t.Fatalf("token %d has index %d in %q", i, tok.Index, in)
			}
			b.WriteString(tok.Value)
		}
		if b.String() != in {
			t.Fatalf("round trip mismatch: got %q, want %q", b.String(), in)
		}
	}
}

func TestTokenizeTypes(t *testing.T) {
	tokens := Tokenize("Don't go, Señor!")
	want := []struct {
		typ   Type
		value string
	}{
		{Word, "Don't"},
		{Space, " "},
		{Word, "go"},
		{Punctuation, ","},
		{Space, " "},
		{Word, "Señor"},
		{Punctuation, "!"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value {
			t.Fatalf("token %d: got %s %q, want %s %q", i, tokens[i].Type, tokens[i].Value, w.typ, w.value)
		}
	}
}

func TestTokenizeApostropheLimits(t *testing.T) {
	tokens := Tokenize("rock'n'roll")
	words := WordTokens(tokens)
	if len(words) != 2 || words[0].Value != "rock'n" || words[1].Value != "roll" {
		t.Fatalf("unexpected words: %+v", words)
	}
	tokens = Tokenize("dogs' toys")
	words = WordTokens(tokens)
	if words[0].Value != "dogs" {
		t.Fatalf("trailing apostrophe should not join the word: %+v", words)
	}
}

func TestMatchFlexible(t *testing.T) {
	tests := []struct {
		input  string
		target string
		want   bool
	}{
		{"Miren", "miren", true},
		{"mirEn", "miren", false},
		{"dicen", "dice", false},
		{"miren", "Miren", true},
		{" hola ", "hola", true},
		{"", "", false},
		{"Ñandú", "ñandú", true},
		{"ñandu", "ñandú", false},
	}
	for _, tc := range tests {
		if got := MatchFlexible(tc.input, tc.target); got != tc.want {
			t.Fatalf("MatchFlexible(%q, %q) = %v, want %v", tc.input, tc.target, got, tc.want)
		}
	}
	for _, w := range []string{"a", "Word", "can't", "über"} {
		if !MatchFlexible(w, w) {
			t.Fatalf("expected %q to match itself", w)
		}
	}
}

func TestMatchExact(t *testing.T) {
	if !MatchExact(" HoLa", "hola ") {
		t.Fatalf("expected case-insensitive match")
	}
	if MatchExact("hola", "holas") {
		t.Fatalf("expected mismatch")
	}
}

func TestCompareWords(t *testing.T) {
	tokens := Tokenize("Miren, dicen que sí.")
	results := CompareWords(tokens, []string{"miren", "dice"})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].IsCorrect {
		t.Fatalf("expected first word correct")
	}
	if results[1].IsCorrect {
		t.Fatalf("expected second word incorrect")
	}
	if results[2].InputWord != "" || results[2].IsCorrect {
		t.Fatalf("expected missing input to be empty and incorrect: %+v", results[2])
	}
	if results[0].TokenIndex != 0 || results[1].TokenIndex != 3 {
		t.Fatalf("unexpected token indices: %+v", results)
	}
	if CorrectCount(results) != 1 {
		t.Fatalf("expected 1 correct, got %d", CorrectCount(results))
	}
}

func TestAllWordsCorrect(t *testing.T) {
	tokens := Tokenize("Hola, amigo.")
	if !AllWordsCorrect(tokens, []string{"hola", "amigo"}) {
		t.Fatalf("expected all correct")
	}
	if AllWordsCorrect(tokens, []string{"hola"}) {
		t.Fatalf("expected false for short input array")
	}
	if AllWordsCorrect(tokens, []string{"hola", "amigo", "extra"}) {
		t.Fatalf("expected false for long input array")
	}
	if AllWordsCorrect(tokens, []string{"hola", "Amigo"}) != true {
		t.Fatalf("expected flexible first letter to pass")
	}
}

func TestReconstructText(t *testing.T) {
	tokens := Tokenize("Hola, amigo.")
	got := ReconstructText(tokens, []string{"ola"})
	if got != "ola, ." {
		t.Fatalf("unexpected reconstruction: %q", got)
	}
	if ReconstructText(tokens, []string{"Hola", "amigo"}) != "Hola, amigo." {
		t.Fatalf("expected original text back")
	}
}

func TestEmptyTextHasNoWords(t *testing.T) {
	if WordCount(Tokenize("... !")) != 0 {
		t.Fatalf("expected no words")
	}
	if len(Tokenize("")) != 0 {
		t.Fatalf("expected no tokens")
	}
}
