// Package reveal tracks which words of the active line are unmasked.
package reveal

import "time"

// DefaultPeek is how long a peeked word stays visible.
const DefaultPeek = 1500 * time.Millisecond

// State holds revealed word indices (positions among word tokens) and an
// optional peek word that hides itself after a deadline.
type State struct {
	revealed  map[int]struct{}
	selected  int
	peek      int
	peekUntil time.Time
}

// New returns an empty State.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset clears all reveals, the selection and any peek.
func (s *State) Reset() {
	s.revealed = map[int]struct{}{}
	s.selected = -1
	s.peek = -1
	s.peekUntil = time.Time{}
}

// OnLineChanged implements the synchronizer observer hook.
func (s *State) OnLineChanged(int) {
	s.Reset()
}

// Reveal unmasks the word at idx and selects it. It reports whether the word
// was newly revealed.
func (s *State) Reveal(idx int) bool {
	if idx < 0 {
		return false
	}
	s.selected = idx
	if _, ok := s.revealed[idx]; ok {
		return false
	}
	s.revealed[idx] = struct{}{}
	return true
}

// RevealNext unmasks the first hidden word and returns its index, or -1.
func (s *State) RevealNext(wordCount int) int {
	for i := 0; i < wordCount; i++ {
		if _, ok := s.revealed[i]; !ok {
			s.Reveal(i)
			return i
		}
	}
	return -1
}

// RevealAll unmasks every word.
func (s *State) RevealAll(wordCount int) {
	for i := 0; i < wordCount; i++ {
		s.revealed[i] = struct{}{}
	}
}

// IsRevealed reports whether the word at idx is permanently unmasked.
func (s *State) IsRevealed(idx int) bool {
	_, ok := s.revealed[idx]
	return ok
}

// Visible reports whether the word at idx should be shown at now.
func (s *State) Visible(idx int, now time.Time) bool {
	return s.IsRevealed(idx) || s.PeekActive(idx, now)
}

// RevealedCount returns the number of revealed words.
func (s *State) RevealedCount() int {
	return len(s.revealed)
}

// AllRevealed reports whether every one of wordCount words is revealed.
func (s *State) AllRevealed(wordCount int) bool {
	if wordCount == 0 {
		return false
	}
	for i := 0; i < wordCount; i++ {
		if _, ok := s.revealed[i]; !ok {
			return false
		}
	}
	return true
}

// Selected returns the selected word index, or -1.
func (s *State) Selected() int {
	return s.selected
}

// Peek shows the word at idx until now+d without revealing it.
func (s *State) Peek(idx int, now time.Time, d time.Duration) {
	if d <= 0 {
		d = DefaultPeek
	}
	s.peek = idx
	s.peekUntil = now.Add(d)
}

// PeekNext peeks the first hidden word and returns its index, or -1.
func (s *State) PeekNext(wordCount int, now time.Time, d time.Duration) int {
	for i := 0; i < wordCount; i++ {
		if !s.IsRevealed(i) {
			s.Peek(i, now, d)
			return i
		}
	}
	return -1
}

// PeekActive reports whether idx is the peek word and its deadline has not passed.
func (s *State) PeekActive(idx int, now time.Time) bool {
	return s.peek >= 0 && s.peek == idx && now.Before(s.peekUntil)
}

// Expire drops an elapsed peek. It reports whether a peek was cleared.
func (s *State) Expire(now time.Time) bool {
	if s.peek < 0 || now.Before(s.peekUntil) {
		return false
	}
	s.peek = -1
	s.peekUntil = time.Time{}
	return true
}
