package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the practice bindings. Letter commands also accept an alt
// prefix so they stay reachable while dictation input owns plain runes.
type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Enter       key.Binding
	TogglePlay  key.Binding
	Replay      key.Binding
	Listen      key.Binding
	PrevLine    key.Binding
	NextLine    key.Binding
	PrevSection key.Binding
	NextSection key.Binding
	ScrubBack   key.Binding
	ScrubFwd    key.Binding
	WordLeft    key.Binding
	WordRight   key.Binding
	Reveal      key.Binding
	RevealNext  key.Binding
	RevealAll   key.Binding
	Peek        key.Binding
	Save        key.Binding
	JumpSaved   key.Binding
	Copy        key.Binding
	ExportLine  key.Binding
	ExportWord  key.Binding
	ExportAudio key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	SpeedUp     key.Binding
	SpeedDown   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?", "alt+?"), key.WithHelp("?", "help")),
		Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit/next")),
		TogglePlay:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Replay:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "replay")),
		Listen:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "replay+next")),
		PrevLine:    key.NewBinding(key.WithKeys("ctrl+left", "alt+left"), key.WithHelp("ctrl+←", "prev line")),
		NextLine:    key.NewBinding(key.WithKeys("ctrl+right", "alt+right"), key.WithHelp("ctrl+→", "next line")),
		PrevSection: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev section")),
		NextSection: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next section")),
		ScrubBack:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("shift+←", "scrub -5%")),
		ScrubFwd:    key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("shift+→", "scrub +5%")),
		WordLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev word")),
		WordRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next word")),
		Reveal:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reveal word")),
		RevealNext:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "reveal next")),
		RevealAll:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reveal all")),
		Peek:        key.NewBinding(key.WithKeys("p", "alt+p"), key.WithHelp("p", "peek")),
		Save:        key.NewBinding(key.WithKeys("s", "alt+s"), key.WithHelp("s", "save line")),
		JumpSaved:   key.NewBinding(key.WithKeys("J", "alt+J"), key.WithHelp("J", "next saved")),
		Copy:        key.NewBinding(key.WithKeys("y", "alt+y"), key.WithHelp("y", "copy")),
		ExportLine:  key.NewBinding(key.WithKeys("a", "alt+a"), key.WithHelp("a", "anki line")),
		ExportWord:  key.NewBinding(key.WithKeys("W", "alt+W"), key.WithHelp("W", "anki word")),
		ExportAudio: key.NewBinding(key.WithKeys("w", "alt+w"), key.WithHelp("w", "anki word+audio")),
		VolumeUp:    key.NewBinding(key.WithKeys("+", "=", "alt++"), key.WithHelp("+/-", "volume")),
		VolumeDown:  key.NewBinding(key.WithKeys("-", "alt+-")),
		SpeedUp:     key.NewBinding(key.WithKeys("]", "alt+]"), key.WithHelp("[/]", "speed")),
		SpeedDown:   key.NewBinding(key.WithKeys("[", "alt+[")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.TogglePlay, k.Replay, k.PrevLine, k.NextLine, k.Peek, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.TogglePlay, k.Replay, k.Listen, k.Quit},
		{k.PrevLine, k.NextLine, k.PrevSection, k.NextSection, k.ScrubBack, k.ScrubFwd},
		{k.WordLeft, k.WordRight, k.Reveal, k.RevealNext, k.RevealAll, k.Peek},
		{k.Save, k.JumpSaved, k.Copy, k.ExportLine, k.ExportWord, k.ExportAudio},
		{k.VolumeUp, k.SpeedUp, k.Help},
	}
}
