package anki

import (
	"fmt"
	"sort"
)

// Semantic keys a template field may be mapped to.
const (
	KeySentence   = "sentence"
	KeySourceName = "sourceName"
	KeyTimestamp  = "timestamp"
	KeyStill      = "still"
	KeyAudioClip  = "audioClip"
	KeyWord       = "word"
	KeyDefinition = "definition"
	KeyContext    = "context"
)

// KnownKeys lists the semantic keys in display order.
var KnownKeys = []string{
	KeySentence, KeySourceName, KeyTimestamp, KeyStill,
	KeyAudioClip, KeyWord, KeyDefinition, KeyContext,
}

// Template names a deck and note type and maps note fields to semantic keys.
type Template struct {
	Deck   string
	Model  string
	Fields map[string]string
}

// Valid reports whether the template can receive notes.
func (t *Template) Valid() bool {
	return t != nil && t.Deck != "" && t.Model != ""
}

// Uses reports whether any field maps to key.
func (t *Template) Uses(key string) bool {
	if t == nil {
		return false
	}
	for _, k := range t.Fields {
		if k == key {
			return true
		}
	}
	return false
}

// Validate rejects mappings to unknown semantic keys.
func (t *Template) Validate() error {
	known := map[string]bool{}
	for _, k := range KnownKeys {
		known[k] = true
	}
	for field, key := range t.Fields {
		if key != "" && !known[key] {
			return fmt.Errorf("field %q maps to unknown key %q", field, key)
		}
	}
	return nil
}

// Media is an attachment stored in Anki's media folder.
type Media struct {
	Data     string   `json:"data"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// Options controls duplicate handling.
type Options struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope,omitempty"`
}

// Note is the addNote payload.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   Options           `json:"options"`
	Tags      []string          `json:"tags,omitempty"`
	Picture   []Media           `json:"picture,omitempty"`
	Audio     []Media           `json:"audio,omitempty"`
}

// Attachment is captured media handed to BuildNote already encoded.
type Attachment struct {
	Base64   string
	Filename string
}

// Content is the data available for one export.
type Content struct {
	Sentence   string
	SourceName string
	Timestamp  string
	Word       string
	Definition string
	Still      *Attachment
	Audio      *Attachment
}

// BuildNote fills the template's fields from c. Unmapped fields stay blank
// and media is attached only when it was captured.
func BuildNote(t Template, c Content) Note {
	note := Note{
		DeckName:  t.Deck,
		ModelName: t.Model,
		Fields:    map[string]string{},
		Options:   Options{AllowDuplicate: true, DuplicateScope: "deck"},
		Tags:      []string{"tuidict"},
	}
	fields := make([]string, 0, len(t.Fields))
	for f := range t.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		switch t.Fields[field] {
		case KeySentence, KeyContext:
			note.Fields[field] = c.Sentence
		case KeySourceName:
			note.Fields[field] = c.SourceName
		case KeyTimestamp:
			note.Fields[field] = c.Timestamp
		case KeyWord:
			note.Fields[field] = c.Word
		case KeyDefinition:
			note.Fields[field] = c.Definition
		case KeyStill:
			note.Fields[field] = ""
			if c.Still != nil {
				note.Picture = append(note.Picture, Media{Data: c.Still.Base64, Filename: c.Still.Filename, Fields: []string{field}})
			}
		case KeyAudioClip:
			note.Fields[field] = ""
			if c.Audio != nil {
				note.Audio = append(note.Audio, Media{Data: c.Audio.Base64, Filename: c.Audio.Filename, Fields: []string{field}})
			}
		default:
			note.Fields[field] = ""
		}
	}
	return note
}
