package anki

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type captured struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Key     string          `json:"key"`
	Params  json.RawMessage `json:"params"`
}

func newServer(t *testing.T, reply func(req captured) any) (*httptest.Server, *[]captured) {
	t.Helper()
	var seen []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req captured
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seen = append(seen, req)
		_ = json.NewEncoder(w).Encode(reply(req))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestDeckNames(t *testing.T) {
	srv, seen := newServer(t, func(captured) any {
		return map[string]any{"result": []string{"Default", "Spanish"}, "error": nil}
	})
	c := NewClient(srv.URL, "secret")
	decks, err := c.DeckNames(context.Background())
	if err != nil {
		t.Fatalf("deckNames: %v", err)
	}
	if len(decks) != 2 || decks[1] != "Spanish" {
		t.Fatalf("unexpected decks %v", decks)
	}
	req := (*seen)[0]
	if req.Action != "deckNames" || req.Version != 6 || req.Key != "secret" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestModelFieldNamesSendsModel(t *testing.T) {
	srv, seen := newServer(t, func(captured) any {
		return map[string]any{"result": []string{"Front", "Back"}, "error": nil}
	})
	c := NewClient(srv.URL, "")
	fields, err := c.ModelFieldNames(context.Background(), "Basic")
	if err != nil {
		t.Fatalf("modelFieldNames: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("unexpected fields %v", fields)
	}
	var params map[string]string
	if err := json.Unmarshal((*seen)[0].Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["modelName"] != "Basic" {
		t.Fatalf("expected modelName param, got %v", params)
	}
	if (*seen)[0].Key != "" {
		t.Fatalf("expected no key")
	}
}

func TestSinkError(t *testing.T) {
	srv, _ := newServer(t, func(captured) any {
		return map[string]any{"result": nil, "error": "deck was not found: Missing"}
	})
	c := NewClient(srv.URL, "")
	_, err := c.AddNote(context.Background(), Note{DeckName: "Missing", ModelName: "Basic"})
	if !errors.Is(err, ErrSink) {
		t.Fatalf("expected ErrSink, got %v", err)
	}
	var se *SinkError
	if !errors.As(err, &se) || se.Message != "deck was not found: Missing" {
		t.Fatalf("expected sink message, got %v", err)
	}
}

func TestAddNotePayload(t *testing.T) {
	srv, seen := newServer(t, func(captured) any {
		return map[string]any{"result": 1496198395707, "error": nil}
	})
	c := NewClient(srv.URL, "")
	tmpl := Template{Deck: "Spanish", Model: "Sentence", Fields: map[string]string{
		"Front": KeySentence,
		"Audio": KeyAudioClip,
		"Image": KeyStill,
		"Notes": "",
	}}
	note := BuildNote(tmpl, Content{
		Sentence: "Hola, amigo.",
		Audio:    &Attachment{Base64: "AAAA", Filename: "tuidict_1.webm"},
	})
	id, err := c.AddNote(context.Background(), note)
	if err != nil {
		t.Fatalf("addNote: %v", err)
	}
	if id != 1496198395707 {
		t.Fatalf("unexpected id %d", id)
	}

	var params struct {
		Note Note `json:"note"`
	}
	if err := json.Unmarshal((*seen)[0].Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	got := params.Note
	if got.Fields["Front"] != "Hola, amigo." || got.Fields["Notes"] != "" {
		t.Fatalf("unexpected fields %v", got.Fields)
	}
	if len(got.Audio) != 1 || got.Audio[0].Fields[0] != "Audio" {
		t.Fatalf("expected audio attached to Audio field, got %+v", got.Audio)
	}
	if len(got.Picture) != 0 {
		t.Fatalf("expected no picture without a still")
	}
	if !got.Options.AllowDuplicate {
		t.Fatalf("expected duplicates allowed")
	}
}

func TestHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, "").Version(context.Background())
	if err == nil || errors.Is(err, ErrSink) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestTemplateHelpers(t *testing.T) {
	tmpl := &Template{Deck: "d", Model: "m", Fields: map[string]string{"A": KeyWord}}
	if !tmpl.Valid() || !tmpl.Uses(KeyWord) || tmpl.Uses(KeyAudioClip) {
		t.Fatalf("unexpected template helpers")
	}
	var missing *Template
	if missing.Valid() || missing.Uses(KeyWord) {
		t.Fatalf("nil template must be invalid")
	}
	bad := Template{Fields: map[string]string{"A": "bogus"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
