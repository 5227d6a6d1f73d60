package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuidict/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "tuidict.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return st
}

func sampleVideo(id string, practiced time.Time) model.VideoRecord {
	return model.VideoRecord{
		ID:             id,
		DisplayName:    "Episode " + id,
		VideoPath:      "/videos/" + id + ".mkv",
		SubtitlePath:   "/videos/" + id + ".srt",
		SubtitleText:   "1\n00:00:01,000 --> 00:00:02,000\nHola\n",
		TotalLines:     1,
		LearningMode:   model.LearningDictation,
		RevealPlayback: model.RevealLineByLine,
		DateAdded:      practiced,
		LastPracticed:  practiced,
	}
}

func TestVideoRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := st.UpsertVideo(ctx, sampleVideo("aaaa-1111", base)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertVideo(ctx, sampleVideo("aaaa-2222", base.Add(time.Hour))); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := st.GetVideo(ctx, "aaaa-1111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Episode aaaa-1111" || !got.DateAdded.Equal(base) {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, err := st.GetVideo(ctx, "aaaa"); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguous prefix, got %v", err)
	}
	if got, err := st.GetVideo(ctx, "aaaa-2"); err != nil || got.ID != "aaaa-2222" {
		t.Fatalf("expected prefix match, got %v %v", got.ID, err)
	}
	if _, err := st.GetVideo(ctx, "zzzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list, err := st.ListVideos(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "aaaa-2222" {
		t.Fatalf("expected most recent first, got %+v", list)
	}

	found, err := st.FindVideoByPaths(ctx, "/videos/aaaa-1111.mkv", "/videos/aaaa-1111.srt")
	if err != nil || found.ID != "aaaa-1111" {
		t.Fatalf("find by paths: %v %v", found.ID, err)
	}
	if _, err := st.FindVideoByPaths(ctx, "/nope.mkv", "/nope.srt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := st.UpsertVideo(ctx, sampleVideo("v1", base)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	later := base.Add(30 * time.Minute)
	if err := st.UpdateProgress(ctx, "v1", model.Progress{LineIndex: 4, SectionIndex: 1}, 0.5, later, 90); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.UpdateProgress(ctx, "v1", model.Progress{LineIndex: 5, SectionIndex: 1}, 0.6, later, 30); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Progress.LineIndex != 5 || got.Progress.SectionIndex != 1 || got.PracticeSeconds != 120 {
		t.Fatalf("unexpected progress %+v", got)
	}
	if !got.LastPracticed.Equal(later) {
		t.Fatalf("expected last practiced updated")
	}
	if err := st.UpdateProgress(ctx, "missing", model.Progress{}, 0, later, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSavedLinesDeduplicate(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	line := model.SavedLine{ID: "s1", Text: "¿Qué tal?", VideoID: "v1", LineID: 2, VideoName: "ep1", TimeDisplay: "00:04", DateSaved: now}

	inserted, err := st.SaveLine(ctx, line)
	if err != nil || !inserted {
		t.Fatalf("expected insert, got %v %v", inserted, err)
	}
	dup := line
	dup.ID = "s2"
	inserted, err = st.SaveLine(ctx, dup)
	if err != nil || inserted {
		t.Fatalf("expected duplicate text ignored, got %v %v", inserted, err)
	}
	other := model.SavedLine{ID: "s3", Text: "Muy bien.", VideoID: "v2", LineID: 1, VideoName: "ep2", TimeDisplay: "00:08", DateSaved: now.Add(time.Minute)}
	if _, err := st.SaveLine(ctx, other); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := st.ListSavedLines(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "s3" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	forVideo, err := st.ListSavedLines(ctx, "v1")
	if err != nil || len(forVideo) != 1 || forVideo[0].LineID != 2 {
		t.Fatalf("expected one line for v1, got %+v %v", forVideo, err)
	}
	if err := st.DeleteSavedLine(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteSavedLine(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestAttemptsAndAggregates(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	if err := st.UpsertVideo(ctx, sampleVideo("v1", base)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	attempts := []model.Attempt{
		{VideoID: "v1", LineID: 1, CorrectWords: 3, TotalWords: 4, At: base},
		{VideoID: "v1", LineID: 2, CorrectWords: 2, TotalWords: 2, At: base.Add(time.Second)},
		{VideoID: "v2", LineID: 1, CorrectWords: 0, TotalWords: 5, At: base.Add(2 * time.Second)},
	}
	if err := st.InsertAttempts(ctx, attempts); err != nil {
		t.Fatalf("insert: %v", err)
	}

	since := base.Add(500 * time.Millisecond)
	got, err := st.ListAttempts(ctx, "v1", &since)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].LineID != 2 {
		t.Fatalf("unexpected filtered attempts %+v", got)
	}

	aggs, err := st.VideoAggregates(ctx)
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 || aggs[0].VideoID != "v2" {
		t.Fatalf("expected v2 first, got %+v", aggs)
	}
	v1 := aggs[1]
	if v1.Attempts != 2 || v1.CorrectWords != 5 || v1.TotalWords != 6 || v1.DisplayName != "Episode v1" {
		t.Fatalf("unexpected v1 aggregate %+v", v1)
	}
	if aggs[0].DisplayName != "" {
		t.Fatalf("expected empty name for unknown video")
	}

	if err := st.DeleteVideo(ctx, "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left, err := st.ListAttempts(ctx, "v1", nil)
	if err != nil || len(left) != 0 {
		t.Fatalf("expected attempts removed with video, got %d %v", len(left), err)
	}
	if err := st.DeleteVideo(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
