package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuidict/internal/model"
)

func TestAccuracy(t *testing.T) {
	if got := Accuracy(3, 4); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := Accuracy(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty attempt, got %v", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample %v", got)
	}
	if got := Resample([]float64{1, 2}, 5); len(got) != 2 {
		t.Fatalf("expected short input untouched, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No attempts found.") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}

	buf.Reset()
	videos := []model.VideoAggregate{
		{VideoID: "a", Attempts: 2, CorrectWords: 3, TotalWords: 4},
		{VideoID: "b", Attempts: 1, CorrectWords: 1, TotalWords: 4},
	}
	if err := RenderSummary(&buf, videos); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Attempts: 3", "Words: 4/8", "Accuracy: 50.00%", "Best video: 75.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestRenderCurveFitsWidth(t *testing.T) {
	var attempts []model.Attempt
	base := time.Unix(0, 0)
	for i := 0; i < 200; i++ {
		attempts = append(attempts, model.Attempt{CorrectWords: i % 5, TotalWords: 4, At: base.Add(time.Duration(i) * time.Second)})
	}
	var buf bytes.Buffer
	if err := RenderCurve(&buf, attempts, 5, 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected curve output, got %q", buf.String())
	}
	if len(lines[1]) > 40 {
		t.Fatalf("expected curve within 40 columns, got %d", len(lines[1]))
	}
}
