package concurrency

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

func TestNewBatchDefaults(t *testing.T) {
	b := NewBatch(nil, 0, 0)
	if b.Workers() < 1 {
		t.Errorf("workers = %d", b.Workers())
	}
	if b.MaxItems() != DefaultMaxItems {
		t.Errorf("max items = %d", b.MaxItems())
	}
}

func TestAnalyzeTextsOrder(t *testing.T) {
	b := NewBatch(nil, 4, 100)
	texts := []string{"so happy!", "losing hope", "", "the bus was late", "absolutely thrilled"}

	got, err := b.AnalyzeTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("AnalyzeTexts: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("got %d results", len(got))
	}
	for i, text := range texts {
		want := sentiment.Analyze(text)
		if got[i].Scores != want.Scores || got[i].Sentiment != want.Sentiment {
			t.Errorf("result %d (%q) = %+v, want %+v", i, text, got[i], want)
		}
	}
}

func TestAnalyzeCheckins(t *testing.T) {
	nine, two := 9.0, 2.0
	inputs := []checkin.Input{
		{ConfidenceToday: &nine},
		{ConfidenceToday: &two},
		{UserNote: "grateful", MoodToday: checkin.MoodTags{"hopeful"}},
	}
	got, err := NewBatch(nil, 2, 10).AnalyzeCheckins(context.Background(), inputs)
	if err != nil {
		t.Fatalf("AnalyzeCheckins: %v", err)
	}
	if got[0].Sentiment != sentiment.LabelPositive {
		t.Errorf("confidence 9 = %s", got[0].Sentiment)
	}
	if got[1].Sentiment == sentiment.LabelPositive {
		t.Errorf("confidence 2 = %s", got[1].Sentiment)
	}
	if got[2].Sentiment != sentiment.LabelPositive {
		t.Errorf("grateful hopeful = %s", got[2].Sentiment)
	}
}

func TestBatchTooLarge(t *testing.T) {
	b := NewBatch(nil, 2, 3)
	_, err := b.AnalyzeTexts(context.Background(), make([]string, 4))
	if !errors.Is(err, core.ErrBatchTooLarge) {
		t.Fatalf("err = %v, want ErrBatchTooLarge", err)
	}
	if b.Stats()["rejected"].(uint64) != 1 {
		t.Errorf("rejected counter not incremented: %v", b.Stats())
	}
}

func TestBatchEmpty(t *testing.T) {
	got, err := NewBatch(nil, 2, 3).AnalyzeTexts(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBatch(nil, 2, 100).AnalyzeTexts(ctx, []string{"a", "b", "c"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBatchStats(t *testing.T) {
	b := NewBatch(nil, 3, 50)
	for i := 0; i < 3; i++ {
		if _, err := b.AnalyzeTexts(context.Background(), []string{"ok", "fine"}); err != nil {
			t.Fatal(err)
		}
	}
	stats := b.Stats()
	if stats["batches"].(uint64) != 3 || stats["items"].(uint64) != 6 {
		t.Errorf("stats = %v", stats)
	}
}

func TestBatchConcurrentCalls(t *testing.T) {
	b := NewBatch(nil, 4, 200)
	texts := make([]string, 200)
	for i := range texts {
		texts[i] = fmt.Sprintf("day %d feeling hopeful but tired", i)
	}

	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func() {
			_, err := b.AnalyzeTexts(context.Background(), texts)
			errs <- err
		}()
	}
	for g := 0; g < 8; g++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent batch: %v", err)
		}
	}
}

func BenchmarkAnalyzeTexts(b *testing.B) {
	batch := NewBatch(nil, 0, 0)
	texts := make([]string, 500)
	for i := range texts {
		texts[i] = "Feeling overwhelmed and exhausted today, but grateful for support"
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := batch.AnalyzeTexts(ctx, texts); err != nil {
			b.Fatal(err)
		}
	}
}
