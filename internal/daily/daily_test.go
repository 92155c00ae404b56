package daily

import (
	"context"
	"testing"
	"time"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
	"github.com/wordeo/wordeo/apps/go-server/internal/words"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	got := DateKey(time.Date(2024, 3, 2, 5, 0, 0, 0, loc))
	if got != "2024-03-01" {
		t.Errorf("DateKey = %q, want 2024-03-01", got)
	}
}

func TestSequence_DeterministicAndDistinct(t *testing.T) {
	day := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	a := Sequence(day, "salt", 5, 40)
	b := Sequence(day.Add(10*time.Hour), "salt", 5, 40)
	if len(a) != 5 {
		t.Fatalf("len %d, want 5", len(a))
	}
	seen := map[int]bool{}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sequence differs within a day at %d: %d vs %d", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] >= 40 {
			t.Errorf("index %d out of range", a[i])
		}
		if seen[a[i]] {
			t.Errorf("index %d repeated", a[i])
		}
		seen[a[i]] = true
	}

	other := Sequence(day, "other-salt", 5, 40)
	same := true
	for i := range a {
		if a[i] != other[i] {
			same = false
		}
	}
	if same {
		t.Error("different salts produced the same sequence")
	}
}

func TestSequence_Caps(t *testing.T) {
	if got := Sequence(time.Now(), "s", 10, 3); len(got) != 3 {
		t.Errorf("len %d, want 3", len(got))
	}
	if got := Sequence(time.Now(), "s", 3, 0); got != nil {
		t.Errorf("empty pool returned %v", got)
	}
}

type staticPool []words.Entry

func (p staticPool) All(context.Context) ([]words.Entry, error) { return p, nil }

func TestSupply_Fetch(t *testing.T) {
	pool := staticPool{
		{ID: 1, Word: game.Word{Text: "apple"}},
		{ID: 2, Word: game.Word{Text: "table"}},
		{ID: 3, Word: game.Word{Text: "crane"}},
	}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Supply{Pool: pool, Salt: "salt", Now: func() time.Time { return day }}
	a, err := s.Fetch(context.Background(), 2)
	if err != nil || len(a) != 2 {
		t.Fatalf("fetch %v %v", a, err)
	}
	b, _ := s.Fetch(context.Background(), 2)
	if a[0].Text != b[0].Text || a[1].Text != b[1].Text {
		t.Error("daily supply is not stable within a day")
	}
}
