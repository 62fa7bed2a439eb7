package quiz

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		pct, threshold int
		want           Band
	}{
		{100, 80, BandPass},
		{80, 80, BandPass},
		{79, 80, BandMarginal},
		{70, 80, BandMarginal},
		{69, 80, BandFail},
		{70, 70, BandPass},
		{60, 70, BandMarginal},
		{59, 70, BandFail},
	}
	for _, tt := range tests {
		if got := Grade(tt.pct, tt.threshold); got != tt.want {
			t.Errorf("Grade(%d, %d) = %s, want %s", tt.pct, tt.threshold, got, tt.want)
		}
	}
}

func TestPercentageRounds(t *testing.T) {
	tests := []struct{ c, total, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{17, 20, 85},
		{1, 8, 13},
	}
	for _, tt := range tests {
		if got := Percentage(tt.c, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.c, tt.total, got, tt.want)
		}
	}
}

func TestDeadline(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	limit := 30 * time.Minute

	if Expired(start, limit, start.Add(29*time.Minute)) {
		t.Error("expired too early")
	}
	if !Expired(start, limit, start.Add(limit)) {
		t.Error("should expire at the deadline")
	}
	if Expired(start, 0, start.Add(time.Hour)) {
		t.Error("untimed session should never expire")
	}
	if got := Remaining(start, limit, start.Add(10*time.Minute)); got != 20*time.Minute {
		t.Errorf("remaining = %v", got)
	}
	if got := Remaining(start, limit, start.Add(time.Hour)); got != 0 {
		t.Errorf("remaining past deadline = %v", got)
	}
}

func categorised(perCat map[string]int) []Question {
	var qs []Question
	for _, cat := range []string{"Legislation", "Tower Types", "Assembly", "Inspection"} {
		for i := 0; i < perCat[cat]; i++ {
			qs = append(qs, Question{
				ID:       fmt.Sprintf("%s-%d", cat, i),
				Prompt:   "p",
				Options:  []string{"a", "b"},
				Category: cat,
			})
		}
	}
	return qs
}

func countBy(qs []Question, key func(Question) string) map[string]int {
	m := map[string]int{}
	for _, q := range qs {
		m[key(q)]++
	}
	return m
}

func TestSelectBalanced(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	cats := []string{"Legislation", "Tower Types", "Assembly", "Inspection"}
	b := categorised(map[string]int{"Legislation": 5, "Tower Types": 5, "Assembly": 5, "Inspection": 5})

	got := SelectBalanced(rng, b, 10, cats)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	counts := countBy(got, func(q Question) string { return q.Category })
	want := map[string]int{"Legislation": 3, "Tower Types": 3, "Assembly": 2, "Inspection": 2}
	for cat, n := range want {
		if counts[cat] != n {
			t.Errorf("%s: %d, want %d", cat, counts[cat], n)
		}
	}
	assertUnique(t, got)
}

func TestSelectBalancedFillsShortfall(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	cats := []string{"Legislation", "Tower Types", "Assembly", "Inspection"}
	b := categorised(map[string]int{"Legislation": 1, "Tower Types": 6, "Assembly": 6, "Inspection": 6})

	got := SelectBalanced(rng, b, 12, cats)
	if len(got) != 12 {
		t.Fatalf("len = %d, want 12", len(got))
	}
	if c := countBy(got, func(q Question) string { return q.Category }); c["Legislation"] != 1 {
		t.Errorf("Legislation = %d, want 1", c["Legislation"])
	}
	assertUnique(t, got)
}

func TestSelectBalancedRepeatedCategory(t *testing.T) {
	b := categorised(map[string]int{"Legislation": 1, "Tower Types": 2})
	for seed := range uint64(20) {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		got := SelectBalanced(rng, b, 2, []string{"Legislation", "Legislation"})
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		assertUnique(t, got)
		if _, err := NewSession(got, ExamOptions); err != nil {
			t.Fatalf("session from selection: %v", err)
		}
	}
}

func TestSelectWholeBank(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	b := bank(5)
	if got := SelectBalanced(rng, b, 20, []string{"x"}); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestSelectByDifficulty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	var b []Question
	for i, d := range []Difficulty{DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced} {
		for j := 0; j < 10; j++ {
			b = append(b, Question{ID: fmt.Sprintf("%d-%d", i, j), Prompt: "p", Options: []string{"a", "b"}, Difficulty: d})
		}
	}

	got := SelectByDifficulty(rng, b, 10, Weights{Basic: 30, Intermediate: 50, Advanced: 20})
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	c := countBy(got, func(q Question) string { return string(q.Difficulty) })
	if c["basic"] != 3 || c["intermediate"] != 5 || c["advanced"] != 2 {
		t.Errorf("tiers = %v, want 3/5/2", c)
	}
	assertUnique(t, got)

	// Only two advanced questions exist; the rest is filled from other tiers.
	short := append([]Question{}, b[:20]...)
	short = append(short, b[20:22]...)
	got = SelectByDifficulty(rng, short, 10, Weights{Basic: 0, Intermediate: 0, Advanced: 100})
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if c := countBy(got, func(q Question) string { return string(q.Difficulty) }); c["advanced"] != 2 {
		t.Errorf("advanced = %d, want 2", c["advanced"])
	}
	assertUnique(t, got)
}

func assertUnique(t *testing.T, qs []Question) {
	t.Helper()
	seen := map[string]bool{}
	for _, q := range qs {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s", q.ID)
		}
		seen[q.ID] = true
	}
}
