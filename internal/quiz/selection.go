package quiz

import (
	"math"
	"math/rand/v2"
)

// Weights are the relative shares of each difficulty tier in a selection.
type Weights struct {
	Basic        int `json:"basic" yaml:"basic"`
	Intermediate int `json:"intermediate" yaml:"intermediate"`
	Advanced     int `json:"advanced" yaml:"advanced"`
}

func (w Weights) total() int { return w.Basic + w.Intermediate + w.Advanced }

// SelectBalanced draws count questions spread evenly across categories. The
// remainder goes to the first categories. A category with too few questions
// leaves a shortfall that is filled from the rest of the bank. The result is
// shuffled. Questions without a listed category are only used for fill, and
// a category listed twice counts once.
func SelectBalanced(rng *rand.Rand, bank []Question, count int, categories []string) []Question {
	categories = distinct(categories)
	if count >= len(bank) || len(categories) == 0 {
		return takeShuffled(rng, bank, count)
	}

	byCat := make(map[string][]Question, len(categories))
	for _, q := range bank {
		byCat[q.Category] = append(byCat[q.Category], q)
	}

	per, extra := count/len(categories), count%len(categories)
	used := make(map[string]bool, count)
	out := make([]Question, 0, count)
	for i, cat := range categories {
		want := per
		if i < extra {
			want++
		}
		for _, q := range takeShuffled(rng, byCat[cat], want) {
			used[q.ID] = true
			out = append(out, q)
		}
	}

	out = fill(rng, bank, used, out, count)
	shuffle(rng, out)
	return out
}

// SelectByDifficulty draws count questions split by weights. Basic and
// intermediate get round(count*w/total); advanced takes what is left.
// Shortfalls in a tier are filled from the other tiers.
func SelectByDifficulty(rng *rand.Rand, bank []Question, count int, w Weights) []Question {
	if count >= len(bank) || w.total() <= 0 {
		return takeShuffled(rng, bank, count)
	}

	basic := int(math.Round(float64(count) * float64(w.Basic) / float64(w.total())))
	inter := int(math.Round(float64(count) * float64(w.Intermediate) / float64(w.total())))
	if basic+inter > count {
		inter = count - basic
	}
	adv := count - basic - inter

	tiers := map[Difficulty][]Question{}
	for _, q := range bank {
		tiers[q.Difficulty] = append(tiers[q.Difficulty], q)
	}

	used := make(map[string]bool, count)
	out := make([]Question, 0, count)
	for _, t := range []struct {
		d    Difficulty
		want int
	}{
		{DifficultyBasic, basic},
		{DifficultyIntermediate, inter},
		{DifficultyAdvanced, adv},
	} {
		for _, q := range takeShuffled(rng, tiers[t.d], t.want) {
			used[q.ID] = true
			out = append(out, q)
		}
	}

	out = fill(rng, bank, used, out, count)
	shuffle(rng, out)
	return out
}

func distinct(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func fill(rng *rand.Rand, bank []Question, used map[string]bool, out []Question, count int) []Question {
	if len(out) >= count {
		return out
	}
	var rest []Question
	for _, q := range bank {
		if !used[q.ID] {
			rest = append(rest, q)
		}
	}
	return append(out, takeShuffled(rng, rest, count-len(out))...)
}

func takeShuffled(rng *rand.Rand, qs []Question, n int) []Question {
	cp := make([]Question, len(qs))
	copy(cp, qs)
	shuffle(rng, cp)
	if n < 0 {
		n = 0
	}
	if n < len(cp) {
		cp = cp[:n]
	}
	return cp
}

func shuffle(rng *rand.Rand, qs []Question) {
	rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}
