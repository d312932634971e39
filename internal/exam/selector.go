// Package exam draws randomized exam versions from a question bank.
package exam

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/examforge/examforge/internal/model"
)

// Policy controls optional selection behavior.
type Policy struct {
	// DistinctVersions re-draws a version whose question set coincides with
	// an earlier one. Off by default: every version is an independent draw.
	DistinctVersions bool
	// CoverCategories guarantees at least one question from every category
	// present in the bank, mirroring how a paper exam spreads topics.
	CoverCategories bool
}

// distinctRetries bounds re-draws per version under DistinctVersions.
const distinctRetries = 100

// Select produces m independent exam versions of k questions each. Each
// version is a uniform sample without replacement, its question order
// uniformly permuted, and each question's options independently permuted
// with labels reassigned to the new order.
func Select(bank *model.QuestionBank, k, m int, rng *rand.Rand, policy Policy) ([]model.ExamVersion, error) {
	if k <= 0 {
		return nil, &model.InvalidParameterError{Parameter: "numQuestions", Value: k}
	}
	if m <= 0 {
		return nil, &model.InvalidParameterError{Parameter: "numVersions", Value: m}
	}
	if k > bank.Len() {
		return nil, &model.InsufficientQuestionsError{Requested: k, Available: bank.Len()}
	}

	var cats []string
	if policy.CoverCategories {
		cats = bank.Categories()
		if len(cats) > k {
			return nil, &model.InvalidParameterError{Parameter: "numQuestions", Value: k}
		}
	}

	seen := make(map[string]bool)
	versions := make([]model.ExamVersion, 0, m)
	for n := 1; n <= m; n++ {
		var idx []int
		for attempt := 0; ; attempt++ {
			idx = sampleIndexes(bank, k, rng, cats)
			if !policy.DistinctVersions {
				break
			}
			key := setKey(idx)
			if !seen[key] {
				seen[key] = true
				break
			}
			if attempt >= distinctRetries {
				return nil, fmt.Errorf("could not draw %d distinct versions of %d questions from a bank of %d", m, k, bank.Len())
			}
		}

		qs := make([]model.Question, len(idx))
		for i, bi := range idx {
			qs[i] = shuffleOptions(bank.At(bi), rng)
		}
		versions = append(versions, model.ExamVersion{Number: n, Questions: qs})
	}

	return versions, nil
}

// sampleIndexes draws k bank indexes without replacement in uniformly
// random order. When cats is non-empty, one index per category is reserved
// first and the whole selection is re-shuffled afterwards.
func sampleIndexes(bank *model.QuestionBank, k int, rng *rand.Rand, cats []string) []int {
	n := bank.Len()
	if len(cats) == 0 {
		return rng.Perm(n)[:k]
	}

	picked := make([]int, 0, k)
	used := make(map[int]bool)

	for _, cat := range cats {
		var pool []int
		for i := 0; i < n; i++ {
			if !used[i] && bank.At(i).Category == cat {
				pool = append(pool, i)
			}
		}
		// cats comes from the bank itself, so the pool is never empty.
		j := pool[rng.IntN(len(pool))]
		used[j] = true
		picked = append(picked, j)
	}

	var rest []int
	for i := 0; i < n; i++ {
		if !used[i] {
			rest = append(rest, i)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	picked = append(picked, rest[:k-len(cats)]...)

	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked
}

// shuffleOptions permutes a question's options and relabels them, tracking
// which newly labeled option is correct. The input is copied, never mutated.
func shuffleOptions(q model.Question, rng *rand.Rand) model.Question {
	out := q
	perm := rng.Perm(model.NumOptions)
	for newIdx, oldIdx := range perm {
		out.Options[newIdx] = q.Options[oldIdx]
		if oldIdx == q.Correct {
			out.Correct = newIdx
		}
	}
	return out
}

// setKey builds an order-independent key for a drawn question set.
func setKey(idx []int) string {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
