// Package analysis computes the category distribution of tagged exam
// problems.
package analysis

import (
	"math"
	"sort"

	"github.com/realmath/problempipeline/internal/models"
)

// dedupKey identifies one problem of one exam. The odd and even booklets of
// the same exam share it, so they count once.
type dedupKey struct {
	year, examType, number string
}

// Dedup keeps the first problem for each (year, exam type, problem number).
func Dedup(problems []models.TaggedProblem) []models.TaggedProblem {
	seen := make(map[dedupKey]struct{}, len(problems))
	unique := make([]models.TaggedProblem, 0, len(problems))
	for _, p := range problems {
		k := dedupKey{p.Year, p.ExamType, p.ProblemNumber}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// CategoryShare is one row of the distribution.
type CategoryShare struct {
	Category string
	Count    int
	Percent  float64
}

// Distribution is the result of Analyze.
type Distribution struct {
	Total  int
	Shares []CategoryShare
}

// Analyze deduplicates problems and counts them per category. Shares are
// ordered by count, largest first; ties keep first-seen order. Problems with
// an empty category count toward Total but not toward any share, and
// percentages are taken over categorized problems only.
func Analyze(problems []models.TaggedProblem) Distribution {
	unique := Dedup(problems)

	var order []string
	counts := make(map[string]int)
	for _, p := range unique {
		if p.Category == "" {
			continue
		}
		if _, ok := counts[p.Category]; !ok {
			order = append(order, p.Category)
		}
		counts[p.Category]++
	}

	categorized := 0
	for _, c := range counts {
		categorized += c
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		shares = append(shares, CategoryShare{
			Category: cat,
			Count:    counts[cat],
			Percent:  round2(float64(counts[cat]) * 100 / float64(categorized)),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Count > shares[j].Count
	})

	return Distribution{Total: len(unique), Shares: shares}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
