// Package scoring converts a set of categorized multiple-choice answers
// into normalized per-category scores, an overall score, and a ranked
// list of remediation recommendations. Everything here is pure: no
// stored state, deterministic for identical inputs.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/itiva/nettriad/internal/model"
)

// Option scores live in the -2..+2 impact range; the span between the
// worst and best option is what a single answer is normalized against.
const (
	minOptionScore = -2
	maxOptionScore = 2
	scoreSpan      = maxOptionScore - minOptionScore
)

// CategoryKey returns the slug used as a category's key in report
// content: lowercased, with runs of non-alphanumeric characters
// collapsed to single hyphens ("Website Strength" -> "website-strength").
func CategoryKey(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Categories returns the distinct category names of the given questions
// in first-encounter order. The order is what makes scoring output
// deterministic regardless of map iteration.
func Categories(questions []model.Question) []string {
	seen := make(map[string]bool)
	var names []string
	for _, q := range questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			names = append(names, q.Category)
		}
	}
	return names
}

// normalizeOptionScore maps a raw option score to a [0,1] fraction:
// the worst option (-2) to 0 and the best (+2) to 1. Out-of-range
// scores are clamped.
func normalizeOptionScore(raw int) float64 {
	f := float64(raw-minOptionScore) / float64(scoreSpan)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Score computes report content for the given question snapshot and
// answer set. Each question in a category carries equal weight
// (100/N points); an answered question contributes its normalized
// option fraction of that weight, an unanswered one contributes 0.
// Category totals are summed first and rounded once. A recommendation
// is emitted for every answered question whose option is not the
// maximum score, carrying the rounded points left on the table. The
// overall score is the rounded mean of the per-category scores, 0 when
// there are no categories.
func Score(questions []model.Question, answers model.AnswerSet) model.ReportContent {
	content := model.ReportContent{
		CategoryScores:  make(map[string]int),
		Recommendations: []model.Recommendation{},
	}

	categories := Categories(questions)
	byCategory := make(map[string][]model.Question, len(categories))
	for _, q := range questions {
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	var sum int
	for _, category := range categories {
		qs := byCategory[category]
		maxPointsPerQuestion := 100 / float64(len(qs))

		var total float64
		for _, q := range qs {
			selected, answered := answers[q.ID]
			if !answered {
				continue
			}
			questionScore := normalizeOptionScore(selected.Score) * maxPointsPerQuestion
			total += questionScore
			if selected.Score < maxOptionScore {
				content.Recommendations = append(content.Recommendations, model.Recommendation{
					Text:        selected.Recommendation,
					ImpactScore: int(math.Round(maxPointsPerQuestion - questionScore)),
					Category:    category,
				})
			}
		}

		rounded := int(math.Round(total))
		content.CategoryScores[CategoryKey(category)] = rounded
		sum += rounded
	}

	if len(categories) > 0 {
		content.Overall = int(math.Round(float64(sum) / float64(len(categories))))
	}

	// Stable sort keeps encounter order among equal impact scores, so
	// identical inputs always produce identical output.
	sort.SliceStable(content.Recommendations, func(i, j int) bool {
		return content.Recommendations[i].ImpactScore > content.Recommendations[j].ImpactScore
	})

	return content
}
