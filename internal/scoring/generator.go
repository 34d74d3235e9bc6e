package scoring

import (
	"math"
	"sort"

	"github.com/itiva/nettriad/internal/model"
)

// GenerateTargetReport builds report content that approximates the given
// per-category target scores, keyed by category slug. For each category
// it decides how many questions to answer with the second-best option
// instead of the best one, based on the smallest point loss a single
// swap can produce, then runs the normal scorer over those assignments.
//
// This is an approximation tool for demo and test data, not an exact
// solver: the achieved scores are whatever the swap count lands on.
// A target key with no matching questions scores 0 and still counts in
// the overall mean.
func GenerateTargetReport(questions []model.Question, targets map[string]int) model.ReportContent {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byKey := make(map[string][]model.Question)
	for _, q := range questions {
		key := CategoryKey(q.Category)
		if _, wanted := targets[key]; wanted {
			byKey[key] = append(byKey[key], q)
		}
	}

	answers := make(model.AnswerSet)
	var scored []model.Question
	for _, key := range keys {
		qs := byKey[key]
		if len(qs) == 0 {
			continue
		}
		scored = append(scored, qs...)

		deficit := float64(100 - targets[key])
		maxPointsPerQuestion := 100 / float64(len(qs))

		smallestLoss := smallestSwapLoss(qs, maxPointsPerQuestion)
		questionsToChange := 0
		if smallestLoss > 0 {
			questionsToChange = int(math.Round(deficit / smallestLoss))
		}
		if questionsToChange > len(qs) {
			questionsToChange = len(qs)
		}
		if questionsToChange < 0 {
			questionsToChange = 0
		}

		for i, q := range qs {
			best, second := bestOptions(q)
			if i < questionsToChange {
				answers[q.ID] = second
			} else {
				answers[q.ID] = best
			}
		}
	}

	content := Score(scored, answers)

	// Zero-question target categories score 0 and still drag the mean
	// down. Real scoring can never reach this branch because its
	// category set comes from the question snapshot itself.
	var sum int
	for _, key := range keys {
		if _, ok := content.CategoryScores[key]; !ok {
			content.CategoryScores[key] = 0
		}
		sum += content.CategoryScores[key]
	}
	if len(keys) > 0 {
		content.Overall = int(math.Round(float64(sum) / float64(len(keys))))
	} else {
		content.Overall = 0
	}

	return content
}

// bestOptions returns a question's best- and second-best-scoring
// options. With a single option both are that option.
func bestOptions(q model.Question) (best, second model.Option) {
	opts := make([]model.Option, len(q.Options))
	copy(opts, q.Options)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Score > opts[j].Score })
	best = opts[0]
	second = best
	if len(opts) > 1 {
		second = opts[1]
	}
	return best, second
}

// smallestSwapLoss returns the smallest point loss a best-to-second-best
// swap can cause on any single question in the category, 0 when no
// question offers a real alternative.
func smallestSwapLoss(qs []model.Question, maxPointsPerQuestion float64) float64 {
	smallest := 0.0
	for _, q := range qs {
		best, second := bestOptions(q)
		loss := float64(best.Score-second.Score) / float64(scoreSpan) * maxPointsPerQuestion
		if loss > 0 && (smallest == 0 || loss < smallest) {
			smallest = loss
		}
	}
	return smallest
}
