package scoring

import (
	"reflect"
	"sort"
	"testing"

	"github.com/itiva/nettriad/internal/model"
)

// fiveOptions builds a standard option ladder scored 2,1,0,-1,-2.
func fiveOptions() []model.Option {
	scores := []int{2, 1, 0, -1, -2}
	opts := make([]model.Option, len(scores))
	for i, s := range scores {
		opts[i] = model.Option{
			Text:           "answer",
			Score:          s,
			Recommendation: "do better",
		}
	}
	return opts
}

func question(id int64, category string) model.Question {
	return model.Question{
		ID:       id,
		Category: category,
		Text:     "test question",
		Options:  fiveOptions(),
	}
}

func optionWithScore(q model.Question, score int) model.Option {
	for _, o := range q.Options {
		if o.Score == score {
			return o
		}
	}
	panic("no option with requested score")
}

func TestCategoryKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Website Strength", "website-strength"},
		{"Devices & Network", "devices-network"},
		{"Compliance Documentation", "compliance-documentation"},
		{"  Spaces  Everywhere  ", "spaces-everywhere"},
		{"Already-Slugged", "already-slugged"},
		{"UPPER", "upper"},
	}
	for _, c := range cases {
		if got := CategoryKey(c.in); got != c.want {
			t.Errorf("CategoryKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCategoriesEncounterOrder(t *testing.T) {
	questions := []model.Question{
		question(1, "B"), question(2, "A"), question(3, "B"), question(4, "C"),
	}
	got := Categories(questions)
	want := []string{"B", "A", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestScoreTwoQuestionRounding(t *testing.T) {
	q1 := question(1, "Website Strength")
	q2 := question(2, "Website Strength")
	questions := []model.Question{q1, q2}
	answers := model.AnswerSet{
		1: optionWithScore(q1, 1),
		2: optionWithScore(q2, -2),
	}

	content := Score(questions, answers)

	// 100/2 points each: 0.75*50 = 37.5 plus 0 rounds once to 38.
	if got := content.CategoryScores["website-strength"]; got != 38 {
		t.Errorf("category score = %d, want 38", got)
	}
	if content.Overall != 38 {
		t.Errorf("overall = %d, want 38", content.Overall)
	}

	// Both answers are below the best option, so both recommend.
	if len(content.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(content.Recommendations))
	}
	if content.Recommendations[0].ImpactScore != 50 {
		t.Errorf("first impact = %d, want 50", content.Recommendations[0].ImpactScore)
	}
	if content.Recommendations[1].ImpactScore != 13 {
		t.Errorf("second impact = %d, want 13", content.Recommendations[1].ImpactScore)
	}
}

func TestScoreBestAnswersEverywhere(t *testing.T) {
	questions := []model.Question{
		question(1, "A"), question(2, "A"), question(3, "B"),
	}
	answers := model.AnswerSet{}
	for _, q := range questions {
		answers[q.ID] = optionWithScore(q, 2)
	}

	content := Score(questions, answers)

	if content.Overall != 100 {
		t.Errorf("overall = %d, want 100", content.Overall)
	}
	for key, score := range content.CategoryScores {
		if score != 100 {
			t.Errorf("category %s = %d, want 100", key, score)
		}
	}
	if len(content.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(content.Recommendations))
	}
}

func TestScoreWorstAnswersEverywhere(t *testing.T) {
	questions := []model.Question{question(1, "A"), question(2, "B")}
	answers := model.AnswerSet{}
	for _, q := range questions {
		answers[q.ID] = optionWithScore(q, -2)
	}

	content := Score(questions, answers)

	if content.Overall != 0 {
		t.Errorf("overall = %d, want 0", content.Overall)
	}
	// Worst answers leave the full question weight on the table.
	for _, rec := range content.Recommendations {
		if rec.ImpactScore != 100 {
			t.Errorf("impact = %d, want 100", rec.ImpactScore)
		}
	}
}

func TestScoreUnansweredContributeZero(t *testing.T) {
	questions := []model.Question{question(1, "A"), question(2, "A")}
	answers := model.AnswerSet{1: optionWithScore(questions[0], 2)}

	content := Score(questions, answers)

	if got := content.CategoryScores["a"]; got != 50 {
		t.Errorf("category score = %d, want 50", got)
	}
	// Unanswered questions produce no recommendation.
	if len(content.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(content.Recommendations))
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	content := Score(nil, nil)
	if content.Overall != 0 {
		t.Errorf("overall = %d, want 0", content.Overall)
	}
	if content.CategoryScores == nil || content.Recommendations == nil {
		t.Error("content maps and slices must be non-nil")
	}
}

func TestScoreDeterministic(t *testing.T) {
	questions := []model.Question{
		question(1, "A"), question(2, "B"), question(3, "A"), question(4, "C"),
	}
	answers := model.AnswerSet{}
	for _, q := range questions {
		answers[q.ID] = optionWithScore(q, 0)
	}

	first := Score(questions, answers)
	for i := 0; i < 10; i++ {
		if got := Score(questions, answers); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestScoreRecommendationsSortedByImpact(t *testing.T) {
	questions := []model.Question{
		question(1, "A"), question(2, "A"), question(3, "B"),
	}
	answers := model.AnswerSet{
		1: optionWithScore(questions[0], 1),
		2: optionWithScore(questions[1], -2),
		3: optionWithScore(questions[2], 0),
	}

	content := Score(questions, answers)

	if !sort.SliceIsSorted(content.Recommendations, func(i, j int) bool {
		return content.Recommendations[i].ImpactScore > content.Recommendations[j].ImpactScore
	}) {
		t.Errorf("recommendations not sorted by descending impact: %+v", content.Recommendations)
	}
}

func TestScoreBetterAnswerNeverLowers(t *testing.T) {
	questions := []model.Question{question(1, "A"), question(2, "A")}
	base := model.AnswerSet{
		1: optionWithScore(questions[0], 0),
		2: optionWithScore(questions[1], 0),
	}
	prev := Score(questions, base).CategoryScores["a"]
	for _, s := range []int{1, 2} {
		better := model.AnswerSet{
			1: optionWithScore(questions[0], s),
			2: optionWithScore(questions[1], 0),
		}
		got := Score(questions, better).CategoryScores["a"]
		if got < prev {
			t.Errorf("raising an answer to %d lowered the score: %d -> %d", s, prev, got)
		}
		prev = got
	}
}
