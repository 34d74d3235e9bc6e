package assessment

import (
	"strings"
	"testing"

	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuestions() []model.Question {
	opts := []model.Option{
		{Text: "yes", Score: 2, Recommendation: "keep it up"},
		{Text: "no", Score: -2, Recommendation: "fix it"},
	}
	return []model.Question{
		{ID: 1, Category: "A", Text: "first?", Options: opts},
		{ID: 2, Category: "A", Text: "second?", Options: opts},
		{ID: 3, Category: "B", Text: "third?", Options: opts},
		{ID: 4, Category: "B", Text: "fourth?", Options: opts},
	}
}

func TestStartCreatesDraft(t *testing.T) {
	m := NewManager(newTestStore(t))

	d, err := m.Start("Standard Check", testQuestions())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if d.ID == "" {
		t.Error("expected a generated draft id")
	}
	if d.Type != "Standard Check" {
		t.Errorf("type = %q, want 'Standard Check'", d.Type)
	}
	if len(d.Questions) != 4 {
		t.Errorf("expected 4 questions, got %d", len(d.Questions))
	}
	if d.Answers == nil || len(d.Answers) != 0 {
		t.Errorf("expected empty answer set, got %v", d.Answers)
	}
	if !m.HasActiveDraft() {
		t.Error("expected an active draft after Start")
	}
}

func TestStartRequiresType(t *testing.T) {
	m := NewManager(newTestStore(t))
	if _, err := m.Start("", testQuestions()); err == nil {
		t.Error("expected error for empty assessment type")
	}
}

func TestStartReplacesActiveDraft(t *testing.T) {
	m := NewManager(newTestStore(t))

	first, err := m.Start("First", testQuestions())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := m.Start("Second", testQuestions())
	if err != nil {
		t.Fatalf("Start again: %v", err)
	}
	if first.ID == second.ID {
		t.Error("each Start must produce a fresh draft id")
	}
	if got := m.Active(); got.Type != "Second" {
		t.Errorf("active type = %q, want 'Second'", got.Type)
	}
}

func TestValidateQuestionsCollectsAllViolations(t *testing.T) {
	bad := []model.Question{
		{Category: "A", Options: []model.Option{{Score: 1}}},
		{ID: 2, Text: "ok?", Category: "B"},
	}
	err := ValidateQuestions(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*model.ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// Question 1: missing id, text, option text, option recommendation.
	// Question 2: missing options.
	if len(verr.Violations) != 5 {
		t.Errorf("expected 5 violations, got %d: %v", len(verr.Violations), verr.Violations)
	}
	if !strings.Contains(verr.Violations[0], "question 1") {
		t.Errorf("violations should reference question positions: %v", verr.Violations)
	}
}

func TestUpdateRequiresActiveDraft(t *testing.T) {
	m := NewManager(newTestStore(t))
	err := m.Update(model.AnswerSet{}, 0)
	if err != model.ErrNoActiveDraft {
		t.Errorf("expected ErrNoActiveDraft, got %v", err)
	}
}

func TestUpdateReplacesAnswersWholesale(t *testing.T) {
	m := NewManager(newTestStore(t))
	qs := testQuestions()
	if _, err := m.Start("Check", qs); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.Update(model.AnswerSet{1: qs[0].Options[0], 2: qs[1].Options[1]}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := m.Update(model.AnswerSet{3: qs[2].Options[0]}, 2); err != nil {
		t.Fatalf("Update: %v", err)
	}

	d := m.Active()
	if len(d.Answers) != 1 {
		t.Errorf("expected wholesale replacement, got %d answers", len(d.Answers))
	}
	if d.LastQuestionIndex != 2 {
		t.Errorf("cursor = %d, want 2", d.LastQuestionIndex)
	}
}

func TestDraftSurvivesRestart(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	qs := testQuestions()
	started, err := m.Start("Check", qs)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Update(model.AnswerSet{1: qs[0].Options[0]}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// A fresh manager over the same store restores the draft.
	m2 := NewManager(store)
	d := m2.Active()
	if d == nil {
		t.Fatal("expected restored draft")
	}
	if d.ID != started.ID {
		t.Errorf("restored id = %q, want %q", d.ID, started.ID)
	}
	if len(d.Answers) != 1 || d.LastQuestionIndex != 1 {
		t.Errorf("restored state mismatch: %d answers, cursor %d", len(d.Answers), d.LastQuestionIndex)
	}
}

func TestResumeOverwritesActive(t *testing.T) {
	m := NewManager(newTestStore(t))
	if _, err := m.Start("Check", testQuestions()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	saved := &model.Draft{ID: "saved-1", Type: "Other", Questions: testQuestions(), Answers: model.AnswerSet{}}
	m.Resume(saved)

	d := m.Active()
	if d.ID != "saved-1" {
		t.Errorf("active id = %q, want 'saved-1'", d.ID)
	}
}

func TestResumeRejectsDraftWithoutID(t *testing.T) {
	m := NewManager(newTestStore(t))
	if _, err := m.Start("Check", testQuestions()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := m.Active().ID

	m.Resume(nil)
	m.Resume(&model.Draft{})

	if got := m.Active().ID; got != before {
		t.Errorf("invalid resume changed the active draft: %q -> %q", before, got)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	if _, err := m.Start("Check", testQuestions()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Clear()
	if m.HasActiveDraft() {
		t.Error("expected no active draft after Clear")
	}
	if m.Active() != nil {
		t.Error("Active must return nil after Clear")
	}
	// The cleared state persists too.
	if NewManager(store).HasActiveDraft() {
		t.Error("cleared draft reappeared after restart")
	}
}

func TestCompletionPercentage(t *testing.T) {
	m := NewManager(newTestStore(t))
	if got := m.CompletionPercentage(); got != 0 {
		t.Errorf("completion with no draft = %d, want 0", got)
	}

	qs := testQuestions()
	if _, err := m.Start("Check", qs); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Update(model.AnswerSet{1: qs[0].Options[0]}, 0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := m.CompletionPercentage(); got != 25 {
		t.Errorf("completion = %d, want 25", got)
	}
}

func TestProgress(t *testing.T) {
	m := NewManager(newTestStore(t))
	if got := m.Progress(); got != (model.Progress{}) {
		t.Errorf("progress with no draft = %+v, want zero value", got)
	}

	if _, err := m.Start("Check", testQuestions()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Update(model.AnswerSet{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := m.Progress()
	want := model.Progress{Current: 2, Total: 4, Percentage: 50}
	if got != want {
		t.Errorf("progress = %+v, want %+v", got, want)
	}
}
