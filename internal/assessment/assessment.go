// Package assessment owns the single active assessment session: the
// draft the user is currently working through. There is at most one
// active draft at a time; named checkpoints live in the reports
// repository instead.
package assessment

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/storage"
)

// Manager holds the active draft and keeps it flushed to storage after
// every mutation. Write failures are logged and swallowed: the
// in-memory state stays authoritative until the next successful flush.
type Manager struct {
	mu    sync.Mutex
	store *storage.Store
	draft *model.Draft
}

// NewManager builds a manager and restores the active draft from
// storage. A corrupted or unreadable blob resets to no active draft.
func NewManager(store *storage.Store) *Manager {
	m := &Manager{store: store}
	var d model.Draft
	ok, err := store.Get(storage.KeyActiveDraft, &d)
	if err != nil {
		slog.Error("loading active draft", "error", err)
		return m
	}
	if ok {
		m.draft = &d
	}
	return m
}

// persist flushes the current slot. Called with the mutex held.
func (m *Manager) persist() {
	var err error
	if m.draft != nil {
		err = m.store.Set(storage.KeyActiveDraft, m.draft)
	} else {
		err = m.store.Remove(storage.KeyActiveDraft)
	}
	if err != nil {
		slog.Error("persisting active draft", "error", err)
	}
}

// ValidateQuestions checks a question list for structural problems and
// returns a ValidationError listing every violation found, or nil.
// A zero option score is valid; only a missing score field would not
// be, and that cannot be expressed with typed input, so options are
// checked for text and recommendation.
func ValidateQuestions(questions []model.Question) error {
	verr := &model.ValidationError{}
	if len(questions) == 0 {
		verr.Violation("questions list cannot be empty")
		return verr
	}
	for i, q := range questions {
		if q.ID == 0 {
			verr.Violation("question %d missing required field: id", i+1)
		}
		if q.Text == "" {
			verr.Violation("question %d missing required field: text", i+1)
		}
		if q.Category == "" {
			verr.Violation("question %d missing required field: category", i+1)
		}
		if len(q.Options) == 0 {
			verr.Violation("question %d missing or empty options list", i+1)
			continue
		}
		for j, o := range q.Options {
			if o.Text == "" {
				verr.Violation("question %d, option %d missing required field: text", i+1, j+1)
			}
			if o.Recommendation == "" {
				verr.Violation("question %d, option %d missing required field: recommendation", i+1, j+1)
			}
		}
	}
	return verr.OrNil()
}

// Start begins a new active session for the given assessment type,
// replacing whatever was active. The question list is validated first;
// all violations are reported in one error.
func (m *Manager) Start(assessmentType string, questions []model.Question) (*model.Draft, error) {
	if assessmentType == "" {
		return nil, &model.ValidationError{Violations: []string{"assessment type is required"}}
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.draft = &model.Draft{
		ID:                uuid.NewString(),
		Type:              assessmentType,
		Date:              now,
		Questions:         questions,
		Answers:           model.AnswerSet{},
		LastQuestionIndex: 0,
		CreatedAt:         now,
		LastModified:      now,
	}
	m.persist()
	slog.Info("started draft", "id", m.draft.ID, "type", assessmentType, "questions", len(questions))

	cp := *m.draft
	return &cp, nil
}

// Update replaces the answer set and cursor wholesale and flushes the
// draft. Each call is last-write-wins; there is no per-field merge.
func (m *Manager) Update(answers model.AnswerSet, lastQuestionIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return model.ErrNoActiveDraft
	}
	m.draft.Answers = answers
	m.draft.LastQuestionIndex = lastQuestionIndex
	m.draft.LastModified = time.Now()
	m.persist()
	return nil
}

// Resume force-loads a draft (typically a saved checkpoint) as the
// active session, overwriting whatever was active. A draft without an
// id is ignored with a log line; the current state is kept.
func (m *Manager) Resume(d *model.Draft) {
	if d == nil || d.ID == "" {
		slog.Error("cannot resume draft: missing id")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.draft = &cp
	m.persist()
	slog.Info("resumed draft", "id", cp.ID, "type", cp.Type)
}

// Clear discards the active session and persists the empty state.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = nil
	m.persist()
}

// HasActiveDraft reports whether a session is in progress.
func (m *Manager) HasActiveDraft() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft != nil
}

// Active returns a copy of the active draft, or nil.
func (m *Manager) Active() *model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil
	}
	cp := *m.draft
	return &cp
}

// CompletionPercentage returns how much of the active draft has been
// answered, rounded to whole percent. Zero when no draft is active.
func (m *Manager) CompletionPercentage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil || len(m.draft.Questions) == 0 {
		return 0
	}
	answered := 0
	for _, o := range m.draft.Answers {
		if o.Text != "" {
			answered++
		}
	}
	return int(float64(answered)/float64(len(m.draft.Questions))*100 + 0.5)
}

// Progress returns the navigation position within the active draft.
// All fields are zero when no draft is active.
func (m *Manager) Progress() model.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil || len(m.draft.Questions) == 0 {
		return model.Progress{}
	}
	total := len(m.draft.Questions)
	current := m.draft.LastQuestionIndex + 1
	return model.Progress{
		Current:    current,
		Total:      total,
		Percentage: int(float64(current)/float64(total)*100 + 0.5),
	}
}
