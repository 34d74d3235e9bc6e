// Package catalog is the registry of assessment types and their
// question banks. It is seeded from embedded JSON and can be extended
// or edited at runtime by an administrator.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/itiva/nettriad/internal/model"
)

//go:embed data/*.json
var seedFS embed.FS

// seedFile is the on-disk shape of one embedded questionnaire.
type seedFile struct {
	Name      string                    `json:"name"`
	Status    model.QuestionnaireStatus `json:"status"`
	Questions []model.Question          `json:"questions"`
}

// Service owns the questionnaire catalog. All access goes through the
// mutex; question and questionnaire slices are copied on the way out.
type Service struct {
	mu             sync.Mutex
	questionnaires []model.Questionnaire
	questions      []model.Question
}

// New builds a catalog seeded from the embedded questionnaire files.
func New() (*Service, error) {
	s := &Service{}

	entries, err := seedFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read seed dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		data, err := seedFS.ReadFile("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("read seed file %s: %w", name, err)
		}
		var sf seedFile
		if err := json.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("parse seed file %s: %w", name, err)
		}

		s.questionnaires = append(s.questionnaires, model.Questionnaire{
			ID:          int64(i + 1),
			Name:        sf.Name,
			LastUpdated: time.Now(),
			Status:      sf.Status,
		})
		for _, q := range sf.Questions {
			q.AssessmentName = sf.Name
			s.questions = append(s.questions, q)
		}
		slog.Info("seeded questionnaire", "name", sf.Name, "questions", len(sf.Questions))
	}

	return s, nil
}

// Questionnaires returns all catalog entries.
func (s *Service) Questionnaires() []model.Questionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Questionnaire, len(s.questionnaires))
	copy(out, s.questionnaires)
	return out
}

// AvailableAssessments returns the names of all active assessment types.
func (s *Service) AvailableAssessments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, q := range s.questionnaires {
		if q.Status == model.StatusActive {
			names = append(names, q.Name)
		}
	}
	return names
}

// GetByID returns the questionnaire with the given id, or nil.
func (s *Service) GetByID(id int64) *model.Questionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questionnaires {
		if q.ID == id {
			cp := q
			return &cp
		}
	}
	return nil
}

// QuestionsFor returns the ordered question list for an assessment
// name. The slice is a copy; callers may hold it as a draft snapshot.
func (s *Service) QuestionsFor(assessmentName string) []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Question
	for _, q := range s.questions {
		if q.AssessmentName == assessmentName {
			out = append(out, q)
		}
	}
	return out
}

// QuestionCount returns how many questions an assessment has.
func (s *Service) QuestionCount(assessmentName string) int {
	return len(s.QuestionsFor(assessmentName))
}

// Add registers a new questionnaire with its questions and returns the
// stored metadata.
func (s *Service) Add(meta model.Questionnaire, questions []model.Question) (*model.Questionnaire, error) {
	if meta.Name == "" {
		return nil, &model.ValidationError{Violations: []string{"questionnaire name is required"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for _, q := range s.questionnaires {
		if q.Name == meta.Name {
			return nil, &model.ConflictError{Resource: "questionnaire", Name: meta.Name}
		}
		if q.ID > maxID {
			maxID = q.ID
		}
	}

	meta.ID = maxID + 1
	meta.LastUpdated = time.Now()
	if meta.Status == "" {
		meta.Status = model.StatusActive
	}
	s.questionnaires = append(s.questionnaires, meta)

	for _, q := range questions {
		q.AssessmentName = meta.Name
		s.questions = append(s.questions, q)
	}
	slog.Info("added questionnaire", "id", meta.ID, "name", meta.Name, "questions", len(questions))
	return &meta, nil
}

// Update replaces a questionnaire's metadata and its whole question
// list. A rename re-keys the existing questions to the new name.
func (s *Service) Update(meta model.Questionnaire, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, q := range s.questionnaires {
		if q.ID == meta.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("questionnaire %d: %w", meta.ID, model.ErrNotFound)
	}

	originalName := s.questionnaires[idx].Name
	meta.LastUpdated = time.Now()
	s.questionnaires[idx] = meta

	// Drop every question that belonged to the original name, then add
	// the updated list back under the (possibly new) name. This covers
	// edits, deletions, and renames in one pass.
	kept := s.questions[:0]
	for _, q := range s.questions {
		if q.AssessmentName != originalName {
			kept = append(kept, q)
		}
	}
	s.questions = kept
	for _, q := range questions {
		q.AssessmentName = meta.Name
		s.questions = append(s.questions, q)
	}

	slog.Info("updated questionnaire", "id", meta.ID, "name", meta.Name, "questions", len(questions))
	return nil
}
