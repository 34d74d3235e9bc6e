// Package reports owns the durable collections of completed reports
// and saved drafts. Both collections hold records for all users;
// every method takes the owning user's id explicitly and filters on
// it, so the repository never consults an identity service itself.
package reports

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/storage"
)

// AverageNotApplicable is returned by AverageScore when the owner has
// no completed reports yet.
const AverageNotApplicable = "N/A"

// DeleteResult tells the caller which collection a record was removed
// from, if any. A miss is a designed no-op, not an error: assessments
// completed without ever being checkpointed have nothing to evict.
type DeleteResult struct {
	Found      bool   `json:"found"`
	Collection string `json:"collection,omitempty"`
}

// Operation names returned by SaveOrUpdateDraft.
const (
	OpAdded   = "added"
	OpUpdated = "updated"
)

// Repository holds the two durable collections and flushes them to the
// blob store after each successful in-memory mutation. A flush failure
// is logged and swallowed; in-memory state stays authoritative until
// the next successful write.
type Repository struct {
	mu        sync.Mutex
	store     *storage.Store
	completed []model.Report
	drafts    []model.Draft
}

// NewRepository builds a repository and restores both collections.
// Unreadable or corrupted blobs degrade to empty collections.
func NewRepository(store *storage.Store) *Repository {
	r := &Repository{store: store}
	if _, err := store.Get(storage.KeyCompletedReports, &r.completed); err != nil {
		slog.Error("loading completed reports", "error", err)
	}
	if _, err := store.Get(storage.KeyDraftReports, &r.drafts); err != nil {
		slog.Error("loading saved drafts", "error", err)
	}
	return r
}

// persist flushes both collections. Called with the mutex held.
func (r *Repository) persist() {
	if err := r.store.Set(storage.KeyCompletedReports, r.completed); err != nil {
		slog.Error("persisting completed reports", "error", err)
	}
	if err := r.store.Set(storage.KeyDraftReports, r.drafts); err != nil {
		slog.Error("persisting saved drafts", "error", err)
	}
}

// AddReport validates and stores a new completed report for ownerID.
// The report name must be unique among that owner's completed reports;
// a duplicate is a ConflictError. On success the stored copy carries a
// fresh id and creation timestamp.
func (r *Repository) AddReport(ownerID string, input model.Report) (*model.Report, error) {
	if ownerID == "" {
		return nil, model.ErrNotAuthenticated
	}

	verr := &model.ValidationError{}
	if input.Name == "" {
		verr.Violation("report missing required field: name")
	}
	if input.Date.IsZero() {
		verr.Violation("report missing required field: date")
	}
	if input.Type == "" {
		verr.Violation("report missing required field: type")
	}
	if input.Score < 0 || input.Score > 100 {
		verr.Violation("report score must be between 0 and 100")
	}
	if input.Report.CategoryScores == nil {
		verr.Violation("report content missing required field: category_scores")
	}
	if input.Report.Overall < 0 || input.Report.Overall > 100 {
		verr.Violation("report content overall must be between 0 and 100")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Uniqueness is checked within the owner's reports only: different
	// users may reuse the same report name.
	for _, rep := range r.completed {
		if rep.UserID == ownerID && rep.Name == input.Name {
			return nil, &model.ConflictError{Resource: "report", Name: input.Name}
		}
	}

	input.ID = uuid.NewString()
	input.UserID = ownerID
	input.CreatedAt = time.Now()
	r.completed = append(r.completed, input)
	r.persist()

	slog.Info("added report", "id", input.ID, "name", input.Name, "type", input.Type, "score", input.Score)
	cp := input
	return &cp, nil
}

// SaveOrUpdateDraft stores a named checkpoint for ownerID. If a draft
// with the same id already exists it is updated in place (rejecting a
// rename onto another draft's name); otherwise it is added, rejecting
// any name already used by one of the owner's drafts. Returns which
// branch ran, OpAdded or OpUpdated.
func (r *Repository) SaveOrUpdateDraft(ownerID string, input model.Draft) (string, *model.Draft, error) {
	if ownerID == "" {
		return "", nil, model.ErrNotAuthenticated
	}

	verr := &model.ValidationError{}
	if input.ID == "" {
		verr.Violation("draft missing required field: id")
	}
	if input.Name == "" {
		verr.Violation("draft missing required field: name")
	}
	if input.Date.IsZero() {
		verr.Violation("draft missing required field: date")
	}
	if input.Type == "" {
		verr.Violation("draft missing required field: type")
	}
	if len(input.Questions) == 0 {
		verr.Violation("draft missing required field: questions")
	}
	if input.Answers == nil {
		verr.Violation("draft missing required field: answers")
	}
	if err := verr.OrNil(); err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, d := range r.drafts {
		if d.ID == input.ID {
			idx = i
			break
		}
	}

	now := time.Now()
	if idx != -1 {
		// Update path: the name may stay the same, but must not collide
		// with a different draft of the same owner.
		for _, d := range r.drafts {
			if d.UserID == ownerID && d.Name == input.Name && d.ID != input.ID {
				return "", nil, &model.ConflictError{Resource: "draft", Name: input.Name}
			}
		}
		existing := r.drafts[idx]
		input.UserID = existing.UserID
		input.CreatedAt = existing.CreatedAt
		input.LastModified = now
		r.drafts[idx] = input
		r.persist()
		cp := input
		return OpUpdated, &cp, nil
	}

	for _, d := range r.drafts {
		if d.UserID == ownerID && d.Name == input.Name {
			return "", nil, &model.ConflictError{Resource: "draft", Name: input.Name}
		}
	}
	input.UserID = ownerID
	input.CreatedAt = now
	input.LastModified = now
	r.drafts = append(r.drafts, input)
	r.persist()

	slog.Info("saved draft", "id", input.ID, "name", input.Name, "type", input.Type)
	cp := input
	return OpAdded, &cp, nil
}

// CompleteDraft promotes a draft into a completed report: the report is
// added and the saved draft with draftID, if any, is evicted. A draft
// that was never checkpointed simply has nothing to evict.
func (r *Repository) CompleteDraft(ownerID, draftID string, input model.Report) (*model.Report, error) {
	if draftID == "" {
		return nil, &model.ValidationError{Violations: []string{"draft id is required"}}
	}
	input.CompletedFromDraft = draftID
	rep, err := r.AddReport(ownerID, input)
	if err != nil {
		return nil, err
	}
	if _, err := r.DeleteReport(ownerID, draftID); err != nil {
		return nil, fmt.Errorf("evict draft %s: %w", draftID, err)
	}
	return rep, nil
}

// DeleteReport removes the record with the given id from the owner's
// completed reports, or failing that from the owner's saved drafts.
// A record that is in neither collection yields Found=false without an
// error.
func (r *Repository) DeleteReport(ownerID, id string) (DeleteResult, error) {
	if ownerID == "" {
		return DeleteResult{}, model.ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rep := range r.completed {
		if rep.ID == id && rep.UserID == ownerID {
			r.completed = append(r.completed[:i], r.completed[i+1:]...)
			r.persist()
			return DeleteResult{Found: true, Collection: "completed"}, nil
		}
	}
	for i, d := range r.drafts {
		if d.ID == id && d.UserID == ownerID {
			r.drafts = append(r.drafts[:i], r.drafts[i+1:]...)
			r.persist()
			return DeleteResult{Found: true, Collection: "draft"}, nil
		}
	}

	slog.Warn("delete target not found; normal for assessments never checkpointed", "id", id)
	return DeleteResult{Found: false}, nil
}

// GetReportByID looks up a record by id across both collections,
// scoped to the owner. The result carries a copy tagged with which
// collection it came from; a miss or a foreign record returns nil.
func (r *Repository) GetReportByID(ownerID, id string) *model.LookupResult {
	if id == "" {
		slog.Error("GetReportByID called without an id")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rep := range r.completed {
		if rep.ID == id {
			if rep.UserID != ownerID {
				return nil
			}
			cp := rep
			return &model.LookupResult{IsDraft: false, Report: &cp}
		}
	}
	for _, d := range r.drafts {
		if d.ID == id {
			if d.UserID != ownerID {
				return nil
			}
			cp := d
			return &model.LookupResult{IsDraft: true, Draft: &cp}
		}
	}
	return nil
}

// GetDraftByID returns a copy of the owner's saved draft, or nil.
func (r *Repository) GetDraftByID(ownerID, id string) *model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID == id && d.UserID == ownerID {
			cp := d
			return &cp
		}
	}
	return nil
}

// GetLatestDraftByType returns the owner's most recently modified saved
// draft of the given assessment type, or nil.
func (r *Repository) GetLatestDraftByType(ownerID, assessmentType string) *model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Draft
	for i := range r.drafts {
		d := &r.drafts[i]
		if d.UserID != ownerID || d.Type != assessmentType {
			continue
		}
		if latest == nil || d.LastModified.After(latest.LastModified) {
			latest = d
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

// GetReportsByType returns the owner's completed reports of one type.
func (r *Repository) GetReportsByType(ownerID, assessmentType string) []model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, rep := range r.completed {
		if rep.UserID == ownerID && rep.Type == assessmentType {
			out = append(out, rep)
		}
	}
	return out
}

// GetReportsByDateRange returns the owner's completed reports dated
// within [start, end]. A zero or inverted range is a ValidationError.
func (r *Repository) GetReportsByDateRange(ownerID string, start, end time.Time) ([]model.Report, error) {
	verr := &model.ValidationError{}
	if start.IsZero() || end.IsZero() {
		verr.Violation("start date and end date are required")
	} else if end.Before(start) {
		verr.Violation("end date must not be before start date")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, rep := range r.completed {
		if rep.UserID != ownerID {
			continue
		}
		if rep.Date.Before(start) || rep.Date.After(end) {
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

// CalculateUserAverageScoreAndReports is only meaningful once the user
// has at least one completed report of every required type; it returns
// nil otherwise. The average is taken over the latest-dated report of
// each required type.
func (r *Repository) CalculateUserAverageScoreAndReports(userID string, requiredTypes []string) *model.AverageResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType := make(map[string][]model.Report)
	for _, rep := range r.completed {
		if rep.UserID == userID {
			byType[rep.Type] = append(byType[rep.Type], rep)
		}
	}
	if len(byType) == 0 {
		return nil
	}

	var latest []model.Report
	var sum float64
	for _, t := range requiredTypes {
		group := byType[t]
		if len(group) == 0 {
			return nil
		}
		best := group[0]
		for _, rep := range group[1:] {
			if rep.Date.After(best.Date) {
				best = rep
			}
		}
		latest = append(latest, best)
		sum += float64(best.Score)
	}
	if len(latest) == 0 {
		return nil
	}

	return &model.AverageResult{
		AverageScore:  sum / float64(len(latest)),
		LatestReports: latest,
	}
}

// TotalReports counts the owner's completed reports plus saved drafts.
func (r *Repository) TotalReports(ownerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rep := range r.completed {
		if rep.UserID == ownerID {
			n++
		}
	}
	for _, d := range r.drafts {
		if d.UserID == ownerID {
			n++
		}
	}
	return n
}

// HasDrafts reports whether the owner has any saved drafts.
func (r *Repository) HasDrafts(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.UserID == ownerID {
			return true
		}
	}
	return false
}

// AverageScore formats the owner's dashboard average to one decimal:
// the mean of the latest-dated score per assessment type across all
// completed reports, or "N/A" with no reports.
func (r *Repository) AverageScore(ownerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	latestByType := make(map[string]model.Report)
	for _, rep := range r.completed {
		if rep.UserID != ownerID {
			continue
		}
		cur, ok := latestByType[rep.Type]
		if !ok || rep.Date.After(cur.Date) {
			latestByType[rep.Type] = rep
		}
	}
	if len(latestByType) == 0 {
		return AverageNotApplicable
	}
	var sum float64
	for _, rep := range latestByType {
		sum += float64(rep.Score)
	}
	return fmt.Sprintf("%.1f", sum/float64(len(latestByType)))
}

// UserReports returns the owner's completed reports and saved drafts as
// one flattened list, newest first by date.
func (r *Repository) UserReports(ownerID string) []model.UserReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.UserReport
	for _, rep := range r.completed {
		if rep.UserID != ownerID {
			continue
		}
		score := rep.Score
		out = append(out, model.UserReport{
			ID: rep.ID, Name: rep.Name, Date: rep.Date, Type: rep.Type,
			Score: &score, IsDraft: false,
		})
	}
	for _, d := range r.drafts {
		if d.UserID != ownerID {
			continue
		}
		out = append(out, model.UserReport{
			ID: d.ID, Name: d.Name, Date: d.Date, Type: d.Type, IsDraft: true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Reports returns copies of the owner's completed reports.
func (r *Repository) Reports(ownerID string) []model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Report
	for _, rep := range r.completed {
		if rep.UserID == ownerID {
			out = append(out, rep)
		}
	}
	return out
}

// Drafts returns copies of the owner's saved drafts.
func (r *Repository) Drafts(ownerID string) []model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Draft
	for _, d := range r.drafts {
		if d.UserID == ownerID {
			out = append(out, d)
		}
	}
	return out
}

// ClearAll removes all of the owner's records from both collections.
func (r *Repository) ClearAll(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.completed[:0]
	for _, rep := range r.completed {
		if rep.UserID != ownerID {
			kept = append(kept, rep)
		}
	}
	r.completed = kept

	keptDrafts := r.drafts[:0]
	for _, d := range r.drafts {
		if d.UserID != ownerID {
			keptDrafts = append(keptDrafts, d)
		}
	}
	r.drafts = keptDrafts
	r.persist()
}
