package model

import (
	"context"
	"time"
)

// QuestionnaireStatus tells whether an assessment type is offered to users.
type QuestionnaireStatus string

const (
	StatusActive   QuestionnaireStatus = "Active"
	StatusInactive QuestionnaireStatus = "Inactive"
)

// Questionnaire is the catalog metadata for one assessment type.
type Questionnaire struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	LastUpdated time.Time           `json:"last_updated"`
	Status      QuestionnaireStatus `json:"status"`
}

// Option is one selectable answer to a question. Score is an integer in
// the -2..+2 impact range; Recommendation is shown when the option is
// not the best available answer.
type Option struct {
	Text           string `json:"text"`
	Score          int    `json:"score"`
	Explanation    string `json:"explanation,omitempty"`
	Recommendation string `json:"recommendation"`
}

// Question is a single multiple-choice question. Questions are immutable
// once published; Category partitions questions within an assessment.
type Question struct {
	ID             int64    `json:"id"`
	AssessmentName string   `json:"assessment_name"`
	Category       string   `json:"category"`
	Text           string   `json:"text"`
	Explanation    string   `json:"explanation,omitempty"`
	Options        []Option `json:"options"`
}

// AnswerSet maps question ID to the option the user selected. It may be
// partial; unanswered questions are simply absent.
type AnswerSet map[int64]Option

// Recommendation is one prioritized remediation item in a report.
// ImpactScore is the estimated point gain if the item were acted upon.
type Recommendation struct {
	Text        string `json:"text"`
	ImpactScore int    `json:"impact_score"`
	Category    string `json:"category"`
}

// ReportContent is the scoring engine's output: an overall score, one
// rounded score per category key, and recommendations sorted by
// descending impact.
type ReportContent struct {
	Overall         int              `json:"overall"`
	CategoryScores  map[string]int   `json:"category_scores"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Report is the immutable result of a completed assessment.
type Report struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	Name               string        `json:"name"`
	Date               time.Time     `json:"date"`
	Type               string        `json:"type"`
	Score              int           `json:"score"`
	Report             ReportContent `json:"report"`
	CreatedAt          time.Time     `json:"created_at"`
	CompletedFromDraft string        `json:"completed_from_draft,omitempty"`
}

// Draft is an in-progress assessment session: the question snapshot, the
// partial answers, and the navigation cursor. The active draft is
// transient session state; a saved draft is a named checkpoint kept in
// the report repository.
type Draft struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id,omitempty"`
	Name              string     `json:"name,omitempty"`
	Date              time.Time  `json:"date"`
	Type              string     `json:"type"`
	Questions         []Question `json:"questions"`
	Answers           AnswerSet  `json:"answers"`
	LastQuestionIndex int        `json:"last_question_index"`
	CreatedAt         time.Time  `json:"created_at"`
	LastModified      time.Time  `json:"last_modified"`
}

// Progress describes how far the user is through the active draft.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// UserReport is a dashboard line item: a completed report or a saved
// draft, flattened into one list. Score is nil for drafts.
type UserReport struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
	Type    string    `json:"type"`
	Score   *int      `json:"score,omitempty"`
	IsDraft bool      `json:"is_draft"`
}

// LookupResult is the answer to a lookup-by-id: the record found in
// either collection, tagged with which collection it came from.
type LookupResult struct {
	IsDraft bool    `json:"is_draft"`
	Report  *Report `json:"report,omitempty"`
	Draft   *Draft  `json:"draft,omitempty"`
}

// AverageResult pairs the average of the latest scores per required
// assessment type with those latest reports.
type AverageResult struct {
	AverageScore  float64  `json:"average_score"`
	LatestReports []Report `json:"latest_reports"`
}

// User is a local account. Passwords are stored as bcrypt hashes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CompanyName  string    `json:"company_name,omitempty"`
	BusinessType string    `json:"business_type,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
