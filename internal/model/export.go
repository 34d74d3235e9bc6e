package model

import "time"

// UserReportExport is the top-level JSON structure for the export
// command: everything one user has accumulated, completed and drafts.
type UserReportExport struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	ExportedAt time.Time `json:"exported_at"`
	Reports    []Report  `json:"reports"`
	Drafts     []Draft   `json:"drafts"`
}
