package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itiva/nettriad/internal/i18n"
	"github.com/itiva/nettriad/internal/model"
)

func (h *Handler) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	respondJSON(w, http.StatusOK, h.reports.Drafts(user.ID))
}

// handleListReports returns the owner's completed reports, narrowed by
// optional query filters: ?type=..., or ?from=...&to=... (RFC 3339).
// Without filters it returns the flattened dashboard list of reports
// and drafts, newest first.
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	q := r.URL.Query()

	if t := q.Get("type"); t != "" {
		respondJSON(w, http.StatusOK, h.reports.GetReportsByType(user.ID, t))
		return
	}

	if q.Get("from") != "" || q.Get("to") != "" {
		from, err1 := time.Parse(time.RFC3339, q.Get("from"))
		to, err2 := time.Parse(time.RFC3339, q.Get("to"))
		if err1 != nil || err2 != nil {
			respondMessage(w, r, http.StatusBadRequest, i18n.T(r.Context(), "InvalidDateRange"))
			return
		}
		out, err := h.reports.GetReportsByDateRange(user.ID, from, to)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
		return
	}

	respondJSON(w, http.StatusOK, h.reports.UserReports(user.ID))
}

// handleReportsSummary serves the dashboard header numbers.
func (h *Handler) handleReportsSummary(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	required := h.catalog.AvailableAssessments()
	var overall *model.AverageResult
	if len(required) > 0 {
		overall = h.reports.CalculateUserAverageScoreAndReports(user.ID, required)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"totalReports": h.reports.TotalReports(user.ID),
		"hasDrafts":    h.reports.HasDrafts(user.ID),
		"averageScore": h.reports.AverageScore(user.ID),
		"overall":      overall,
	})
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	result := h.reports.GetReportByID(user.ID, chi.URLParam(r, "id"))
	if result == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "ReportNotFound"))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	result, err := h.reports.DeleteReport(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !result.Found {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "ReportNotFound"))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
