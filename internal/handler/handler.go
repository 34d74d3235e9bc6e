// Package handler exposes the assessment engine as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itiva/nettriad/internal/assessment"
	"github.com/itiva/nettriad/internal/auth"
	"github.com/itiva/nettriad/internal/catalog"
	"github.com/itiva/nettriad/internal/i18n"
	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/reports"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	catalog    *catalog.Service
	assessment *assessment.Manager
	reports    *reports.Repository
	auth       *auth.Service
}

// New creates a new Handler.
func New(c *catalog.Service, m *assessment.Manager, r *reports.Repository, a *auth.Service) *Handler {
	return &Handler{catalog: c, assessment: m, reports: r, auth: a}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/auth/me", h.handleMe)
			r.Put("/auth/me", h.handleUpdateProfile)
			r.Put("/auth/me/password", h.handleChangePassword)

			r.Get("/assessments", h.handleListAssessments)
			r.Get("/assessments/{id}", h.handleGetAssessment)
			r.Get("/assessments/{id}/questions", h.handleAssessmentQuestions)

			r.Post("/assessment/start", h.handleStartAssessment)
			r.Get("/assessment/active", h.handleActiveDraft)
			r.Put("/assessment/draft", h.handleUpdateDraft)
			r.Post("/assessment/resume/{id}", h.handleResumeDraft)
			r.Delete("/assessment/draft", h.handleClearDraft)
			r.Get("/assessment/progress", h.handleProgress)
			r.Post("/assessment/save", h.handleSaveDraft)
			r.Post("/assessment/submit", h.handleSubmit)

			r.Get("/drafts", h.handleListDrafts)
			r.Get("/reports", h.handleListReports)
			r.Get("/reports/summary", h.handleReportsSummary)
			r.Get("/reports/{id}", h.handleGetReport)
			r.Delete("/reports/{id}", h.handleDeleteReport)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/assessments", h.handleAddAssessment)
				r.Put("/assessments/{id}", h.handleUpdateAssessment)
				r.Post("/demo-report", h.handleDemoReport)
			})
		})
	})
}

// requireAuth resolves the signed-in user and stores it in the request
// context. Unauthenticated requests are rejected.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := h.auth.CurrentUser()
		if u == nil {
			respondMessage(w, r, http.StatusUnauthorized, i18n.T(r.Context(), "AuthRequired"))
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), u)))
	})
}

// requireAdmin assumes requireAuth already ran.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := model.UserFromContext(r.Context())
		if u == nil || !u.IsAdmin {
			respondMessage(w, r, http.StatusForbidden, i18n.T(r.Context(), "AdminRequired"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain errors onto HTTP statuses and localized
// messages. Validation details are passed through verbatim.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      i18n.Td(ctx, "InvalidRequest", map[string]any{"Reason": verr.Error()}),
			"violations": verr.Violations,
		})
		return
	}

	var cerr *model.ConflictError
	if errors.As(err, &cerr) {
		msgID := "NameTaken"
		if cerr.Resource == "draft" {
			msgID = "DraftNameTaken"
		}
		respondMessage(w, r, http.StatusConflict, i18n.Td(ctx, msgID, map[string]any{"Name": cerr.Name}))
		return
	}

	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		respondMessage(w, r, http.StatusUnauthorized, i18n.T(ctx, "AuthRequired"))
	case errors.Is(err, model.ErrNoActiveDraft):
		respondMessage(w, r, http.StatusNotFound, i18n.T(ctx, "NoActiveDraft"))
	case errors.Is(err, model.ErrNotFound):
		respondMessage(w, r, http.StatusNotFound, i18n.T(ctx, "ReportNotFound"))
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, r, http.StatusInternalServerError, i18n.T(ctx, "InternalError"))
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
