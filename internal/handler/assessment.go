package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itiva/nettriad/internal/i18n"
	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/scoring"
)

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Questionnaires())
}

func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, r, http.StatusBadRequest, "invalid assessment id")
		return
	}
	q := h.catalog.GetByID(id)
	if q == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "AssessmentNotFound"))
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (h *Handler) handleAssessmentQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, r, http.StatusBadRequest, "invalid assessment id")
		return
	}
	q := h.catalog.GetByID(id)
	if q == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "AssessmentNotFound"))
		return
	}
	respondJSON(w, http.StatusOK, h.catalog.QuestionsFor(q.Name))
}

type startRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	questions := h.catalog.QuestionsFor(req.Type)
	if len(questions) == 0 {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "AssessmentNotFound"))
		return
	}
	d, err := h.assessment.Start(req.Type, questions)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleActiveDraft(w http.ResponseWriter, r *http.Request) {
	d := h.assessment.Active()
	if d == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "NoActiveDraft"))
		return
	}
	respondJSON(w, http.StatusOK, d)
}

type draftUpdateRequest struct {
	Answers           model.AnswerSet `json:"answers"`
	LastQuestionIndex int             `json:"lastQuestionIndex"`
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftUpdateRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.assessment.Update(req.Answers, req.LastQuestionIndex); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.assessment.Active())
}

func (h *Handler) handleResumeDraft(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	d := h.reports.GetDraftByID(user.ID, chi.URLParam(r, "id"))
	if d == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "ReportNotFound"))
		return
	}
	h.assessment.Resume(d)
	respondJSON(w, http.StatusOK, h.assessment.Active())
}

func (h *Handler) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	h.assessment.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"progress":   h.assessment.Progress(),
		"completion": h.assessment.CompletionPercentage(),
	})
}

type saveDraftRequest struct {
	Name string `json:"name"`
}

// handleSaveDraft checkpoints the active session under a name so it
// survives a later Start of a different assessment.
func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req saveDraftRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	active := h.assessment.Active()
	if active == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "NoActiveDraft"))
		return
	}
	if req.Name != "" {
		active.Name = req.Name
	}
	user := model.UserFromContext(r.Context())
	op, saved, err := h.reports.SaveOrUpdateDraft(user.ID, *active)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"operation": op, "draft": saved})
}

type submitRequest struct {
	Name string `json:"name"`
}

// handleSubmit scores the active session, files the result as a
// completed report, evicts any checkpoint of the same draft, and
// clears the session.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	active := h.assessment.Active()
	if active == nil {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "NoActiveDraft"))
		return
	}

	content := scoring.Score(active.Questions, active.Answers)
	name := req.Name
	if name == "" {
		name = active.Name
	}
	user := model.UserFromContext(r.Context())
	rep, err := h.reports.CompleteDraft(user.ID, active.ID, model.Report{
		Name:   name,
		Date:   time.Now(),
		Type:   active.Type,
		Score:  content.Overall,
		Report: content,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.assessment.Clear()
	respondJSON(w, http.StatusCreated, rep)
}

type questionnaireRequest struct {
	Questionnaire model.Questionnaire `json:"questionnaire"`
	Questions     []model.Question    `json:"questions"`
}

func (h *Handler) handleAddAssessment(w http.ResponseWriter, r *http.Request) {
	var req questionnaireRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	meta, err := h.catalog.Add(req.Questionnaire, req.Questions)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, meta)
}

func (h *Handler) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, r, http.StatusBadRequest, "invalid assessment id")
		return
	}
	var req questionnaireRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Questionnaire.ID = id
	if err := h.catalog.Update(req.Questionnaire, req.Questions); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.catalog.GetByID(id))
}

type demoReportRequest struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Targets map[string]int `json:"targets"`
}

// handleDemoReport fabricates a completed report whose category scores
// land near the requested targets. Demo and walkthrough tooling only.
func (h *Handler) handleDemoReport(w http.ResponseWriter, r *http.Request) {
	var req demoReportRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	questions := h.catalog.QuestionsFor(req.Type)
	if len(questions) == 0 {
		respondMessage(w, r, http.StatusNotFound, i18n.T(r.Context(), "AssessmentNotFound"))
		return
	}

	content := scoring.GenerateTargetReport(questions, req.Targets)
	user := model.UserFromContext(r.Context())
	rep, err := h.reports.AddReport(user.ID, model.Report{
		Name:   req.Name,
		Date:   time.Now(),
		Type:   req.Type,
		Score:  content.Overall,
		Report: content,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rep)
}
