package handler

import (
	"net/http"

	"github.com/itiva/nettriad/internal/i18n"
	"github.com/itiva/nettriad/internal/model"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.auth.Register(req.Username, req.Password, req.FirstName, req.LastName, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.auth.Login(req.Login, req.Password)
	if err != nil {
		respondMessage(w, r, http.StatusUnauthorized, i18n.T(r.Context(), "LoginFailed"))
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.auth.UpdateProfile(req.FirstName, req.LastName, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(r, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.auth.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
