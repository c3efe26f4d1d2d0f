package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/service"
)

// maxSignupBody ограничивает размер тела заявки.
const maxSignupBody = 1_000_000

// signupRequest принимает поля любых JSON-типов и приводит их к строкам.
type signupRequest struct {
	Name  any `json:"name"`
	Email any `json:"email"`
}

type signupsResponse struct {
	OK      bool           `json:"ok"`
	Total   int            `json:"total"`
	Signups []model.Signup `json:"signups"`
}

// CreateSignup принимает заявку на бета-тест.
func (h *Handler) CreateSignup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSignupBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	var req signupRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
	}

	duplicate, err := h.signups.Register(r.Context(), cast.ToString(req.Name), cast.ToString(req.Email))
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			h.writeError(w, http.StatusBadRequest, "A valid email is required")
			return
		}
		h.logger.Error("register signup error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Could not save signup")
		return
	}

	if duplicate {
		h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "duplicate": true, "message": "Already signed up"})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "message": "Signup received"})
}

// ListSignups возвращает все заявки. Доступен только администратору.
func (h *Handler) ListSignups(w http.ResponseWriter, r *http.Request) {
	signups, err := h.signups.List(r.Context())
	if err != nil {
		h.logger.Error("list signups error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Could not load signups")
		return
	}
	h.writeJSON(w, http.StatusOK, signupsResponse{OK: true, Total: len(signups), Signups: signups})
}
