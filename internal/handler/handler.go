// Package handler содержит HTTP-обработчики API трекера продаж.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/middleware"
	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/report"
)

// Tracker определяет контракт трекера, используемый HTTP-обработчиками.
type Tracker interface {
	CreateOrder(ctx context.Context, in model.OrderInput) (int, model.Order, error)
	UpdateOrder(ctx context.Context, index int, patch model.OrderPatch) (model.Order, error)
	DeleteOrder(ctx context.Context, index int, confirmed bool) (bool, error)
	Order(index int) (model.Order, string, error)
	FilterOrders(q report.Query) []report.IndexedOrder
	View() (report.Query, []report.IndexedOrder)
	Dashboard() report.Dashboard
	Profile() (model.Profile, model.ProfileForm)
	SaveProfile(ctx context.Context, in model.ProfileInput) (model.Profile, error)
	Receipt(index int) ([]byte, string, error)
	ExportCSV() ([]byte, string, error)
	ExportXLSX() ([]byte, string, error)
}

// Signups определяет контракт приёма заявок.
type Signups interface {
	Register(ctx context.Context, name, email string) (bool, error)
	List(ctx context.Context) ([]model.Signup, error)
}

// Handler реализует HTTP-обработчики API трекера продаж.
type Handler struct {
	tracker     Tracker
	signups     Signups
	logger      *zap.Logger
	auth        *middleware.BasicAuth
	staticDir   string
	serviceName string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(tracker Tracker, signups Signups, logger *zap.Logger, auth *middleware.BasicAuth, staticDir, serviceName string) *Handler {
	return &Handler{
		tracker:     tracker,
		signups:     signups,
		logger:      logger,
		auth:        auth,
		staticDir:   staticDir,
		serviceName: serviceName,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write attachment", zap.String("filename", filename), zap.Error(err))
	}
}

// Health сообщает, что сервис запущен.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": h.serviceName})
}
