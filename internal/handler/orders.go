package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/receipt"
	"github.com/mmeshcher/seller-tracker/internal/report"
	"github.com/mmeshcher/seller-tracker/internal/store"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// itemRequest описывает позицию из формы. Числа принимаются и строками, нечисловые значения считаются нулём.
type itemRequest struct {
	Name  string `json:"name"`
	Qty   any    `json:"qty"`
	Price any    `json:"price"`
}

func (i itemRequest) item() model.Item {
	return model.Item{
		Name:      i.Name,
		Quantity:  int(formNumber(i.Qty)),
		UnitPrice: formNumber(i.Price),
	}
}

// formNumber приводит значение поля формы к числу в десятичной записи.
// Нечисловые, NaN и бесконечные значения дают ноль.
func formNumber(v any) float64 {
	f := cast.ToFloat64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toItems(req []itemRequest) []model.Item {
	items := make([]model.Item, 0, len(req))
	for _, it := range req {
		items = append(items, it.item())
	}
	return items
}

type orderRequest struct {
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Platform      string        `json:"platform"`
	PaymentStatus string        `json:"paymentStatus"`
	Notes         string        `json:"notes"`
	Items         []itemRequest `json:"items"`
	DeliveryFee   any           `json:"deliveryFee"`
}

type orderPatchRequest struct {
	CustomerName  *string        `json:"customerName"`
	Phone         *string        `json:"phone"`
	Platform      *string        `json:"platform"`
	PaymentStatus *string        `json:"paymentStatus"`
	Notes         *string        `json:"notes"`
	Items         *[]itemRequest `json:"items"`
	DeliveryFee   any            `json:"deliveryFee"`
}

func (p orderPatchRequest) patch() model.OrderPatch {
	patch := model.OrderPatch{
		CustomerName: p.CustomerName,
		Phone:        p.Phone,
		Platform:     p.Platform,
		Notes:        p.Notes,
	}
	if p.PaymentStatus != nil {
		status := model.PaymentStatus(*p.PaymentStatus)
		patch.PaymentStatus = &status
	}
	if p.Items != nil {
		patch.Items = toItems(*p.Items)
	}
	if p.DeliveryFee != nil {
		fee := formNumber(p.DeliveryFee)
		patch.DeliveryFee = &fee
	}
	return patch
}

type orderView struct {
	Index  int         `json:"index"`
	Number int         `json:"number"`
	Order  model.Order `json:"order"`
}

type listResponse struct {
	Query  report.Query `json:"query"`
	Total  int          `json:"total"`
	Orders []orderView  `json:"orders"`
}

type orderResponse struct {
	Index      int         `json:"index"`
	Order      model.Order `json:"order"`
	PhoneLocal string      `json:"phoneLocal,omitempty"`
}

func (h *Handler) orderIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid order index")
		return 0, false
	}
	return index, true
}

// writeStoreError отображает ошибки хранилища на HTTP-ответы.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var vErr *store.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, store.ErrIndexOutOfRange):
		h.writeError(w, http.StatusNotFound, "Order not found")
	default:
		h.logger.Error(op+" error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Could not save changes")
	}
}

// ListOrders возвращает выборку заказов. Параметры q и range делают запрос активным.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	var (
		q    report.Query
		view []report.IndexedOrder
	)
	if values.Has("q") || values.Has("range") {
		q = report.Query{Text: values.Get("q"), Range: report.ParseRange(values.Get("range"))}
		view = h.tracker.FilterOrders(q)
	} else {
		q, view = h.tracker.View()
	}

	resp := listResponse{Query: q, Total: len(view), Orders: make([]orderView, 0, len(view))}
	for _, v := range view {
		resp.Orders = append(resp.Orders, orderView{Index: v.Index, Number: v.Index + 1, Order: v.Order})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CreateOrder сохраняет новый заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	index, order, err := h.tracker.CreateOrder(r.Context(), model.OrderInput{
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		Platform:      req.Platform,
		PaymentStatus: model.PaymentStatus(req.PaymentStatus),
		Notes:         req.Notes,
		Items:         toItems(req.Items),
		DeliveryFee:   formNumber(req.DeliveryFee),
	})
	if err != nil {
		h.writeStoreError(w, "create order", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, orderResponse{Index: index, Order: order})
}

// GetOrder возвращает заказ и локальную часть телефона для формы редактирования.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := h.orderIndex(w, r)
	if !ok {
		return
	}

	order, local, err := h.tracker.Order(index)
	if err != nil {
		h.writeStoreError(w, "get order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResponse{Index: index, Order: order, PhoneLocal: local})
}

// UpdateOrder изменяет заказ.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := h.orderIndex(w, r)
	if !ok {
		return
	}

	var req orderPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	order, err := h.tracker.UpdateOrder(r.Context(), index, req.patch())
	if err != nil {
		h.writeStoreError(w, "update order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResponse{Index: index, Order: order})
}

// DeleteOrder удаляет заказ при параметре confirm=true; без подтверждения ничего не меняется.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := h.orderIndex(w, r)
	if !ok {
		return
	}

	confirmed := cast.ToBool(r.URL.Query().Get("confirm"))
	deleted, err := h.tracker.DeleteOrder(r.Context(), index, confirmed)
	if err != nil {
		h.writeStoreError(w, "delete order", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "deleted": deleted})
}

// Receipt отдаёт PDF-чек заказа.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	index, ok := h.orderIndex(w, r)
	if !ok {
		return
	}

	data, filename, err := h.tracker.Receipt(index)
	if err != nil {
		if errors.Is(err, receipt.ErrFeatureUnavailable) {
			h.writeError(w, http.StatusServiceUnavailable, "Receipt rendering is unavailable")
			return
		}
		h.writeStoreError(w, "render receipt", err)
		return
	}
	h.writeAttachment(w, contentTypePDF, filename, data)
}

// Dashboard возвращает сводные показатели.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tracker.Dashboard())
}

// ExportCSV выгружает заказы в CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.tracker.ExportCSV()
	h.writeExport(w, contentTypeCSV, data, filename, err)
}

// ExportXLSX выгружает заказы в Excel.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.tracker.ExportXLSX()
	h.writeExport(w, contentTypeXLSX, data, filename, err)
}

func (h *Handler) writeExport(w http.ResponseWriter, contentType string, data []byte, filename string, err error) {
	if errors.Is(err, receipt.ErrNothingToExport) {
		h.writeError(w, http.StatusNotFound, "No orders to export yet.")
		return
	}
	if err != nil {
		h.logger.Error("export orders error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Could not export orders")
		return
	}
	h.writeAttachment(w, contentType, filename, data)
}

type profileResponse struct {
	Profile model.Profile     `json:"profile"`
	Form    model.ProfileForm `json:"form"`
}

// GetProfile возвращает профиль продавца и данные для формы.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, form := h.tracker.Profile()
	h.writeJSON(w, http.StatusOK, profileResponse{Profile: p, Form: form})
}

// SaveProfile сохраняет профиль продавца.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var in model.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	p, err := h.tracker.SaveProfile(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, "save profile", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}
