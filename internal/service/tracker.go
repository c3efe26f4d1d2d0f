package service

import (
	"bytes"
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/events"
	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/receipt"
	"github.com/mmeshcher/seller-tracker/internal/report"
	"github.com/mmeshcher/seller-tracker/internal/store"
	"github.com/mmeshcher/seller-tracker/internal/validation"
)

// Tracker является корнем приложения трекера. Владеет хранилищами заказов и профиля,
// выполняет изменения по одному и после каждого пересчитывает активную выборку.
type Tracker struct {
	mu       sync.Mutex
	orders   *store.OrderStore
	profile  *store.ProfileStore
	renderer receipt.Renderer
	bus      Publisher
	logger   *zap.Logger
	opts     options

	query report.Query
	view  []report.IndexedOrder
}

// NewTracker создаёт трекер. renderer может быть nil: тогда чеки недоступны.
func NewTracker(orders *store.OrderStore, profile *store.ProfileStore, renderer receipt.Renderer, bus Publisher, logger *zap.Logger, opts ...Option) *Tracker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracker{
		orders:   orders,
		profile:  profile,
		renderer: renderer,
		bus:      bus,
		logger:   logger,
		opts:     o,
		query:    report.Query{Range: report.RangeAll},
	}
	t.refresh()
	return t
}

// refresh пересчитывает активную выборку. Вызывается под мьютексом.
func (t *Tracker) refresh() {
	t.view = report.Filter(t.orders.List(), t.query, t.opts.now())
}

func (t *Tracker) publish(eventType string, index int, order *model.Order) {
	payload := events.OrderPayload{Index: index}
	if order != nil {
		payload.Order = order
		payload.Total = order.Total
	}
	publish(t.bus, t.logger, t.opts, eventType, strconv.Itoa(index), payload)
}

// CreateOrder добавляет заказ и возвращает его позицию.
func (t *Tracker) CreateOrder(ctx context.Context, in model.OrderInput) (int, model.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	index, order, err := t.orders.Append(ctx, in, t.profile.Get().AreaCode)
	if err != nil {
		return 0, model.Order{}, err
	}
	t.refresh()

	t.logger.Info("order created", zap.Int("index", index), zap.Float64("total", order.Total))
	t.publish(events.OrderCreated, index, &order)
	return index, order, nil
}

// UpdateOrder изменяет заказ на позиции index.
func (t *Tracker) UpdateOrder(ctx context.Context, index int, patch model.OrderPatch) (model.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order, err := t.orders.Update(ctx, index, patch, t.profile.Get().AreaCode)
	if err != nil {
		return model.Order{}, err
	}
	t.refresh()

	t.logger.Info("order updated", zap.Int("index", index))
	t.publish(events.OrderUpdated, index, &order)
	return order, nil
}

// DeleteOrder удаляет заказ только при подтверждении. Возвращает, был ли заказ удалён.
func (t *Tracker) DeleteOrder(ctx context.Context, index int, confirmed bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	deleted, err := t.orders.Remove(ctx, index, confirmed)
	if err != nil || !deleted {
		return deleted, err
	}
	t.refresh()

	t.logger.Info("order deleted", zap.Int("index", index))
	t.publish(events.OrderDeleted, index, nil)
	return true, nil
}

// Order возвращает заказ и локальную часть телефона клиента для формы редактирования.
func (t *Tracker) Order(index int) (model.Order, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order, err := t.orders.Get(index)
	if err != nil {
		return model.Order{}, "", err
	}
	return order, validation.SplitPhone(t.profile.Get().AreaCode, order.CustomerPhone), nil
}

// FilterOrders делает q активным запросом и возвращает выборку.
func (t *Tracker) FilterOrders(q report.Query) []report.IndexedOrder {
	t.mu.Lock()
	defer t.mu.Unlock()

	if q.Range == "" {
		q.Range = report.RangeAll
	}
	t.query = q
	t.refresh()
	return append([]report.IndexedOrder(nil), t.view...)
}

// View возвращает выборку по активному запросу.
func (t *Tracker) View() (report.Query, []report.IndexedOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refresh()
	return t.query, append([]report.IndexedOrder(nil), t.view...)
}

// Dashboard возвращает сводку на текущий момент.
func (t *Tracker) Dashboard() report.Dashboard {
	t.mu.Lock()
	defer t.mu.Unlock()

	return report.Aggregate(t.orders.List(), t.opts.now())
}

// Profile возвращает профиль и его представление для формы.
func (t *Tracker) Profile() (model.Profile, model.ProfileForm) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.profile.Get(), t.profile.Form()
}

// SaveProfile сохраняет профиль продавца.
func (t *Tracker) SaveProfile(ctx context.Context, in model.ProfileInput) (model.Profile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.profile.Save(ctx, in)
	if err != nil {
		return model.Profile{}, err
	}

	t.logger.Info("profile saved", zap.String("name", p.Name))
	publish(t.bus, t.logger, t.opts, events.ProfileSaved, "profile", map[string]string{"name": p.Name})
	return p, nil
}

// Receipt отрисовывает чек заказа на позиции index и возвращает содержимое и имя файла.
func (t *Tracker) Receipt(index int) ([]byte, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order, err := t.orders.Get(index)
	if err != nil {
		return nil, "", err
	}
	if t.renderer == nil {
		return nil, "", receipt.ErrFeatureUnavailable
	}

	doc := receipt.Layout(order, index, t.profile.Get())

	var buf bytes.Buffer
	if err := t.renderer.Render(&buf, doc); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), doc.Filename, nil
}

// ExportCSV выгружает все заказы в CSV.
func (t *Tracker) ExportCSV() ([]byte, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := receipt.CSV(t.orders.List())
	if err != nil {
		return nil, "", err
	}
	return data, receipt.ExportFilename(t.opts.now(), "csv"), nil
}

// ExportXLSX выгружает все заказы в книгу Excel.
func (t *Tracker) ExportXLSX() ([]byte, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := receipt.XLSX(t.orders.List())
	if err != nil {
		return nil, "", err
	}
	return data, receipt.ExportFilename(t.opts.now(), "xlsx"), nil
}
