package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/validation"
)

// Option настраивает OrderStore.
type Option func(*OrderStore)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *OrderStore) {
		s.now = now
	}
}

// WithLocation задаёт часовой пояс для отображаемой даты заказа.
func WithLocation(loc *time.Location) Option {
	return func(s *OrderStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// OrderStore хранит упорядоченный список заказов и переписывает его целиком при каждом изменении.
// OrderStore не потокобезопасен: вызывающая сторона сериализует обращения.
type OrderStore struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
	loc     *time.Location
	orders  []model.Order
}

// NewOrderStore загружает список заказов из хранилища. Повреждённые данные заменяются пустым списком.
func NewOrderStore(ctx context.Context, storage Storage, logger *zap.Logger, opts ...Option) (*OrderStore, error) {
	s := &OrderStore{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := storage.Load(ctx, OrdersKey)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var orders []model.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		logger.Warn("stored orders are corrupt, starting with an empty list", zap.Error(err))
		return s, nil
	}
	s.orders = orders

	return s, nil
}

// Len возвращает количество заказов.
func (s *OrderStore) Len() int {
	return len(s.orders)
}

// List возвращает копию списка заказов в порядке добавления.
func (s *OrderStore) List() []model.Order {
	res := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		res = append(res, o.Clone())
	}
	return res
}

// Get возвращает заказ по позиции.
func (s *OrderStore) Get(index int) (model.Order, error) {
	if index < 0 || index >= len(s.orders) {
		return model.Order{}, ErrIndexOutOfRange
	}
	return s.orders[index].Clone(), nil
}

// Append проверяет и добавляет новый заказ в конец списка, возвращая его позицию.
func (s *OrderStore) Append(ctx context.Context, in model.OrderInput, areaCode string) (int, model.Order, error) {
	now := s.now()
	order := model.Order{
		CreatedAt:     now,
		DisplayDate:   now.In(s.loc).Format(model.DisplayDateLayout),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: validation.JoinPhone(areaCode, in.Phone),
		Platform:      strings.TrimSpace(in.Platform),
		PaymentStatus: model.PaymentStatus(strings.TrimSpace(string(in.PaymentStatus))),
		Notes:         strings.TrimSpace(in.Notes),
		Items:         cleanItems(in.Items),
		DeliveryFee:   in.DeliveryFee,
	}
	if err := validate(&order); err != nil {
		return 0, model.Order{}, err
	}
	order.Recalculate()

	prev := s.orders
	s.orders = append(append(make([]model.Order, 0, len(prev)+1), prev...), order)
	if err := s.persist(ctx); err != nil {
		s.orders = prev
		return 0, model.Order{}, err
	}

	return len(s.orders) - 1, order.Clone(), nil
}

// Update применяет изменения к заказу по позиции и пересчитывает суммы.
// Дата создания не меняется.
func (s *OrderStore) Update(ctx context.Context, index int, patch model.OrderPatch, areaCode string) (model.Order, error) {
	if index < 0 || index >= len(s.orders) {
		return model.Order{}, ErrIndexOutOfRange
	}

	order := s.orders[index].Clone()
	if patch.CustomerName != nil {
		order.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.Phone != nil {
		order.CustomerPhone = validation.JoinPhone(areaCode, *patch.Phone)
	}
	if patch.Platform != nil {
		order.Platform = strings.TrimSpace(*patch.Platform)
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = model.PaymentStatus(strings.TrimSpace(string(*patch.PaymentStatus)))
	}
	if patch.Notes != nil {
		order.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Items != nil {
		order.Items = cleanItems(patch.Items)
	}
	if patch.DeliveryFee != nil {
		order.DeliveryFee = *patch.DeliveryFee
	}
	if err := validate(&order); err != nil {
		return model.Order{}, err
	}
	order.Recalculate()

	prev := s.orders[index]
	s.orders[index] = order
	if err := s.persist(ctx); err != nil {
		s.orders[index] = prev
		return model.Order{}, err
	}

	return order.Clone(), nil
}

// Remove удаляет заказ по позиции. Без подтверждения ничего не делает.
func (s *OrderStore) Remove(ctx context.Context, index int, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}
	if index < 0 || index >= len(s.orders) {
		return false, ErrIndexOutOfRange
	}

	prev := s.orders
	next := make([]model.Order, 0, len(prev)-1)
	next = append(next, prev[:index]...)
	next = append(next, prev[index+1:]...)

	s.orders = next
	if err := s.persist(ctx); err != nil {
		s.orders = prev
		return false, err
	}

	return true, nil
}

func (s *OrderStore) persist(ctx context.Context) error {
	orders := s.orders
	if orders == nil {
		orders = []model.Order{}
	}

	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	if err := s.storage.Save(ctx, OrdersKey, raw); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

func cleanItems(items []model.Item) []model.Item {
	res := make([]model.Item, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Valid() {
			res = append(res, it)
		}
	}
	return res
}

func validate(o *model.Order) error {
	if o.CustomerName == "" {
		return &ValidationError{Field: "customerName", Message: "Customer name is required"}
	}
	if len(o.Items) == 0 {
		return &ValidationError{Field: "items", Message: "Add at least one item"}
	}
	for _, it := range o.Items {
		if !finite(it.UnitPrice) {
			return &ValidationError{Field: "items", Message: "Item price must be a number"}
		}
		if it.UnitPrice < 0 {
			return &ValidationError{Field: "items", Message: "Item price cannot be negative"}
		}
	}
	if !finite(o.DeliveryFee) {
		return &ValidationError{Field: "deliveryFee", Message: "Delivery fee must be a number"}
	}
	if o.DeliveryFee < 0 {
		return &ValidationError{Field: "deliveryFee", Message: "Delivery fee cannot be negative"}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
