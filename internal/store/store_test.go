package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
)

type stubStorage struct {
	data    map[string][]byte
	saves   int
	saveErr error
}

func newStubStorage() *stubStorage {
	return &stubStorage{data: map[string][]byte{}}
}

func (s *stubStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *stubStorage) Save(ctx context.Context, key string, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data[key] = append([]byte(nil), data...)
	return nil
}

var fixedNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

func newTestOrderStore(t *testing.T, storage Storage) *OrderStore {
	t.Helper()

	s, err := NewOrderStore(context.Background(), storage, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
	require.NoError(t, err)
	return s
}

func sampleInput(name string) model.OrderInput {
	return model.OrderInput{
		CustomerName:  name,
		Phone:         "555-1234",
		Platform:      model.PlatformInstagram,
		PaymentStatus: model.PaymentPending,
		Items: []model.Item{
			{Name: "Cake", Quantity: 2, UnitPrice: 1500},
			{Name: "Juice", Quantity: 1, UnitPrice: 250.5},
		},
		DeliveryFee: 500,
	}
}

func TestAppend_ComputesTotalsAndPersists(t *testing.T) {
	storage := newStubStorage()
	s := newTestOrderStore(t, storage)

	idx, order, err := s.Append(context.Background(), sampleInput(" Jane "), "+1-876-")
	require.NoError(t, err)

	assert.Equal(t, 0, idx)
	assert.Equal(t, "Jane", order.CustomerName)
	assert.Equal(t, "+1-876-555-1234", order.CustomerPhone)
	assert.Equal(t, 3250.5, order.Subtotal)
	assert.Equal(t, 3750.5, order.Total)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.Equal(t, "15/10/2026, 2:30:00 pm", order.DisplayDate)

	var stored []model.Order
	require.NoError(t, json.Unmarshal(storage.data[OrdersKey], &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, 3750.5, stored[0].Total)
}

func TestAppend_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input model.OrderInput
		field string
	}{
		{
			name:  "empty customer name",
			input: func() model.OrderInput { in := sampleInput("   "); return in }(),
			field: "customerName",
		},
		{
			name: "no valid items",
			input: func() model.OrderInput {
				in := sampleInput("Jane")
				in.Items = []model.Item{{Name: "", Quantity: 1}, {Name: "Cake", Quantity: 0}}
				return in
			}(),
			field: "items",
		},
		{
			name: "negative delivery fee",
			input: func() model.OrderInput {
				in := sampleInput("Jane")
				in.DeliveryFee = -1
				return in
			}(),
			field: "deliveryFee",
		},
		{
			name: "infinite delivery fee",
			input: func() model.OrderInput {
				in := sampleInput("Jane")
				in.DeliveryFee = math.Inf(1)
				return in
			}(),
			field: "deliveryFee",
		},
		{
			name: "NaN item price",
			input: func() model.OrderInput {
				in := sampleInput("Jane")
				in.Items[0].UnitPrice = math.NaN()
				return in
			}(),
			field: "items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newStubStorage()
			s := newTestOrderStore(t, storage)
			_, _, err := s.Append(context.Background(), sampleInput("Existing"), "")
			require.NoError(t, err)
			before := s.List()

			_, _, err = s.Append(context.Background(), tt.input, "")

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, before, s.List())
			assert.Equal(t, 1, storage.saves)
		})
	}
}

func TestAppend_DropsInvalidItems(t *testing.T) {
	s := newTestOrderStore(t, newStubStorage())

	in := sampleInput("Jane")
	in.Items = append(in.Items, model.Item{Name: "  ", Quantity: 3, UnitPrice: 10})

	_, order, err := s.Append(context.Background(), in, "")
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
}

func TestAppend_RollsBackOnStorageFailure(t *testing.T) {
	storage := newStubStorage()
	s := newTestOrderStore(t, storage)
	storage.saveErr = errors.New("disk full")

	_, _, err := s.Append(context.Background(), sampleInput("Jane"), "")
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestUpdate_RecomputesTotalsAndKeepsCreation(t *testing.T) {
	s := newTestOrderStore(t, newStubStorage())
	_, created, err := s.Append(context.Background(), sampleInput("Jane"), "")
	require.NoError(t, err)

	fee := 0.0
	status := model.PaymentPaid
	phone := "777-8888"
	updated, err := s.Update(context.Background(), 0, model.OrderPatch{
		Items:         []model.Item{{Name: "Bun", Quantity: 4, UnitPrice: 100}},
		DeliveryFee:   &fee,
		PaymentStatus: &status,
		Phone:         &phone,
	}, "+1-658-")
	require.NoError(t, err)

	assert.Equal(t, 400.0, updated.Subtotal)
	assert.Equal(t, 400.0, updated.Total)
	assert.Equal(t, model.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "+1-658-777-8888", updated.CustomerPhone)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.DisplayDate, updated.DisplayDate)
	assert.Equal(t, "Jane", updated.CustomerName)
}

func TestUpdate_Errors(t *testing.T) {
	s := newTestOrderStore(t, newStubStorage())
	_, _, err := s.Append(context.Background(), sampleInput("Jane"), "")
	require.NoError(t, err)

	_, err = s.Update(context.Background(), 5, model.OrderPatch{}, "")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	empty := ""
	_, err = s.Update(context.Background(), 0, model.OrderPatch{CustomerName: &empty}, "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "customerName", vErr.Field)

	order, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Jane", order.CustomerName)
}

func TestRemove_PreservesRelativeOrder(t *testing.T) {
	s := newTestOrderStore(t, newStubStorage())
	for _, name := range []string{"A", "B", "C", "D"} {
		_, _, err := s.Append(context.Background(), sampleInput(name), "")
		require.NoError(t, err)
	}

	deleted, err := s.Remove(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 4, s.Len())

	deleted, err = s.Remove(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, deleted)

	var names []string
	for _, o := range s.List() {
		names = append(names, o.CustomerName)
	}
	assert.Equal(t, []string{"A", "C", "D"}, names)

	_, err = s.Remove(context.Background(), 3, true)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewOrderStore_CorruptStateFallsBackToEmpty(t *testing.T) {
	storage := newStubStorage()
	storage.data[OrdersKey] = []byte("{not json")

	s := newTestOrderStore(t, storage)
	assert.Equal(t, 0, s.Len())
}

func TestNewOrderStore_LoadsLegacyRecords(t *testing.T) {
	storage := newStubStorage()
	storage.data[OrdersKey] = []byte(`[{"date":"14/10/2026, 9:00:00 am","customerName":"Old","customerPhone":"+1-876-","platform":"WhatsApp","notes":"","paymentStatus":"Paid","deliveryFee":0,"items":[{"name":"Hat","qty":1,"price":20}],"subtotal":20,"total":20}]`)

	s := newTestOrderStore(t, storage)
	require.Equal(t, 1, s.Len())

	order, err := s.Get(0)
	require.NoError(t, err)
	assert.True(t, order.CreatedAt.IsZero())
	assert.Equal(t, 20.0, order.Total)
	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestProfileStore_DefaultsAndNormalization(t *testing.T) {
	storage := newStubStorage()
	ps, err := NewProfileStore(context.Background(), storage, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfile(), ps.Get())

	logo := "data:image/png;base64,AAAA"
	saved, err := ps.Save(context.Background(), model.ProfileInput{
		Name:         " Island Treats ",
		SocialHandle: "islandtreats",
		Phone:        "555-1234",
		LogoData:     &logo,
	})
	require.NoError(t, err)

	assert.Equal(t, "Island Treats", saved.Name)
	assert.Equal(t, "@islandtreats", saved.SocialHandle)
	assert.Equal(t, model.DefaultAreaCode, saved.AreaCode)
	assert.Equal(t, "+1-876-555-1234", saved.Phone)
	assert.Equal(t, model.DefaultReceiptNote, saved.ReceiptNote)

	saved, err = ps.Save(context.Background(), model.ProfileInput{Name: "Island Treats", Phone: "555-1234"})
	require.NoError(t, err)
	assert.Equal(t, logo, saved.LogoData)

	form := ps.Form()
	assert.Equal(t, "555-1234", form.Phone)
	assert.True(t, form.HasLogo)

	reloaded, err := NewProfileStore(context.Background(), storage, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, saved, reloaded.Get())
}

func TestProfileStore_CorruptFallsBackToDefaults(t *testing.T) {
	storage := newStubStorage()
	storage.data[ProfileKey] = []byte("[")

	ps, err := NewProfileStore(context.Background(), storage, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfile(), ps.Get())
}
