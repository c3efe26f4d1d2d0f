// Package store содержит хранилища заказов и профиля продавца поверх блоб-хранилища.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Ключи, под которыми хранится состояние трекера.
const (
	OrdersKey  = "jamaicaSalesOrders"
	ProfileKey = "businessInfo"
)

// ErrIndexOutOfRange возвращается, если позиция заказа вне списка.
var ErrIndexOutOfRange = errors.New("order index out of range")

// Storage описывает хранилище именованных сериализованных блобов.
// Load возвращает nil без ошибки, если ключ ещё не записан.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// ValidationError описывает отклонённые входные данные с указанием поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
