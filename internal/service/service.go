// Package service реализует бизнес-логику трекера продаж и приёма заявок на бета-тест.
package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/events"
)

// Publisher принимает события изменения данных.
type Publisher interface {
	Publish(e events.Event)
}

// Option настраивает сервисы пакета.
type Option func(*options)

type options struct {
	now      func() time.Time
	producer string
}

func defaultOptions() options {
	return options{now: time.Now, producer: "seller-tracker"}
}

// WithClock задаёт источник текущего времени. Часовой пояс результата определяет календарные сутки.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithProducer задаёт имя сервиса в событиях.
func WithProducer(name string) Option {
	return func(o *options) {
		if name != "" {
			o.producer = name
		}
	}
}

func publish(bus Publisher, logger *zap.Logger, o options, eventType, key string, payload any) {
	if bus == nil {
		return
	}
	e, err := events.New(o.producer, eventType, key, payload, o.now())
	if err != nil {
		logger.Warn("build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	bus.Publish(e)
}
