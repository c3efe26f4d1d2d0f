package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer отправляет события в Kafka из отдельной горутины через буферизованный канал.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *zap.Logger
}

// NewProducer создаёт продюсер для темы topic с буфером на buf сообщений.
func NewProducer(brokers []string, topic string, buf int, logger *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf, logger)
}

func newProducer(w messageWriter, buf int, logger *zap.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Run пересылает события до отмены ctx, затем досылает остаток буфера и закрывает писателя.
func (p *Producer) Run(ctx context.Context) error {
	defer close(p.closeCh)

	for {
		select {
		case <-ctx.Done():
			p.drain()
			return p.w.Close()
		case m := <-p.inbox:
			p.write(context.Background(), m)
		}
	}
}

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(context.Background(), m)
		default:
			return
		}
	}
}

func (p *Producer) write(ctx context.Context, m kafka.Message) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Warn("kafka write failed", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

// Publish ставит событие в очередь отправки. При переполненном буфере событие отбрасывается.
func (p *Producer) Publish(e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("marshal event", zap.String("type", e.Type), zap.Error(err))
		return
	}

	m := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}

	select {
	case p.inbox <- m:
	default:
		p.logger.Warn("event buffer full, dropping event", zap.String("type", e.Type), zap.String("id", e.ID))
	}
}

// WaitClosed ждёт завершения Run.
func (p *Producer) WaitClosed() { <-p.closeCh }
