package events

import (
	"fmt"

	"github.com/asaskevich/EventBus"
)

// Bus реализует внутреннюю шину событий процесса.
type Bus struct {
	bus EventBus.Bus
}

// NewBus создаёт пустую шину.
func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

// Publish синхронно доставляет событие всем подписчикам.
func (b *Bus) Publish(e Event) {
	b.bus.Publish(TopicChanges, e)
}

// Subscribe регистрирует обработчик событий изменения.
func (b *Bus) Subscribe(fn func(Event)) error {
	if err := b.bus.Subscribe(TopicChanges, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicChanges, err)
	}
	return nil
}
