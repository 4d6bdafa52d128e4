package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shaiso/Vitrina/internal/mq"
)

// Sink пишет события магазинов из очереди в поток JSON lines.
type Sink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

// NewSink создаёт Sink поверх w.
func NewSink(w io.Writer, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{enc: json.NewEncoder(w), logger: logger}
}

// Handle — mq.Handler для очереди events.audit.
// Сообщения других типов подтверждаются без записи.
func (s *Sink) Handle(_ context.Context, d *mq.Delivery) error {
	if d.Message.Type != mq.MessageTypeStoreEvent {
		s.logger.Warn("skipping unexpected message", "type", d.Message.Type, "message_id", d.Message.ID)
		return nil
	}

	payload, err := mq.ParsePayload[mq.StoreEventPayload](&d.Message)
	if err != nil {
		return fmt.Errorf("parse store event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(payload); err != nil {
		return fmt.Errorf("write store event: %w", err)
	}
	return nil
}
