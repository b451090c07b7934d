// Package ingest bridges an external event bus into the durable queue. The
// surrounding product publishes property events to Kafka; this reader copies
// them into the events table, where the queue processor owns them. Delivery
// is at least once; the event id makes the store insert idempotent.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/stewardhq/steward/internal/store"
)

// envelope is the wire format on the topic.
type envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Priority   string          `json:"priority"`
	UserID     string          `json:"user_id"`
	PropertyID string          `json:"property_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Reader consumes the event topic into the store.
type Reader struct {
	reader *kafka.Reader
	st     *store.Store
	log    *slog.Logger
}

// New builds a reader on the given brokers and topic.
func New(brokers []string, topic, groupID string, st *store.Store, log *slog.Logger) *Reader {
	return &Reader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		st:  st,
		log: log,
	}
}

// Run consumes until the context is canceled. Malformed messages are logged
// and skipped; they would never become processable.
func (r *Reader) Run(ctx context.Context) error {
	defer r.reader.Close()
	r.log.Info("event intake started", "topic", r.reader.Config().Topic)

	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := r.ingest(msg.Value); err != nil {
			r.log.Warn("skipping message", "offset", msg.Offset, "error", err)
		}
	}
}

func (r *Reader) ingest(raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" || env.UserID == "" {
		return fmt.Errorf("envelope missing type or user_id")
	}

	e := &store.Event{
		ID:         env.ID,
		Type:       env.Type,
		Priority:   normalizePriority(env.Priority),
		UserID:     env.UserID,
		PropertyID: env.PropertyID,
		Payload:    string(env.Payload),
	}
	if err := r.st.InsertEvent(e); err != nil {
		// Redelivery of an already stored event is expected under
		// at-least-once; everything else is worth logging.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("insert event: %w", err)
	}
	r.log.Info("event ingested", "id", e.ID, "type", e.Type, "priority", e.Priority, "user", e.UserID)
	return nil
}

func normalizePriority(p string) string {
	switch p {
	case store.PriorityInstant, store.PriorityHigh, store.PriorityNormal, store.PriorityLow:
		return p
	default:
		return store.PriorityNormal
	}
}
