// Package kafka publishes the events of each successful refresh for
// downstream consumers. The publisher is optional and feature-flagged;
// the dashboard works identically without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-watch-service/internal/config"
	"github.com/couchcryptid/quake-watch-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces refreshed events to a Kafka topic.
// It implements refresh.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishEvents serializes and publishes the snapshot's events in a
// single WriteMessages call.
func (w *Writer) PublishEvents(ctx context.Context, fetchedAt time.Time, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(fetchedAt, events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// eventPayload is the wire form of one published event.
type eventPayload struct {
	Place     string    `json:"place"`
	Magnitude float64   `json:"magnitude"`
	Time      time.Time `json:"time"`
	DetailURL string    `json:"detail_url"`
}

// serializeToMessage marshals an Event into a Kafka message keyed by its
// detail URL, the closest thing the feed offers to a stable identifier.
func serializeToMessage(fetchedAt time.Time, event domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(eventPayload{
		Place:     event.Place,
		Magnitude: event.Magnitude,
		Time:      event.Time,
		DetailURL: event.DetailURL,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.DetailURL),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "fetched_at", Value: []byte(fetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
