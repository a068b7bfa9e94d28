package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// EventTypeEnriched is the event_type header value on every published message.
const EventTypeEnriched = "address.wildfire.enriched"

// Writer publishes wildfire enrichment events to a Kafka topic.
// It implements pipeline.EnrichmentPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the enrichment topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishEnrichment writes one event keyed by address id, so every update
// for an address lands on the same partition.
func (w *Writer) PublishEnrichment(ctx context.Context, addr domain.Address) error {
	msg, err := serializeToMessage(addr)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish enrichment for %s: %w", addr.ID, err)
	}
	w.logger.Debug("enrichment published", "address_id", addr.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// EnrichmentEvent is the JSON payload of a published message.
type EnrichmentEvent struct {
	AddressID         string    `json:"address_id"`
	Address           string    `json:"address"`
	AddressNormalized string    `json:"address_normalized"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	WildfireCount     int       `json:"wildfire_count"`
	BBox              string    `json:"bbox"`
	RangeDays         int       `json:"range_days"`
	Source            string    `json:"source,omitempty"`
	FetchedAt         time.Time `json:"fetched_at"`
}

// serializeToMessage marshals an enriched address into a Kafka message.
func serializeToMessage(addr domain.Address) (kafkago.Message, error) {
	coords, ok := addr.Coordinates()
	if !ok || addr.WildfireFetchedAt == nil {
		return kafkago.Message{}, fmt.Errorf("serialize enrichment for %s: %w", addr.ID, domain.ErrInvalidInput)
	}

	event := EnrichmentEvent{
		AddressID:         addr.ID,
		Address:           addr.Address,
		AddressNormalized: addr.AddressNormalized,
		Latitude:          coords.Lat,
		Longitude:         coords.Lng,
		WildfireCount:     addr.WildfireData.Count,
		BBox:              addr.WildfireData.BBox,
		RangeDays:         addr.WildfireData.RangeDays,
		Source:            addr.WildfireData.Source,
		FetchedAt:         addr.WildfireFetchedAt.UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enrichment event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(addr.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeEnriched)},
			{Key: "fetched_at", Value: []byte(event.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
