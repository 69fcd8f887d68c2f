package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-notification-service/internal/config"
	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// Writer publishes readings to a Kafka topic.
// It implements fetcher.Publisher.
type Writer struct {
	writer  messageWriter
	groupID string
	logger  *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter creates a Kafka producer for the configured topic. Messages are
// keyed by the message group so one group maps to one partition.
func NewWriter(cfg *config.Fetcher, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, groupID: cfg.MessageGroupID, logger: logger}
}

// Publish serializes the reading and writes it to the topic. The returned ID
// is generated here and carried in the message_id header, since Kafka assigns
// no message identifiers of its own.
func (w *Writer) Publish(ctx context.Context, r domain.WeatherReading) (string, error) {
	id := uuid.NewString()
	msg, err := serializeToMessage(id, w.groupID, r)
	if err != nil {
		return "", err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return "", fmt.Errorf("%w: write message: %w", domain.ErrPublish, err)
	}
	w.logger.Debug("reading published", "message_id", id, "group_id", w.groupID)
	return id, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a reading into a Kafka message.
func serializeToMessage(id, groupID string, r domain.WeatherReading) (kafkago.Message, error) {
	data, err := r.Encode()
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	return kafkago.Message{
		Key:   []byte(groupID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: headerMessageID, Value: []byte(id)},
			{Key: headerLocation, Value: []byte(r.Location)},
			{Key: headerFetchedAt, Value: []byte(strconv.FormatInt(r.Timestamp, 10))},
		},
	}, nil
}

const (
	headerMessageID = "message_id"
	headerLocation  = "location"
	headerFetchedAt = "fetched_at"
)
