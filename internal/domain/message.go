package domain

import "context"

// RawMessage is a queue message as delivered to the processor, independent of
// the transport (SQS record or Kafka message).
type RawMessage struct {
	ID         string
	Body       []byte
	GroupID    string
	Source     string // queue URL/ARN or Kafka topic
	Attributes map[string]string

	// Commit acknowledges the message on transports that need it (Kafka).
	// Nil for SQS, where the trigger deletes the batch on success.
	Commit func(ctx context.Context) error
}
