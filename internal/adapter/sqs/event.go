package sqs

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// MapEvent converts a Lambda SQS trigger payload into transport-neutral
// messages, preserving record order.
func MapEvent(ev events.SQSEvent) []domain.RawMessage {
	msgs := make([]domain.RawMessage, len(ev.Records))
	for i := range ev.Records {
		msgs[i] = mapRecord(ev.Records[i])
	}
	return msgs
}

func mapRecord(rec events.SQSMessage) domain.RawMessage {
	attrs := make(map[string]string, len(rec.MessageAttributes))
	for k, v := range rec.MessageAttributes {
		if v.StringValue != nil {
			attrs[k] = *v.StringValue
		}
	}
	return domain.RawMessage{
		ID:         rec.MessageId,
		Body:       []byte(rec.Body),
		GroupID:    rec.Attributes["MessageGroupId"],
		Source:     rec.EventSourceARN,
		Attributes: attrs,
	}
}
