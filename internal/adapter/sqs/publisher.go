package sqs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// API is the subset of the SQS client the publisher uses.
type API interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

// Publisher sends readings to an SQS FIFO queue under one message group.
// It implements fetcher.Publisher.
type Publisher struct {
	api      API
	queueURL string
	groupID  string
	logger   *slog.Logger
}

// NewPublisher creates a publisher for queueURL. All messages share groupID so
// the queue delivers them in order.
func NewPublisher(api API, queueURL, groupID string, logger *slog.Logger) *Publisher {
	return &Publisher{api: api, queueURL: queueURL, groupID: groupID, logger: logger}
}

// Publish serializes the reading and sends it. It returns the queue-assigned
// message ID. Failures wrap domain.ErrPublish.
func (p *Publisher) Publish(ctx context.Context, r domain.WeatherReading) (string, error) {
	body, err := r.Encode()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}

	out, err := p.api.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:               aws.String(p.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(p.groupID),
		MessageDeduplicationId: aws.String(deduplicationID(r)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"location": {DataType: aws.String("String"), StringValue: aws.String(r.Location)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: send message: %w", domain.ErrPublish, err)
	}
	if out == nil || out.MessageId == nil {
		return "", fmt.Errorf("%w: send message returned no message id", domain.ErrPublish)
	}

	p.logger.Debug("reading published", "message_id", *out.MessageId, "group_id", p.groupID)
	return *out.MessageId, nil
}

// deduplicationID identifies a reading by location and fetch time, so a retried
// invocation within the FIFO dedup window does not enqueue a duplicate. The
// hex digest keeps the ID inside the characters SQS accepts whatever the
// location name contains.
func deduplicationID(r domain.WeatherReading) string {
	sum := sha256.Sum256([]byte(r.Location + "\x00" + strconv.FormatInt(r.Timestamp, 10)))
	return hex.EncodeToString(sum[:])
}
