package fetcher

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// SuccessMessage is the body message of a successful invocation.
const SuccessMessage = "Weather data successfully fetched and queued"

// Response is the Lambda invocation result. Body holds a JSON document.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type successBody struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	Data      any    `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

// HandleScheduled is the Lambda entry point for the scheduled trigger. On
// failure it returns both a 500 response and the error, so the invocation is
// recorded as failed.
func (s *Service) HandleScheduled(ctx context.Context, ev events.CloudWatchEvent) (Response, error) {
	logger := s.logger.With("invocation_id", uuid.NewString())
	if ev.ID != "" {
		logger = logger.With("event_id", ev.ID)
	}
	summary, err := s.run(ctx, logger)
	if err != nil {
		return newResponse(http.StatusInternalServerError, errorBody{Error: err.Error()}), err
	}
	return newResponse(http.StatusOK, successBody{
		Message:   SuccessMessage,
		MessageID: summary.MessageID,
		Data:      summary.Reading,
	}), nil
}

func newResponse(status int, body any) Response {
	data, err := json.Marshal(body)
	if err != nil {
		return Response{StatusCode: http.StatusInternalServerError, Body: `{"error":"encode response"}`}
	}
	return Response{StatusCode: status, Body: string(data)}
}
