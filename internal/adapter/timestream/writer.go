package timestream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite/types"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// API is the subset of the Timestream write client the writer uses.
type API interface {
	WriteRecords(ctx context.Context, params *timestreamwrite.WriteRecordsInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.WriteRecordsOutput, error)
}

// Writer stores readings as Timestream records.
// It implements pipeline.MetricsStore.
type Writer struct {
	api      API
	database string
	table    string
	logger   *slog.Logger
}

// NewWriter creates a writer for database.table.
func NewWriter(api API, database, table string, logger *slog.Logger) *Writer {
	return &Writer{api: api, database: database, table: table, logger: logger}
}

// Write expands the reading into its measure points and writes them in one
// request. Returns the number of points written; failures wrap domain.ErrWrite.
func (w *Writer) Write(ctx context.Context, r domain.WeatherReading) (int, error) {
	points := domain.MeasurePoints(r)
	input := buildInput(w.database, w.table, points)

	if _, err := w.api.WriteRecords(ctx, input); err != nil {
		var rejected *types.RejectedRecordsException
		if errors.As(err, &rejected) {
			return 0, fmt.Errorf("%w: %d records rejected: %s", domain.ErrWrite,
				len(rejected.RejectedRecords), rejectionReasons(rejected.RejectedRecords))
		}
		return 0, fmt.Errorf("%w: write records: %w", domain.ErrWrite, err)
	}

	w.logger.Debug("measure points written", "count", len(points), "location", r.Location)
	return len(points), nil
}

// buildInput shares dimensions and time across records through
// CommonAttributes; each record carries only its measure.
func buildInput(database, table string, points []domain.MeasurePoint) *timestreamwrite.WriteRecordsInput {
	input := &timestreamwrite.WriteRecordsInput{
		DatabaseName: aws.String(database),
		TableName:    aws.String(table),
		Records:      make([]types.Record, 0, len(points)),
	}
	if len(points) == 0 {
		return input
	}

	first := points[0]
	dims := make([]types.Dimension, len(first.Dimensions))
	for i, d := range first.Dimensions {
		dims[i] = types.Dimension{
			Name:               aws.String(d.Name),
			Value:              aws.String(d.Value),
			DimensionValueType: types.DimensionValueTypeVarchar,
		}
	}
	input.CommonAttributes = &types.Record{
		Dimensions: dims,
		Time:       aws.String(strconv.FormatInt(first.Time.UnixMilli(), 10)),
		TimeUnit:   types.TimeUnitMilliseconds,
	}

	for _, p := range points {
		input.Records = append(input.Records, types.Record{
			MeasureName:      aws.String(p.Name),
			MeasureValue:     aws.String(strconv.FormatFloat(p.Value, 'f', -1, 64)),
			MeasureValueType: types.MeasureValueTypeDouble,
		})
	}
	return input
}

func rejectionReasons(recs []types.RejectedRecord) string {
	reasons := make([]string, 0, len(recs))
	for _, r := range recs {
		reasons = append(reasons, fmt.Sprintf("record %d: %s", r.RecordIndex, aws.ToString(r.Reason)))
	}
	return strings.Join(reasons, "; ")
}
