package ordering

import (
	"context"
	"errors"

	"github.com/rezkam/boardly/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/rezkam/boardly/internal/application/ordering"

var noopMeter metric.Meter = noop.Meter{}

// engineMetrics records ordering outcomes. Instruments that fail to register
// are replaced by no-op ones so metrics never block an operation.
type engineMetrics struct {
	kind      attribute.KeyValue
	conflicts metric.Int64Counter
	rejected  metric.Int64Counter
	rows      metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter, kind domain.ContainerKind) *engineMetrics {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &engineMetrics{kind: attribute.String("container.kind", string(kind))}
	var err error

	m.conflicts, err = meter.Int64Counter("boardly.ordering.conflicts",
		metric.WithDescription("Version conflicts observed while writing positions"))
	if err != nil {
		m.conflicts, _ = noopMeter.Int64Counter("conflicts")
	}
	m.rejected, err = meter.Int64Counter("boardly.ordering.rejections",
		metric.WithDescription("Operations rejected by an ordering policy"))
	if err != nil {
		m.rejected, _ = noopMeter.Int64Counter("rejections")
	}
	m.rows, err = meter.Int64Counter("boardly.ordering.rows_written",
		metric.WithDescription("Children written per ordering operation"))
	if err != nil {
		m.rows, _ = noopMeter.Int64Counter("rows_written")
	}
	return m
}

func (m *engineMetrics) conflict(ctx context.Context, op string) {
	m.conflicts.Add(ctx, 1, metric.WithAttributes(m.kind, attribute.String("operation", op)))
}

func (m *engineMetrics) written(ctx context.Context, op string, n int) {
	if n == 0 {
		return
	}
	m.rows.Add(ctx, int64(n), metric.WithAttributes(m.kind, attribute.String("operation", op)))
}

func (m *engineMetrics) outcome(ctx context.Context, op string, err error) {
	reason := rejectionReason(err)
	if reason == "" {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(m.kind,
		attribute.String("operation", op),
		attribute.String("reason", reason)))
}

func rejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrPositionInvalid):
		return "position_invalid"
	case errors.Is(err, domain.ErrPositionOutOfRange):
		return "position_out_of_range"
	case errors.Is(err, domain.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	default:
		return ""
	}
}
