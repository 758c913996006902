package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	cardsRoute    = "/api/cards"
	cardsSpanName = "kanban.cards.list"
	tracerName    = "kanban-flow/api"
)

// listRequestMetrics records timing and outcome of one list request, emitting
// both a span and a structured log record when the request finishes.
type listRequestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	start         time.Time
	fetchDuration time.Duration
	cardsReturned int
	errorStage    string
}

func newListRequestMetrics(ctx context.Context, logger *log.Logger) (*listRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, cardsSpanName,
		trace.WithAttributes(attribute.String("http.route", cardsRoute)))
	return &listRequestMetrics{logger: logger, span: span, start: time.Now()}, spanCtx
}

func (m *listRequestMetrics) ObserveFetch(d time.Duration) {
	if d > 0 {
		m.fetchDuration = d
	}
}

func (m *listRequestMetrics) SetCardsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.cardsReturned = count
}

func (m *listRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log finishes the span and writes the request record. Safe on a nil
// receiver so handlers can defer it unconditionally.
func (m *listRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)

	if m.span != nil {
		m.span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int("kanban.cards.returned", m.cardsReturned),
			attribute.Float64("kanban.cards.total_ms", durationToMillis(total)),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("kanban.cards.error_stage", m.errorStage))
		}
		if err != nil || status >= http.StatusInternalServerError {
			m.span.SetStatus(codes.Error, m.errorStage)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":          cardsRoute,
		"status":         status,
		"total_ms":       durationToMillis(total),
		"cards_returned": m.cardsReturned,
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	m.logger.WithFields(fields).Info("cards.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
