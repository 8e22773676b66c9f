package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ringline/racecore/internal/dispatcher"

type metrics struct {
	processedCount metric.Int64Counter
	droppedCount   metric.Int64Counter
}

// newMetrics registers the dispatcher instruments. depths is polled for the
// queue size gauge.
func newMetrics(depths func() map[string]int) (*metrics, error) {
	m := otel.Meter(instrumentationName)

	queueSize, err := m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for cmd, n := range depths() {
			o.ObserveInt64(queueSize, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	out := &metrics{}
	out.processedCount, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	out.droppedCount, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return out, nil
}

func (m *metrics) processed(command string) {
	m.processedCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}

func (m *metrics) dropped(command string) {
	m.droppedCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}
