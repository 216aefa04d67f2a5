// Package metrics records scheduler activity as OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"

	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/liftsim/liftsim/internal/metrics"

// Sink counts boardings, deliveries, sweeps and snapshots, and records the
// car load at every snapshot.
type Sink struct {
	elevator.NopSink

	boarded   metric.Int64Counter
	delivered metric.Int64Counter
	sweeps    metric.Int64Counter
	snapshots metric.Int64Counter
	load      metric.Int64Histogram
	waiting   metric.Int64Gauge
}

var _ elevator.SweepEnder = (*Sink)(nil)

// New creates the instruments on m. A nil meter uses the global provider.
func New(m metric.Meter) (*Sink, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}

	s := &Sink{}
	var err error

	s.boarded, err = m.Int64Counter("liftsim.passengers.boarded",
		metric.WithDescription("Passengers that entered the car"))
	if err != nil {
		return nil, fmt.Errorf("creating boarded counter: %w", err)
	}

	s.delivered, err = m.Int64Counter("liftsim.passengers.delivered",
		metric.WithDescription("Passengers that left the car at their destination"))
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}

	s.sweeps, err = m.Int64Counter("liftsim.sweeps",
		metric.WithDescription("Sweeps started"))
	if err != nil {
		return nil, fmt.Errorf("creating sweeps counter: %w", err)
	}

	s.snapshots, err = m.Int64Counter("liftsim.snapshots",
		metric.WithDescription("Floor visits with an occupied car"))
	if err != nil {
		return nil, fmt.Errorf("creating snapshots counter: %w", err)
	}

	s.load, err = m.Int64Histogram("liftsim.car.load",
		metric.WithDescription("Passengers onboard when leaving a floor"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5))
	if err != nil {
		return nil, fmt.Errorf("creating load histogram: %w", err)
	}

	s.waiting, err = m.Int64Gauge("liftsim.passengers.waiting",
		metric.WithDescription("Passengers still waiting after a sweep"))
	if err != nil {
		return nil, fmt.Errorf("creating waiting gauge: %w", err)
	}

	return s, nil
}

func dirAttr(d core.Direction) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("direction", d.String()))
}

func (s *Sink) SweepStart(dir core.Direction) {
	s.sweeps.Add(context.Background(), 1, dirAttr(dir))
}

func (s *Sink) FloorSnapshot(snap core.FloorSnapshot) {
	ctx := context.Background()
	s.snapshots.Add(ctx, 1, dirAttr(snap.Direction))
	s.load.Record(ctx, int64(len(snap.Onboard)), dirAttr(snap.Direction))
}

func (s *Sink) PassengerEvent(p core.Passenger, entered bool, _ int) {
	if entered {
		s.boarded.Add(context.Background(), 1, dirAttr(p.Direction()))
		return
	}
	s.delivered.Add(context.Background(), 1, dirAttr(p.Direction()))
}

func (s *Sink) SweepEnd(sum core.SweepSummary) {
	s.waiting.Record(context.Background(), int64(sum.Waiting))
}
