package dispatcher

import (
	"fmt"
	"time"

	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/pkg/core"
)

// Event kinds emitted by the scheduler.
const (
	KindSweepStart      = ":SWEEP:START:"
	KindFloorSnapshot   = ":FLOOR:SNAPSHOT:"
	KindBuildingSummary = ":BUILDING:SUMMARY:"
	KindPassenger       = ":PASSENGER:"
	KindSweepEnd        = ":SWEEP:END:"
)

// PassengerMove is the payload of a KindPassenger event.
type PassengerMove struct {
	Passenger core.Passenger
	Entered   bool
	Floor     int
}

// Sink turns scheduler notifications into dispatched events. It satisfies
// elevator.Sink and elevator.SweepEnder.
type Sink struct {
	d   *Dispatcher
	now func() time.Time
}

// NewSink wraps d as an elevator sink.
func NewSink(d *Dispatcher) *Sink {
	return &Sink{d: d, now: time.Now}
}

var (
	_ elevator.Sink       = (*Sink)(nil)
	_ elevator.SweepEnder = (*Sink)(nil)
)

func (s *Sink) emit(kind string, payload any) {
	if err := s.d.Dispatch(Event{Kind: kind, Payload: payload, Timestamp: s.now()}); err != nil {
		s.d.logger.Error("dispatch failed", "kind", kind, "error", err)
	}
}

func (s *Sink) SweepStart(dir core.Direction) {
	s.emit(KindSweepStart, dir)
}

func (s *Sink) FloorSnapshot(snap core.FloorSnapshot) {
	s.emit(KindFloorSnapshot, snap)
}

func (s *Sink) BuildingSummary(floors []core.FloorView) {
	s.emit(KindBuildingSummary, floors)
}

func (s *Sink) PassengerEvent(p core.Passenger, entered bool, floor int) {
	s.emit(KindPassenger, PassengerMove{Passenger: p, Entered: entered, Floor: floor})
}

func (s *Sink) SweepEnd(sum core.SweepSummary) {
	s.emit(KindSweepEnd, sum)
}

// HandlerFor adapts an elevator sink into a handler. Sweep totals are only
// forwarded when the sink implements elevator.SweepEnder.
func HandlerFor(sink elevator.Sink) HandlerFunc {
	ender, _ := sink.(elevator.SweepEnder)

	return func(e Event) error {
		switch e.Kind {
		case KindSweepStart:
			dir, ok := e.Payload.(core.Direction)
			if !ok {
				return payloadError(e)
			}
			sink.SweepStart(dir)
		case KindFloorSnapshot:
			snap, ok := e.Payload.(core.FloorSnapshot)
			if !ok {
				return payloadError(e)
			}
			sink.FloorSnapshot(snap)
		case KindBuildingSummary:
			floors, ok := e.Payload.([]core.FloorView)
			if !ok {
				return payloadError(e)
			}
			sink.BuildingSummary(floors)
		case KindPassenger:
			mv, ok := e.Payload.(PassengerMove)
			if !ok {
				return payloadError(e)
			}
			sink.PassengerEvent(mv.Passenger, mv.Entered, mv.Floor)
		case KindSweepEnd:
			sum, ok := e.Payload.(core.SweepSummary)
			if !ok {
				return payloadError(e)
			}
			if ender != nil {
				ender.SweepEnd(sum)
			}
		default:
			return fmt.Errorf("unknown event kind: %s", e.Kind)
		}
		return nil
	}
}

func payloadError(e Event) error {
	return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Kind)
}
