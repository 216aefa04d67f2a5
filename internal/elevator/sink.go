package elevator

import "github.com/liftsim/liftsim/pkg/core"

// Sink receives read-only notifications from the scheduler. Every argument
// is a copy; nothing a sink does can influence scheduling.
type Sink interface {
	SweepStart(dir core.Direction)
	FloorSnapshot(s core.FloorSnapshot)
	BuildingSummary(floors []core.FloorView)
	PassengerEvent(p core.Passenger, entered bool, floor int)
}

// SweepEnder is implemented by sinks that want the totals of each sweep.
type SweepEnder interface {
	SweepEnd(s core.SweepSummary)
}

// NopSink discards every notification.
type NopSink struct{}

func (NopSink) SweepStart(core.Direction)                {}
func (NopSink) FloorSnapshot(core.FloorSnapshot)         {}
func (NopSink) BuildingSummary([]core.FloorView)         {}
func (NopSink) PassengerEvent(core.Passenger, bool, int) {}

// Sinks fans every notification out to each member in order.
type Sinks []Sink

func (s Sinks) SweepStart(dir core.Direction) {
	for _, sink := range s {
		sink.SweepStart(dir)
	}
}

func (s Sinks) FloorSnapshot(snap core.FloorSnapshot) {
	for _, sink := range s {
		sink.FloorSnapshot(snap)
	}
}

func (s Sinks) BuildingSummary(floors []core.FloorView) {
	for _, sink := range s {
		sink.BuildingSummary(floors)
	}
}

func (s Sinks) PassengerEvent(p core.Passenger, entered bool, floor int) {
	for _, sink := range s {
		sink.PassengerEvent(p, entered, floor)
	}
}

// SweepEnd forwards to the members that implement SweepEnder.
func (s Sinks) SweepEnd(sum core.SweepSummary) {
	for _, sink := range s {
		if se, ok := sink.(SweepEnder); ok {
			se.SweepEnd(sum)
		}
	}
}
