package influx

import (
	"time"

	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/pkg/core"
)

// Sink writes a point per snapshot and per finished sweep.
type Sink struct {
	elevator.NopSink

	m     *Manager
	runID uint
	now   func() time.Time
}

var _ elevator.SweepEnder = (*Sink)(nil)

// NewSink writes points for runID through m.
func NewSink(m *Manager, runID uint) *Sink {
	return &Sink{m: m, runID: runID, now: time.Now}
}

func (s *Sink) FloorSnapshot(snap core.FloorSnapshot) {
	if err := s.m.WritePoint(s.m.Bucket(), SnapshotPoint(s.runID, snap, s.now())); err != nil {
		s.m.Logger.Error().Err(err).Int("floor", snap.Floor.Number).Msg("Error writing car point")
	}
}

func (s *Sink) SweepEnd(sum core.SweepSummary) {
	if err := s.m.WritePoint(s.m.Bucket(), SweepPoint(s.runID, sum, s.now())); err != nil {
		s.m.Logger.Error().Err(err).Int("sweep", sum.Number).Msg("Error writing sweep point")
	}
}
