package convert

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/liftsim/liftsim/internal/model"
	"github.com/liftsim/liftsim/pkg/core"
)

// parseDirection reverses core.Direction.String.
func parseDirection(s string) (core.Direction, error) {
	switch s {
	case "up":
		return core.Up, nil
	case "down":
		return core.Down, nil
	default:
		return core.Up, fmt.Errorf("unknown direction %q", s)
	}
}

// RunToCore converts a GORM Run to a core.Run.
func RunToCore(r model.Run) (core.Run, error) {
	seed, err := strconv.ParseUint(r.Seed, 10, 64)
	if err != nil {
		return core.Run{}, fmt.Errorf("run %d: bad seed %q: %w", r.ID, r.Seed, err)
	}
	return core.Run{
		ID:              r.ID,
		Seed:            seed,
		FloorCount:      r.FloorCount,
		Capacity:        r.Capacity,
		Passengers:      r.Passengers,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Sweeps:          r.Sweeps,
		Delivered:       r.Delivered,
		FloorsTravelled: r.FloorsTravelled,
		Trajectory:      r.Trajectory,
	}, nil
}

// VisitToCore converts a GORM Visit to a core.Visit.
func VisitToCore(v model.Visit) (core.Visit, error) {
	dir, err := parseDirection(v.Direction)
	if err != nil {
		return core.Visit{}, err
	}
	var onboard []int
	if len(v.Onboard) > 0 {
		if err := json.Unmarshal(v.Onboard, &onboard); err != nil {
			return core.Visit{}, fmt.Errorf("visit %d: bad onboard list: %w", v.ID, err)
		}
	}
	return core.Visit{
		RunID:     v.RunID,
		Seq:       v.Seq,
		Sweep:     v.Sweep,
		Floor:     v.Floor,
		Direction: dir,
		Onboard:   onboard,
		Waiting:   v.Waiting,
		Time:      v.Time,
	}, nil
}

func PassengerEventToCore(e model.PassengerEvent) core.PassengerEvent {
	return core.PassengerEvent{
		RunID:       e.RunID,
		Seq:         e.Seq,
		Sweep:       e.Sweep,
		PassengerID: e.PassengerID,
		Floor:       e.Floor,
		Entered:     e.Entered,
		Time:        e.Time,
	}
}

func SweepToCore(s model.Sweep) (core.Sweep, error) {
	dir, err := parseDirection(s.Direction)
	if err != nil {
		return core.Sweep{}, err
	}
	return core.Sweep{
		RunID: s.RunID,
		SweepSummary: core.SweepSummary{
			Number:    s.Number,
			Direction: dir,
			Boarded:   s.Boarded,
			Delivered: s.Delivered,
			Waiting:   s.Waiting,
			PeakLoad:  s.PeakLoad,
		},
		Time: s.Time,
	}, nil
}

func PassengerToCore(p model.Passenger) core.Passenger {
	return core.Passenger{ID: p.PassengerID, Origin: p.Origin, Destination: p.Destination}
}
