// Package convert maps core trace records onto GORM models and back.
package convert

import (
	"encoding/json"
	"strconv"

	"github.com/liftsim/liftsim/internal/model"
	"github.com/liftsim/liftsim/pkg/core"
	"gorm.io/datatypes"
)

// idsToJSON converts passenger ids to datatypes.JSON for DB storage.
func idsToJSON(ids []int) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(ids)
	return datatypes.JSON(data)
}

// CoreToRun converts a core.Run to a GORM Run. ID is carried over so an
// update after the run finishes hits the same row.
func CoreToRun(r core.Run) model.Run {
	out := model.Run{
		Seed:            strconv.FormatUint(r.Seed, 10),
		FloorCount:      r.FloorCount,
		Capacity:        r.Capacity,
		Passengers:      r.Passengers,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Sweeps:          r.Sweeps,
		Delivered:       r.Delivered,
		FloorsTravelled: r.FloorsTravelled,
		Trajectory:      r.Trajectory,
	}
	out.ID = r.ID
	return out
}

func CoreToPassenger(runID uint, p core.Passenger) model.Passenger {
	return model.Passenger{
		RunID:       runID,
		PassengerID: p.ID,
		Origin:      p.Origin,
		Destination: p.Destination,
		Direction:   p.Direction().String(),
	}
}

func CoreToVisit(v core.Visit) model.Visit {
	return model.Visit{
		Time:      v.Time,
		RunID:     v.RunID,
		Seq:       v.Seq,
		Sweep:     v.Sweep,
		Floor:     v.Floor,
		Direction: v.Direction.String(),
		Onboard:   idsToJSON(v.Onboard),
		Waiting:   v.Waiting,
	}
}

func CoreToPassengerEvent(e core.PassengerEvent) model.PassengerEvent {
	return model.PassengerEvent{
		Time:        e.Time,
		RunID:       e.RunID,
		Seq:         e.Seq,
		Sweep:       e.Sweep,
		PassengerID: e.PassengerID,
		Floor:       e.Floor,
		Entered:     e.Entered,
	}
}

func CoreToSweep(s core.Sweep) model.Sweep {
	return model.Sweep{
		Time:      s.Time,
		RunID:     s.RunID,
		Number:    s.Number,
		Direction: s.Direction.String(),
		Boarded:   s.Boarded,
		Delivered: s.Delivered,
		Waiting:   s.Waiting,
		PeakLoad:  s.PeakLoad,
	}
}
