// pkg/core/trace.go
package core

import "time"

// Run is the persisted description of one simulation run.
type Run struct {
	ID              uint      `json:"id"`
	Seed            uint64    `json:"seed"`
	FloorCount      int       `json:"floorCount"`
	Capacity        int       `json:"capacity"`
	Passengers      int       `json:"passengers"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Sweeps          int       `json:"sweeps"`
	Delivered       int       `json:"delivered"`
	FloorsTravelled int       `json:"floorsTravelled"`
	Trajectory      string    `json:"trajectory"` // WKT line string of the car path
}

// Visit is one recorded floor visit with a non-empty car.
type Visit struct {
	RunID     uint      `json:"runId"`
	Seq       int       `json:"seq"`
	Sweep     int       `json:"sweep"`
	Floor     int       `json:"floor"`
	Direction Direction `json:"direction"`
	Onboard   []int     `json:"onboard"`
	Waiting   int       `json:"waiting"`
	Time      time.Time `json:"time"`
}

// PassengerEvent records a passenger entering or leaving the car.
type PassengerEvent struct {
	RunID       uint      `json:"runId"`
	Seq         int       `json:"seq"`
	Sweep       int       `json:"sweep"`
	PassengerID int       `json:"passengerId"`
	Floor       int       `json:"floor"`
	Entered     bool      `json:"entered"`
	Time        time.Time `json:"time"`
}

// Sweep records the totals of one sweep.
type Sweep struct {
	RunID uint `json:"runId"`
	SweepSummary
	Time time.Time `json:"time"`
}
