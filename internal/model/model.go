package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table of the trace schema.
var DatabaseModels = []interface{}{
	&Run{},
	&Passenger{},
	&Visit{},
	&PassengerEvent{},
	&Sweep{},
}

////////////////////////
// RUN MODELS
////////////////////////

// Run is one simulation from building generation to the last sweep.
type Run struct {
	gorm.Model
	// Seed is kept as text; postgres has no unsigned 64-bit column type.
	Seed            string    `json:"seed" gorm:"size:20;index:idx_run_seed"`
	FloorCount      int       `json:"floorCount"`
	Capacity        int       `json:"capacity"`
	Passengers      int       `json:"passengers"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Sweeps          int       `json:"sweeps"`
	Delivered       int       `json:"delivered"`
	FloorsTravelled int       `json:"floorsTravelled"`
	// Trajectory is the car path as WKT, X = visit step, Y = floor.
	Trajectory string `json:"trajectory"`
}

func (*Run) TableName() string {
	return "runs"
}

// Passenger is the generated population of a run.
type Passenger struct {
	ID          uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID       uint   `json:"runId" gorm:"index:idx_passenger_run_id"`
	Run         Run    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	PassengerID int    `json:"passengerId"`
	Origin      int    `json:"origin"`
	Destination int    `json:"destination"`
	Direction   string `json:"direction" gorm:"size:4"`
}

func (*Passenger) TableName() string {
	return "passengers"
}

// Visit is the car leaving a floor with passengers aboard.
type Visit struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time      `json:"time" gorm:"index:idx_visit_time"`
	RunID     uint           `json:"runId" gorm:"index:idx_visit_run_id"`
	Run       Run            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Seq       int            `json:"seq"`
	Sweep     int            `json:"sweep"`
	Floor     int            `json:"floor"`
	Direction string         `json:"direction" gorm:"size:4"`
	Onboard   datatypes.JSON `json:"onboard"`
	Waiting   int            `json:"waiting"`
}

func (*Visit) TableName() string {
	return "visits"
}

// PassengerEvent is a passenger entering or leaving the car.
type PassengerEvent struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time" gorm:"index:idx_passenger_event_time"`
	RunID       uint      `json:"runId" gorm:"index:idx_passenger_event_run_id"`
	Run         Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Seq         int       `json:"seq"`
	Sweep       int       `json:"sweep"`
	PassengerID int       `json:"passengerId"`
	Floor       int       `json:"floor"`
	Entered     bool      `json:"entered"`
}

func (*PassengerEvent) TableName() string {
	return "passenger_events"
}

// Sweep holds the totals of one pass over the building.
type Sweep struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	RunID     uint      `json:"runId" gorm:"index:idx_sweep_run_id"`
	Run       Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Number    int       `json:"number"`
	Direction string    `json:"direction" gorm:"size:4"`
	Boarded   int       `json:"boarded"`
	Delivered int       `json:"delivered"`
	Waiting   int       `json:"waiting"`
	PeakLoad  int       `json:"peakLoad"`
}

func (*Sweep) TableName() string {
	return "sweeps"
}
