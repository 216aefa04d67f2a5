// Package storage defines the contract between the run recorder and the
// trace persistence backends.
package storage

import "github.com/liftsim/liftsim/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management. StartRun assigns run.ID.
	StartRun(run *core.Run) error
	EndRun(run *core.Run) error

	// Trace recording
	RecordPassengers(ps []core.Passenger) error
	RecordVisit(v *core.Visit) error
	RecordPassengerEvent(e *core.PassengerEvent) error
	RecordSweep(s *core.Sweep) error
}

// Exportable is an optional interface for backends that write the finished
// run to a file.
type Exportable interface {
	ExportedFilePath() string
}
