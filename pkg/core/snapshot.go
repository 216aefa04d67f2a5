// pkg/core/snapshot.go
package core

import "github.com/tiendc/go-deepcopy"

// FloorView is a read-only copy of a floor and its waiting queue.
type FloorView struct {
	Number  int         `json:"number"`
	Waiting []Passenger `json:"waiting"`
}

// FloorSnapshot describes the car right after a floor visit.
// Previous and Next are nil when there is no neighbouring floor in sweep order.
type FloorSnapshot struct {
	Sweep     int         `json:"sweep"`
	Floor     FloorView   `json:"floor"`
	Onboard   []Passenger `json:"onboard"`
	Previous  *FloorView  `json:"previous,omitempty"`
	Next      *FloorView  `json:"next,omitempty"`
	Direction Direction   `json:"direction"`
}

// SweepSummary holds the totals of one completed sweep.
type SweepSummary struct {
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Boarded   int       `json:"boarded"`
	Delivered int       `json:"delivered"`
	Waiting   int       `json:"waiting"`
	PeakLoad  int       `json:"peakLoad"`
}

// Clone returns a deep copy of the snapshot that shares no memory with s.
func (s FloorSnapshot) Clone() FloorSnapshot {
	var out FloorSnapshot
	if err := deepcopy.Copy(&out, s); err != nil {
		// deepcopy only fails on mismatched types
		panic(err)
	}
	return out
}

// CloneViews returns a deep copy of views.
func CloneViews(views []FloorView) []FloorView {
	if views == nil {
		return nil
	}
	var out []FloorView
	if err := deepcopy.Copy(&out, views); err != nil {
		panic(err)
	}
	return out
}

// TotalWaiting sums the waiting passengers over views.
func TotalWaiting(views []FloorView) int {
	n := 0
	for _, v := range views {
		n += len(v.Waiting)
	}
	return n
}
