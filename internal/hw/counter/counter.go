// Package counter abstracts the photon-count acquisition service: a feed of
// smoothed count-rate samples with an idle/active state.
package counter

// State of the acquisition feed.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Feed is the interface used by the optimisation logic. The real
// implementation lives in the acquisition service; Sim backs the demo
// binary and tests.
type Feed interface {
	StartCount()
	StopCount()
	State() State

	// LatestSmoothedSample returns the most recent smoothed count-rate
	// reading. Only meaningful while the feed is active.
	LatestSmoothedSample() float64
}
