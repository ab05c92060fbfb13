package counter

import (
	"math"
	"sync"

	"github.com/cjeanneret/attogo/internal/hw/positioner"
)

// StagePosition exposes the z state of the simulated stage to the feed.
type StagePosition interface {
	Position(axis positioner.Axis) int
	OffsetVoltage(axis positioner.Axis) float64
}

// Sim produces a Gaussian count profile around a configurable focus
// position, so a sweep run against the simulated stage has a real optimum
// to find.
type Sim struct {
	mu    sync.Mutex
	state State
	stage StagePosition

	// FocusSteps is the z step position of best focus.
	FocusSteps float64
	// FocusWidth is the Gaussian sigma in steps.
	FocusWidth float64
	// PeakCounts is the count rate at perfect focus.
	PeakCounts float64
	// StepsPerVolt converts offset voltage into effective z displacement.
	StepsPerVolt float64
}

// NewSim creates a simulated feed reading the given stage.
func NewSim(stage StagePosition) *Sim {
	return &Sim{
		stage:        stage,
		FocusWidth:   3,
		PeakCounts:   100000,
		StepsPerVolt: 0.02,
	}
}

func (s *Sim) StartCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Active
}

func (s *Sim) StopCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

func (s *Sim) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sim) LatestSmoothedSample() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := float64(s.stage.Position(positioner.AxisZ)) +
		s.StepsPerVolt*s.stage.OffsetVoltage(positioner.AxisZ)
	d := (z - s.FocusSteps) / s.FocusWidth
	return s.PeakCounts * math.Exp(-d*d/2)
}
