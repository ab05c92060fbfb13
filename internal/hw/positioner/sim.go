package positioner

import (
	"fmt"
	"sync"
)

// Sim is an in-memory positioner for development away from the instrument
// and for tests. It tracks per-axis step position, offset voltage and motion
// state, and can inject faults per operation.
type Sim struct {
	mu      sync.Mutex
	axes    map[Axis]*simAxis
	failing map[string]bool
}

type simAxis struct {
	position    int
	offsetVolts float64
	stepVolts   float64
	frequency   float64
	jogging     Direction // 0 when stopped
}

// NewSim creates a simulated positioner with all three axes at position 0.
func NewSim() *Sim {
	axes := make(map[Axis]*simAxis)
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		axes[a] = &simAxis{stepVolts: 30, frequency: 1000}
	}
	return &Sim{
		axes:    axes,
		failing: make(map[string]bool),
	}
}

// Fail toggles a persistent fault for the named operation
// ("move", "jog", "stop", "set", "get").
func (s *Sim) Fail(op string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[op] = on
}

func (s *Sim) axis(a Axis) (*simAxis, error) {
	ax, ok := s.axes[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAxis, a)
	}
	return ax, nil
}

func (s *Sim) fault(op string, a Axis) error {
	if s.failing[op] {
		return &Fault{Op: op, Axis: a, Err: fmt.Errorf("injected %s fault", op)}
	}
	return nil
}

func (s *Sim) MoveSteps(axis Axis, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ax, err := s.axis(axis)
	if err != nil {
		return err
	}
	if err := s.fault("move", axis); err != nil {
		return err
	}
	ax.position += steps
	return nil
}

func (s *Sim) StartContinuousMotion(axis Axis, dir Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ax, err := s.axis(axis)
	if err != nil {
		return err
	}
	if err := s.fault("jog", axis); err != nil {
		return err
	}
	ax.jogging = dir
	return nil
}

func (s *Sim) StopAxis(axis Axis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ax, err := s.axis(axis)
	if err != nil {
		return err
	}
	if err := s.fault("stop", axis); err != nil {
		return err
	}
	ax.jogging = 0
	return nil
}

func (s *Sim) StopAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("stop", ""); err != nil {
		return err
	}
	for _, ax := range s.axes {
		ax.jogging = 0
	}
	return nil
}

func (s *Sim) SetAxisConfig(axis Axis, upd ConfigUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ax, err := s.axis(axis)
	if err != nil {
		return err
	}
	if err := s.fault("set", axis); err != nil {
		return err
	}
	if upd.OffsetVoltage != nil {
		ax.offsetVolts = *upd.OffsetVoltage
	}
	if upd.StepVoltage != nil {
		ax.stepVolts = *upd.StepVoltage
	}
	if upd.Frequency != nil {
		ax.frequency = *upd.Frequency
	}
	return nil
}

func (s *Sim) GetAxisConfig(axis Axis, param Param) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ax, err := s.axis(axis)
	if err != nil {
		return 0, err
	}
	if err := s.fault("get", axis); err != nil {
		return 0, err
	}
	switch param {
	case ParamStepVoltage:
		return ax.stepVolts, nil
	case ParamFrequency:
		return ax.frequency, nil
	case ParamOffsetVoltage:
		return ax.offsetVolts, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, param)
}

// Position returns the accumulated step position of an axis.
func (s *Sim) Position(axis Axis) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ax, ok := s.axes[axis]; ok {
		return ax.position
	}
	return 0
}

// OffsetVoltage returns the current offset voltage of an axis.
func (s *Sim) OffsetVoltage(axis Axis) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ax, ok := s.axes[axis]; ok {
		return ax.offsetVolts
	}
	return 0
}

// Jogging returns the current continuous-motion direction, 0 when stopped.
func (s *Sim) Jogging(axis Axis) Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ax, ok := s.axes[axis]; ok {
		return ax.jogging
	}
	return 0
}
