package positioner

import (
	"errors"
	"fmt"
)

// Axis identifies one axis of the positioner.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Valid reports whether a is one of the known axes.
func (a Axis) Valid() bool {
	return a == AxisX || a == AxisY || a == AxisZ
}

// Direction of continuous motion along an axis.
type Direction int

const (
	Negative Direction = -1
	Positive Direction = 1
)

// Param names a readable axis parameter.
type Param string

const (
	ParamStepVoltage   Param = "step_voltage"
	ParamFrequency     Param = "frequency"
	ParamOffsetVoltage Param = "offset_voltage"
)

// ConfigUpdate carries the axis parameters to change in one call.
// Nil fields are left untouched.
type ConfigUpdate struct {
	OffsetVoltage *float64
	StepVoltage   *float64
	Frequency     *float64
}

// Float builds a pointer for ConfigUpdate literals.
func Float(v float64) *float64 { return &v }

// Positioner is the abstract interface to the stage hardware driver.
// Offset voltage and active stepping are mutually exclusive on the
// controller; callers are expected to zero the offset voltage before
// issuing motion commands.
type Positioner interface {
	// MoveSteps requests a number of discrete steps; the sign encodes
	// the direction. A zero count must not be sent to the hardware: the
	// controller interprets it as continuous motion.
	MoveSteps(axis Axis, steps int) error

	// StartContinuousMotion jogs the axis until it is stopped.
	StartContinuousMotion(axis Axis, dir Direction) error

	StopAxis(axis Axis) error
	StopAll() error

	SetAxisConfig(axis Axis, upd ConfigUpdate) error
	GetAxisConfig(axis Axis, param Param) (float64, error)
}

// Fault is a transient hardware error reported by the positioner driver.
// Control flows treat it as recoverable: manual operations log it and carry
// on, sweeps terminate cleanly.
type Fault struct {
	Op   string
	Axis Axis
	Err  error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("positioner %s %s: %v", f.Axis, f.Op, f.Err)
	}
	return fmt.Sprintf("positioner %s %s failed", f.Axis, f.Op)
}

func (f *Fault) Unwrap() error { return f.Err }

// IsFault reports whether err is (or wraps) a hardware fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// ErrUnknownAxis is returned for axes outside {x, y, z}.
var ErrUnknownAxis = errors.New("unknown axis")

// ErrUnknownParam is returned for parameters the driver does not expose.
var ErrUnknownParam = errors.New("unknown axis parameter")
