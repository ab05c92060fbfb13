// Package motion serializes stage commands and exposes the manual control
// surface. Every positioner call from any part of the application goes
// through the Gate, so a manual step can never interleave with a sweep's
// hardware access mid-command.
package motion

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logging"
)

// Gate wraps the positioner driver with two guarantees: all calls are
// serialized behind one mutex, and motion commands zero the offset voltage
// first (motion and offset voltage are mutually exclusive on the hardware).
//
// The high-level operations swallow hardware faults: they log the fault and
// return normally, so a transient driver error never crashes a control flow.
// GetAxisParams is the documented exception and propagates errors, because
// its callers need to know the query failed.
type Gate struct {
	mu  sync.Mutex
	hw  positioner.Positioner
	log *logrus.Entry
}

// NewGate creates a command gate over the given driver.
func NewGate(hw positioner.Positioner) *Gate {
	return &Gate{hw: hw, log: logging.New("motion")}
}

// swallow runs op and converts a hardware fault into a logged no-op.
func (g *Gate) swallow(what string, op func() error) {
	if err := op(); err != nil {
		g.log.WithError(err).Errorf("%s failed", what)
	}
}

func (g *Gate) zeroOffset(axis positioner.Axis) error {
	return g.hw.SetAxisConfig(axis, positioner.ConfigUpdate{
		OffsetVoltage: positioner.Float(0),
	})
}

// StartJog zeroes the offset voltage and starts continuous motion.
func (g *Gate) StartJog(axis positioner.Axis, dir positioner.Direction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swallow("start jog", func() error {
		if err := g.zeroOffset(axis); err != nil {
			return err
		}
		return g.hw.StartContinuousMotion(axis, dir)
	})
}

// Step zeroes the offset voltage and requests signed discrete steps.
func (g *Gate) Step(axis positioner.Axis, steps int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swallow("step", func() error {
		if err := g.zeroOffset(axis); err != nil {
			return err
		}
		return g.hw.MoveSteps(axis, steps)
	})
}

// Stop halts motion on all axes.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swallow("stop", g.hw.StopAll)
}

// StopAxis halts one axis and zeroes its offset voltage.
func (g *Gate) StopAxis(axis positioner.Axis) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swallow("stop axis", func() error {
		if err := g.hw.StopAxis(axis); err != nil {
			return err
		}
		return g.zeroOffset(axis)
	})
}

// SetAxisParams configures the step voltage and frequency of an axis.
func (g *Gate) SetAxisParams(axis positioner.Axis, volt, freq float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swallow("set axis params", func() error {
		return g.hw.SetAxisConfig(axis, positioner.ConfigUpdate{
			StepVoltage: positioner.Float(volt),
			Frequency:   positioner.Float(freq),
		})
	})
}

// GetAxisParams reads the step voltage and frequency of an axis. Unlike the
// set operations, faults propagate to the caller.
func (g *Gate) GetAxisParams(axis positioner.Axis) (volt, freq float64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	volt, err = g.hw.GetAxisConfig(axis, positioner.ParamStepVoltage)
	if err != nil {
		return 0, 0, err
	}
	freq, err = g.hw.GetAxisConfig(axis, positioner.ParamFrequency)
	if err != nil {
		return 0, 0, err
	}
	return volt, freq, nil
}

// MoveSteps issues a raw step command, serialized but with faults
// propagated: the sweep logic decides how to terminate. Callers must not
// pass zero (the hardware reads it as continuous motion).
func (g *Gate) MoveSteps(axis positioner.Axis, steps int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hw.MoveSteps(axis, steps)
}

// SetOffsetVoltage sets the fine-positioning offset voltage, serialized,
// with faults propagated.
func (g *Gate) SetOffsetVoltage(axis positioner.Axis, volts float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hw.SetAxisConfig(axis, positioner.ConfigUpdate{
		OffsetVoltage: positioner.Float(volts),
	})
}
