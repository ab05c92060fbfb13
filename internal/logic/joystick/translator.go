// Package joystick turns continuous analog stick samples into discrete
// per-axis jog commands. Hardware calls are edge-triggered: a start or stop
// is only issued when the desired direction changes, never per sample.
package joystick

import (
	"math"
	"sync"

	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
)

// Gate is the subset of motion commands the translator issues.
type Gate interface {
	StartJog(axis positioner.Axis, dir positioner.Direction)
	StopAxis(axis positioner.Axis)
}

// Translator owns the per-axis jog state: 0 when stopped, otherwise the
// sign of the direction last commanded to the hardware.
type Translator struct {
	mu   sync.Mutex
	gate Gate

	// deadZone is the stick magnitude below which x/y input is ignored.
	// The comparison is strict, so a sample exactly on the boundary
	// counts as motion.
	deadZone float64
	// sectorRatio defines the axis-locked sectors: with ratio r, |y| > r|x|
	// gives pure-y motion and |x| > r|y| pure-x; anything between moves
	// diagonally.
	sectorRatio float64

	jogX, jogY, jogZ int
}

// New creates a translator issuing commands through the gate. Non-positive
// tuning values fall back to the defaults (dead zone 0.1, ratio 2).
func New(gate Gate, deadZone, sectorRatio float64) *Translator {
	if deadZone <= 0 {
		deadZone = 0.1
	}
	if sectorRatio <= 0 {
		sectorRatio = 2
	}
	return &Translator{
		gate:        gate,
		deadZone:    deadZone,
		sectorRatio: sectorRatio,
	}
}

// HandleSample processes one stick reading: z jog from the right stick's
// vertical axis, x/y jog from the left stick.
func (t *Translator) HandleSample(s gamepad.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateZ(s.YRight)
	t.updateXY(s.XLeft, s.YLeft)
}

func (t *Translator) updateZ(z float64) {
	if z == 0 {
		if t.jogZ != 0 {
			t.gate.StopAxis(positioner.AxisZ)
			t.jogZ = 0
		}
		return
	}
	if d := sign(z); d != t.jogZ {
		t.gate.StartJog(positioner.AxisZ, positioner.Direction(d))
		t.jogZ = d
	}
}

func (t *Translator) updateXY(x, y float64) {
	requiredX, requiredY := 0, 0

	switch {
	case math.Hypot(x, y) < t.deadZone:
		// Circular dead zone, no motion.
	case math.Abs(y) > t.sectorRatio*math.Abs(x):
		requiredY = sign(y)
	case math.Abs(x) > t.sectorRatio*math.Abs(y):
		requiredX = sign(x)
	default:
		// Diagonal sector: each nonzero axis moves.
		requiredX = sign(x)
		requiredY = sign(y)
	}

	if requiredX == 0 && t.jogX != 0 {
		t.gate.StopAxis(positioner.AxisX)
		t.jogX = 0
	}
	if requiredY == 0 && t.jogY != 0 {
		t.gate.StopAxis(positioner.AxisY)
		t.jogY = 0
	}
	if requiredY != 0 && requiredY != t.jogY {
		t.gate.StartJog(positioner.AxisY, positioner.Direction(requiredY))
		t.jogY = requiredY
	}
	if requiredX != 0 && requiredX != t.jogX {
		t.gate.StartJog(positioner.AxisX, positioner.Direction(requiredX))
		t.jogX = requiredX
	}
}

// JogState returns the direction last commanded for an axis, 0 when
// stopped.
func (t *Translator) JogState(axis positioner.Axis) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch axis {
	case positioner.AxisX:
		return t.jogX
	case positioner.AxisY:
		return t.jogY
	case positioner.AxisZ:
		return t.jogZ
	}
	return 0
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
