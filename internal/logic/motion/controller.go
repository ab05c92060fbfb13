package motion

import (
	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
)

// Controller is the manual control surface: discrete steps, jogs and stops
// that a user can issue at any time, including while an optimisation sweep
// is running. Everything routes through the Gate, which keeps concurrent
// hardware access serialized.
type Controller struct {
	gate *Gate
}

// NewController creates the manual surface over the command gate.
func NewController(gate *Gate) *Controller {
	return &Controller{gate: gate}
}

func (c *Controller) Step(axis positioner.Axis, steps int) {
	c.gate.Step(axis, steps)
}

func (c *Controller) StartJog(axis positioner.Axis, dir positioner.Direction) {
	c.gate.StartJog(axis, dir)
}

func (c *Controller) Stop() {
	c.gate.Stop()
}

func (c *Controller) StopAxis(axis positioner.Axis) {
	c.gate.StopAxis(axis)
}

func (c *Controller) SetAxisParams(axis positioner.Axis, volt, freq float64) {
	c.gate.SetAxisParams(axis, volt, freq)
}

func (c *Controller) GetAxisParams(axis positioner.Axis) (volt, freq float64, err error) {
	return c.gate.GetAxisParams(axis)
}

// HandleButton maps pad buttons to single-step and stop commands:
// d-pad clicks x/y one step, shoulders click z, B stops everything.
func (c *Controller) HandleButton(b gamepad.Button) {
	switch b {
	case gamepad.ButtonDPadDown:
		c.Step(positioner.AxisY, -1)
	case gamepad.ButtonDPadUp:
		c.Step(positioner.AxisY, 1)
	case gamepad.ButtonDPadLeft:
		c.Step(positioner.AxisX, -1)
	case gamepad.ButtonDPadRight:
		c.Step(positioner.AxisX, 1)
	case gamepad.ButtonB:
		c.Stop()
	case gamepad.ButtonLeftShoulder:
		c.Step(positioner.AxisZ, -1)
	case gamepad.ButtonRightShoulder:
		c.Step(positioner.AxisZ, 1)
	}
}
