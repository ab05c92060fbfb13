// Package gamepad defines the controller input source: named button presses
// and analog stick samples, delivered as discrete events over channels.
package gamepad

// Button names follow the physical pad layout: d-pad on the left cluster,
// shoulders on top, B on the right cluster.
type Button string

const (
	ButtonDPadUp        Button = "left_up"
	ButtonDPadDown      Button = "left_down"
	ButtonDPadLeft      Button = "left_left"
	ButtonDPadRight     Button = "left_right"
	ButtonB             Button = "right_right"
	ButtonLeftShoulder  Button = "left_shoulder"
	ButtonRightShoulder Button = "right_shoulder"
)

// Sample is one reading of both analog sticks. Each axis is normalized to
// [-1, 1]; the right stick only contributes its vertical axis.
type Sample struct {
	XLeft  float64 `json:"x_left"`
	YLeft  float64 `json:"y_left"`
	YRight float64 `json:"y_right"`
}

// Source delivers controller input as discrete events.
type Source interface {
	Buttons() <-chan Button
	Samples() <-chan Sample
}

// Virtual is a Source fed programmatically, e.g. from the web control
// surface. Events are dropped rather than blocking when the consumer
// falls behind.
type Virtual struct {
	buttons chan Button
	samples chan Sample
}

// NewVirtual creates a virtual controller with buffered event channels.
func NewVirtual() *Virtual {
	return &Virtual{
		buttons: make(chan Button, 16),
		samples: make(chan Sample, 16),
	}
}

func (v *Virtual) Buttons() <-chan Button { return v.buttons }
func (v *Virtual) Samples() <-chan Sample { return v.samples }

// Press injects a button press.
func (v *Virtual) Press(b Button) {
	select {
	case v.buttons <- b:
	default:
	}
}

// Move injects a stick sample.
func (v *Virtual) Move(s Sample) {
	select {
	case v.samples <- s:
	default:
	}
}
