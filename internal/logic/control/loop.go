// Package control routes controller input events to the manual surface and
// the joystick translator. Events are consumed one at a time by a single
// goroutine, so button handling never races a stick sample.
package control

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/logging"
)

// ButtonHandler reacts to discrete button presses.
type ButtonHandler interface {
	HandleButton(b gamepad.Button)
}

// SampleHandler reacts to analog stick samples.
type SampleHandler interface {
	HandleSample(s gamepad.Sample)
}

// Loop dispatches gamepad events until its context is cancelled.
type Loop struct {
	src     gamepad.Source
	buttons ButtonHandler
	samples SampleHandler
	log     *logrus.Entry
}

// New creates an input loop over the given source and handlers.
func New(src gamepad.Source, buttons ButtonHandler, samples SampleHandler) *Loop {
	return &Loop{
		src:     src,
		buttons: buttons,
		samples: samples,
		log:     logging.New("control"),
	}
}

// Run blocks, dispatching events, until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info("input loop started")
	defer l.log.Info("input loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-l.src.Buttons():
			l.buttons.HandleButton(b)
		case s := <-l.src.Samples():
			l.samples.HandleSample(s)
		}
	}
}
