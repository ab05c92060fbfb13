// Package optimise implements the closed-loop focus search: a timer-driven
// sweep of the z axis (coarse steps, then optionally fine offset voltage)
// that samples the count feed at each position and returns the stage to the
// best-count point.
package optimise

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/attogo/internal/hw/counter"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logging"
)

// Hardware is the subset of the command gate the optimiser drives. Faults
// propagate here: the sweep decides whether they are fatal.
type Hardware interface {
	MoveSteps(axis positioner.Axis, steps int) error
	SetOffsetVoltage(axis positioner.Axis, volts float64) error
}

// Observer receives optimisation progress notifications. Callbacks run on
// the sweep's tick path and must not call back into the Optimiser.
type Observer interface {
	// SampleUpdated fires after each recorded sample, with a copy of the
	// sample sequence so far.
	SampleUpdated(sessionID string, counts []float64)
	// OptimisationDone fires once when a sweep finishes normally. It does
	// not fire for aborted or fault-terminated sweeps.
	OptimisationDone(sessionID string)
}

// Optimiser runs one sweep at a time. The wait between samples is a
// re-armed timer, never a blocking sleep, so manual commands and the abort
// request can take the lock between ticks.
type Optimiser struct {
	mu   sync.Mutex
	hw   Hardware
	feed counter.Feed
	log  *logrus.Entry

	// baseInterval is the sampling period; the feed gets a 4x interval to
	// spin up before the first sample.
	baseInterval time.Duration

	observers []Observer
	session   *session

	// after schedules a tick callback. Tests replace it to drive the
	// state machine manually.
	after func(d time.Duration, fn func()) *time.Timer
}

// session is the transient state of one optimisation run. It is discarded
// when the sweep completes, aborts or hits a fatal fault.
type session struct {
	id          string
	stepLength  int
	voltLength  int
	currentStep int
	currentVolt int
	counts      []float64
	abort       bool
}

// New creates an optimiser over the command gate and count feed.
func New(hw Hardware, feed counter.Feed, baseInterval time.Duration) *Optimiser {
	return &Optimiser{
		hw:           hw,
		feed:         feed,
		log:          logging.New("optimise"),
		baseInterval: baseInterval,
		after:        time.AfterFunc,
	}
}

// AddObserver registers a progress observer.
func (o *Optimiser) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Running reports whether a sweep is in progress.
func (o *Optimiser) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session != nil
}

// Optimise starts a focus search around the current z position: a step
// sweep of 2*stepCount+1 samples when stepCount > 0, otherwise a voltage
// sweep of voltCount samples when voltCount > 0. With stepCount > 0 and
// voltCount > 0 the voltage sweep chains after the step sweep. Both zero is
// a no-op.
func (o *Optimiser) Optimise(stepCount, voltCount int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := &session{
		id:         uuid.NewString(),
		stepLength: stepCount,
		voltLength: voltCount,
	}
	o.session = s

	switch {
	case stepCount > 0:
		o.startStepSweep(s)
	case voltCount > 0:
		o.startVoltSweep(s)
	default:
		o.session = nil
	}
}

// Abort requests cooperative cancellation. The flag is checked at the top
// of every sampling tick, so a hardware call already in flight completes
// before the sweep terminates.
func (o *Optimiser) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		o.session.abort = true
	}
}

// startStepSweep moves to the negative edge of the search range and starts
// the sampling loop. Called with the lock held.
func (o *Optimiser) startStepSweep(s *session) {
	s.currentStep = -s.stepLength
	s.counts = nil

	log := o.log.WithField("session", s.id)

	// Stepping and offset voltage are mutually exclusive.
	if err := o.hw.SetOffsetVoltage(positioner.AxisZ, 0); err != nil {
		log.WithError(err).Error("aborting sweep due to hardware error")
		o.session = nil
		return
	}
	if err := o.hw.MoveSteps(positioner.AxisZ, s.currentStep); err != nil {
		log.WithError(err).Error("aborting sweep due to hardware error")
		o.session = nil
		return
	}

	o.feed.StartCount()

	// First delay is 4x as long so the counter has extra time to start.
	o.after(4*o.baseInterval, func() { o.stepTick(s) })
}

// stepTick records one sample of the step sweep and either advances the
// stage or relocates it to the best sample.
func (o *Optimiser) stepTick(s *session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s != o.session {
		return // stale timer from a superseded sweep
	}
	log := o.log.WithField("session", s.id)

	if s.abort {
		o.feed.StopCount()
		o.session = nil
		return
	}
	if o.feed.State() != counter.Active {
		log.Error("sweep aborted: counter unexpectedly stopped")
		o.session = nil
		return
	}

	s.counts = append(s.counts, o.feed.LatestSmoothedSample())
	o.notifySample(s)

	if s.currentStep < s.stepLength {
		if err := o.hw.MoveSteps(positioner.AxisZ, 1); err != nil {
			log.WithError(err).Error("aborting sweep due to hardware error")
			o.feed.StopCount()
			o.session = nil
			return
		}
		s.currentStep++
		o.after(o.baseInterval, func() { o.stepTick(s) })
		return
	}

	// End of sweep: find the best sample and move back to it.
	maxIndex := argmax(s.counts)
	back := 2*s.stepLength - maxIndex
	log.Debugf("optimum at %d steps from current position", back)

	if back > 0 {
		// A zero step count must never be sent: the controller reads
		// it as continuous motion.
		if err := o.hw.MoveSteps(positioner.AxisZ, -back); err != nil {
			log.WithError(err).Error("could not return stage to optimum position")
		}
	}

	if s.voltLength > 0 {
		o.after(4*o.baseInterval, func() { o.chainVoltSweep(s) })
		return
	}

	o.session = nil
	o.notifyDone(s)
}

// chainVoltSweep enters the fine sweep after the step sweep has settled.
func (o *Optimiser) chainVoltSweep(s *session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s != o.session {
		return
	}
	o.startVoltSweep(s)
}

// startVoltSweep backs the stage off and starts the fine offset-voltage
// sampling loop. Called with the lock held.
func (o *Optimiser) startVoltSweep(s *session) {
	s.currentVolt = 0
	s.counts = nil

	log := o.log.WithField("session", s.id)

	// Move back one step plus one per 20 V of sweep range, so the voltage
	// ramp scans across the coarse optimum.
	back := s.voltLength/20 + 1
	log.Debugf("moving %d steps back", back)
	if err := o.hw.MoveSteps(positioner.AxisZ, -back); err != nil {
		log.WithError(err).Error("aborting sweep due to hardware error")
		o.session = nil
		return
	}

	o.feed.StartCount()
	o.after(4*o.baseInterval, func() { o.voltTick(s) })
}

// voltTick records one sample of the voltage sweep and either raises the
// offset voltage or sets it to the best sample's index.
func (o *Optimiser) voltTick(s *session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s != o.session {
		return
	}
	log := o.log.WithField("session", s.id)

	if s.abort {
		o.feed.StopCount()
		o.session = nil
		return
	}
	if o.feed.State() != counter.Active {
		log.Error("sweep aborted: counter unexpectedly stopped")
		o.session = nil
		return
	}

	s.counts = append(s.counts, o.feed.LatestSmoothedSample())
	o.notifySample(s)

	if s.currentVolt < s.voltLength {
		if err := o.hw.SetOffsetVoltage(positioner.AxisZ, float64(s.currentVolt)); err != nil {
			log.WithError(err).Error("aborting sweep due to hardware error")
			o.feed.StopCount()
			o.session = nil
			return
		}
		s.currentVolt++
		o.after(o.baseInterval, func() { o.voltTick(s) })
		return
	}

	// The index of the best sample equals the offset voltage it was
	// recorded at.
	maxIndex := argmax(s.counts)
	log.Debugf("optimum at %d volts", maxIndex)
	if err := o.hw.SetOffsetVoltage(positioner.AxisZ, float64(maxIndex)); err != nil {
		log.WithError(err).Error("could not return stage to optimum position")
	}

	o.session = nil
	o.notifyDone(s)
}

func (o *Optimiser) notifySample(s *session) {
	counts := make([]float64, len(s.counts))
	copy(counts, s.counts)
	for _, obs := range o.observers {
		obs.SampleUpdated(s.id, counts)
	}
}

func (o *Optimiser) notifyDone(s *session) {
	for _, obs := range o.observers {
		obs.OptimisationDone(s.id)
	}
}

// argmax returns the index of the maximum value; the first occurrence wins
// on ties.
func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}
