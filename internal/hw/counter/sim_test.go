package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/attogo/internal/hw/positioner"
)

func TestSim_StateTransitions(t *testing.T) {
	feed := NewSim(positioner.NewSim())

	assert.Equal(t, Idle, feed.State())
	feed.StartCount()
	assert.Equal(t, Active, feed.State())
	feed.StopCount()
	assert.Equal(t, Idle, feed.State())
}

func TestSim_CountsPeakAtFocus(t *testing.T) {
	stage := positioner.NewSim()
	feed := NewSim(stage)
	feed.FocusSteps = 4

	var counts []float64
	for z := 0; z <= 8; z++ {
		require.NoError(t, stage.MoveSteps(positioner.AxisZ, 1))
		counts = append(counts, feed.LatestSmoothedSample())
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	// z runs 1..9, so the peak at z=4 lands at index 3.
	assert.Equal(t, 3, best)
	assert.InDelta(t, feed.PeakCounts, counts[best], 1e-9)
}

func TestSim_OffsetVoltageShiftsFocus(t *testing.T) {
	stage := positioner.NewSim()
	feed := NewSim(stage)
	feed.FocusSteps = 1
	feed.StepsPerVolt = 0.02

	require.NoError(t, stage.MoveSteps(positioner.AxisZ, 1))
	atFocus := feed.LatestSmoothedSample()

	err := stage.SetAxisConfig(positioner.AxisZ, positioner.ConfigUpdate{
		OffsetVoltage: positioner.Float(30),
	})
	require.NoError(t, err)

	assert.Less(t, feed.LatestSmoothedSample(), atFocus)
}
