package positioner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_MoveSteps(t *testing.T) {
	s := NewSim()

	require.NoError(t, s.MoveSteps(AxisZ, 5))
	require.NoError(t, s.MoveSteps(AxisZ, -2))

	assert.Equal(t, 3, s.Position(AxisZ))
	assert.Equal(t, 0, s.Position(AxisX))
}

func TestSim_JogAndStop(t *testing.T) {
	s := NewSim()

	require.NoError(t, s.StartContinuousMotion(AxisX, Positive))
	assert.Equal(t, Positive, s.Jogging(AxisX))

	require.NoError(t, s.StopAxis(AxisX))
	assert.Equal(t, Direction(0), s.Jogging(AxisX))

	require.NoError(t, s.StartContinuousMotion(AxisX, Negative))
	require.NoError(t, s.StartContinuousMotion(AxisY, Positive))
	require.NoError(t, s.StopAll())
	assert.Equal(t, Direction(0), s.Jogging(AxisX))
	assert.Equal(t, Direction(0), s.Jogging(AxisY))
}

func TestSim_AxisConfig(t *testing.T) {
	s := NewSim()

	err := s.SetAxisConfig(AxisZ, ConfigUpdate{
		OffsetVoltage: Float(12),
		StepVoltage:   Float(25),
	})
	require.NoError(t, err)

	offset, err := s.GetAxisConfig(AxisZ, ParamOffsetVoltage)
	require.NoError(t, err)
	assert.Equal(t, 12.0, offset)

	volt, err := s.GetAxisConfig(AxisZ, ParamStepVoltage)
	require.NoError(t, err)
	assert.Equal(t, 25.0, volt)

	// Frequency untouched by the partial update.
	freq, err := s.GetAxisConfig(AxisZ, ParamFrequency)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, freq)
}

func TestSim_UnknownAxisAndParam(t *testing.T) {
	s := NewSim()

	err := s.MoveSteps(Axis("w"), 1)
	require.ErrorIs(t, err, ErrUnknownAxis)

	_, err = s.GetAxisConfig(AxisX, Param("acceleration"))
	require.ErrorIs(t, err, ErrUnknownParam)
}

func TestSim_FaultInjection(t *testing.T) {
	s := NewSim()
	s.Fail("move", true)

	err := s.MoveSteps(AxisZ, 1)
	require.Error(t, err)
	assert.True(t, IsFault(err))
	assert.Equal(t, 0, s.Position(AxisZ))

	s.Fail("move", false)
	require.NoError(t, s.MoveSteps(AxisZ, 1))
	assert.Equal(t, 1, s.Position(AxisZ))
}
