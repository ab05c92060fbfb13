package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logic/motion"
)

type fakeOptimiser struct {
	optimiseCalls [][2]int
	abortCalls    int
	running       bool
}

func (f *fakeOptimiser) Optimise(steps, volts int) {
	f.optimiseCalls = append(f.optimiseCalls, [2]int{steps, volts})
}

func (f *fakeOptimiser) Abort()        { f.abortCalls++ }
func (f *fakeOptimiser) Running() bool { return f.running }

type testEnv struct {
	mux   http.Handler
	opt   *fakeOptimiser
	stage *positioner.Sim
	pad   *gamepad.Virtual
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stage := positioner.NewSim()
	opt := &fakeOptimiser{}
	pad := gamepad.NewVirtual()
	surface := motion.NewController(motion.NewGate(stage))
	h := NewHandlers(NewBroadcaster(), opt, surface, pad, Defaults{Steps: 10, Volts: 50})
	return &testEnv{
		mux:   NewServer(":0", h).Mux(),
		opt:   opt,
		stage: stage,
		pad:   pad,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func TestHandleOptimise(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/optimise", `{"steps": 5, "volts": 20}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, [][2]int{{5, 20}}, e.opt.optimiseCalls)
}

func TestHandleOptimise_Validation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/optimise", `{"steps": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, "POST", "/optimise", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.opt.optimiseCalls)
}

func TestHandleOptimise_Conflict(t *testing.T) {
	e := newTestEnv(t)
	e.opt.running = true

	w := e.do(t, "POST", "/optimise", `{"steps": 5}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, e.opt.optimiseCalls)
}

func TestHandleAbort(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/optimise/abort", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, e.opt.abortCalls)
}

func TestHandleStep(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/step", `{"axis": "x", "steps": -3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -3, e.stage.Position(positioner.AxisX))
}

func TestHandleStep_RejectsZeroAndBadAxis(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/step", `{"axis": "x", "steps": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, "POST", "/step", `{"axis": "w", "steps": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleJogAndStop(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/jog", `{"axis": "z", "direction": -1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, positioner.Negative, e.stage.Jogging(positioner.AxisZ))

	w = e.do(t, "POST", "/stop", `{"axis": "z"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, positioner.Direction(0), e.stage.Jogging(positioner.AxisZ))
}

func TestHandleStop_AllAxes(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/jog", `{"axis": "x", "direction": 1}`)
	e.do(t, "POST", "/jog", `{"axis": "y", "direction": 1}`)

	w := e.do(t, "POST", "/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, positioner.Direction(0), e.stage.Jogging(positioner.AxisX))
	assert.Equal(t, positioner.Direction(0), e.stage.Jogging(positioner.AxisY))
}

func TestHandleJog_BadDirection(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/jog", `{"axis": "z", "direction": 2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAxisParams_RoundTrip(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/axis/z/params", `{"step_voltage": 22, "frequency": 700}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/axis/z/params", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"step_voltage": 22, "frequency": 700}`, w.Body.String())
}

func TestGetAxisParams_FaultPropagates(t *testing.T) {
	e := newTestEnv(t)
	e.stage.Fail("get", true)

	w := e.do(t, "GET", "/axis/z/params", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGamepadInjection(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/gamepad/button", `{"button": "right_right"}`)
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case b := <-e.pad.Buttons():
		assert.Equal(t, gamepad.ButtonB, b)
	default:
		t.Fatal("button event not queued")
	}

	w = e.do(t, "POST", "/gamepad/joystick", `{"x_left": 0.5, "y_left": -0.25, "y_right": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case s := <-e.pad.Samples():
		assert.Equal(t, gamepad.Sample{XLeft: 0.5, YLeft: -0.25}, s)
	default:
		t.Fatal("stick sample not queued")
	}

	w = e.do(t, "POST", "/gamepad/joystick", `{"x_left": 1.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
