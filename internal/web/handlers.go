package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logging"
	"github.com/cjeanneret/attogo/internal/logic/motion"
)

// OptimiserAPI is the sweep control surface exposed to the UI.
type OptimiserAPI interface {
	Optimise(stepCount, voltCount int)
	Abort()
	Running() bool
}

// Defaults holds the sweep lengths pre-filled in the UI.
type Defaults struct {
	Steps int `json:"steps"`
	Volts int `json:"volts"`
}

// Handlers holds dependencies for the HTTP control surface.
type Handlers struct {
	broadcaster *Broadcaster
	optimiser   OptimiserAPI
	surface     *motion.Controller
	pad         *gamepad.Virtual
	defaults    Defaults
	upgrader    websocket.Upgrader
	log         *logrus.Entry
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(b *Broadcaster, opt OptimiserAPI, surface *motion.Controller, pad *gamepad.Virtual, defaults Defaults) *Handlers {
	return &Handlers{
		broadcaster: b,
		optimiser:   opt,
		surface:     surface,
		pad:         pad,
		defaults:    defaults,
		log:         logging.New("web"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseAxis(r *http.Request) (positioner.Axis, bool) {
	axis := positioner.Axis(r.PathValue("axis"))
	return axis, axis.Valid()
}

// HandleDefaults returns the sweep lengths from config.
func (h *Handlers) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.defaults)
}

// HandleOptimise starts a focus optimisation sweep.
func (h *Handlers) HandleOptimise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Steps int `json:"steps"`
		Volts int `json:"volts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Steps < 0 || req.Volts < 0 {
		http.Error(w, "sweep lengths must not be negative", http.StatusBadRequest)
		return
	}
	if h.optimiser.Running() {
		http.Error(w, "optimisation already in progress", http.StatusConflict)
		return
	}

	h.optimiser.Optimise(req.Steps, req.Volts)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// HandleAbort requests cancellation of the running sweep.
func (h *Handlers) HandleAbort(w http.ResponseWriter, r *http.Request) {
	h.optimiser.Abort()
	writeJSON(w, http.StatusOK, map[string]string{"status": "aborting"})
}

// HandleStep issues a discrete signed step.
func (h *Handlers) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Axis  string `json:"axis"`
		Steps int    `json:"steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	axis := positioner.Axis(req.Axis)
	if !axis.Valid() {
		http.Error(w, "axis must be x, y or z", http.StatusBadRequest)
		return
	}
	if req.Steps == 0 {
		// Zero steps would read as continuous motion on the hardware.
		http.Error(w, "steps must not be zero", http.StatusBadRequest)
		return
	}

	h.surface.Step(axis, req.Steps)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleJog starts continuous motion on one axis.
func (h *Handlers) HandleJog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Axis      string `json:"axis"`
		Direction int    `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	axis := positioner.Axis(req.Axis)
	if !axis.Valid() {
		http.Error(w, "axis must be x, y or z", http.StatusBadRequest)
		return
	}
	if req.Direction != 1 && req.Direction != -1 {
		http.Error(w, "direction must be 1 or -1", http.StatusBadRequest)
		return
	}

	h.surface.StartJog(axis, positioner.Direction(req.Direction))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStop stops one axis, or every axis when none is named.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Axis string `json:"axis"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}

	if req.Axis == "" {
		h.surface.Stop()
	} else {
		axis := positioner.Axis(req.Axis)
		if !axis.Valid() {
			http.Error(w, "axis must be x, y or z", http.StatusBadRequest)
			return
		}
		h.surface.StopAxis(axis)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// HandleGetAxisParams reads step voltage and frequency. Hardware faults
// surface as 502: this is the one query whose errors propagate.
func (h *Handlers) HandleGetAxisParams(w http.ResponseWriter, r *http.Request) {
	axis, ok := parseAxis(r)
	if !ok {
		http.Error(w, "axis must be x, y or z", http.StatusBadRequest)
		return
	}

	volt, freq, err := h.surface.GetAxisParams(axis)
	if err != nil {
		h.log.WithError(err).Error("get axis params")
		http.Error(w, "hardware query failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"step_voltage": volt,
		"frequency":    freq,
	})
}

// HandleSetAxisParams configures step voltage and frequency.
func (h *Handlers) HandleSetAxisParams(w http.ResponseWriter, r *http.Request) {
	axis, ok := parseAxis(r)
	if !ok {
		http.Error(w, "axis must be x, y or z", http.StatusBadRequest)
		return
	}
	var req struct {
		StepVoltage float64 `json:"step_voltage"`
		Frequency   float64 `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.StepVoltage <= 0 || req.Frequency <= 0 {
		http.Error(w, "step_voltage and frequency must be positive", http.StatusBadRequest)
		return
	}

	h.surface.SetAxisParams(axis, req.StepVoltage, req.Frequency)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleGamepadButton injects a virtual button press.
func (h *Handlers) HandleGamepadButton(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Button string `json:"button"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Button == "" {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	h.pad.Press(gamepad.Button(req.Button))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleGamepadJoystick injects a virtual stick sample.
func (h *Handlers) HandleGamepadJoystick(w http.ResponseWriter, r *http.Request) {
	var s gamepad.Sample
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !inRange(s.XLeft) || !inRange(s.YLeft) || !inRange(s.YRight) {
		http.Error(w, "stick values must be in [-1, 1]", http.StatusBadRequest)
		return
	}

	h.pad.Move(s)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func inRange(v float64) bool { return v >= -1 && v <= 1 }

// HandleEvents upgrades to a websocket and streams broadcast events until
// the client disconnects.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade")
		return
	}

	c := h.broadcaster.AddClient(conn)
	defer h.broadcaster.RemoveClient(c)

	// Drain the read side so control frames are processed; the client
	// never sends application messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
