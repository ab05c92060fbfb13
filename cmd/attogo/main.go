package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cjeanneret/attogo/internal/config"
	"github.com/cjeanneret/attogo/internal/hw/counter"
	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logging"
	"github.com/cjeanneret/attogo/internal/logic/control"
	"github.com/cjeanneret/attogo/internal/logic/joystick"
	"github.com/cjeanneret/attogo/internal/logic/motion"
	"github.com/cjeanneret/attogo/internal/logic/optimise"
	"github.com/cjeanneret/attogo/internal/web"
)

func main() {
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	addr := flag.String("addr", "", "listen address override, e.g. :8980")
	flag.Parse()

	log := logging.New("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config failed")
	}
	logging.SetLevel(cfg.LogLevel)
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	// Only simulated hardware is built in; the real positioner and counter
	// live behind their service interfaces.
	if !cfg.Sim.Enabled {
		log.Fatal("no hardware driver configured; set sim.enabled: true")
	}
	stage := positioner.NewSim()
	feed := counter.NewSim(stage)
	feed.FocusSteps = cfg.Sim.FocusSteps
	feed.FocusWidth = cfg.Sim.FocusWidth
	feed.PeakCounts = cfg.Sim.PeakCounts
	feed.StepsPerVolt = cfg.Sim.StepsPerVolt
	log.WithField("focus_steps", cfg.Sim.FocusSteps).Info("using simulated stage and counter")

	gate := motion.NewGate(stage)
	surface := motion.NewController(gate)
	applyAxisDefaults(surface, cfg)

	broadcaster := web.NewBroadcaster()

	optimiser := optimise.New(gate, feed, cfg.BaseInterval())
	optimiser.AddObserver(broadcaster)

	translator := joystick.New(gate, cfg.Joystick.DeadZone, cfg.Joystick.SectorRatio)
	pad := gamepad.NewVirtual()
	loop := control.New(pad, surface, translator)
	go loop.Run(ctx)

	handlers := web.NewHandlers(broadcaster, optimiser, surface, pad, web.Defaults{
		Steps: cfg.Optimise.DefaultSteps,
		Volts: cfg.Optimise.DefaultVolts,
	})
	srv := web.NewServer(cfg.Web.Addr, handlers)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Fatal("control server failed")
	}
}

// applyAxisDefaults pushes the configured step voltage and frequency to the
// hardware at startup. Faults are swallowed by the gate like any other
// manual parameter change.
func applyAxisDefaults(surface *motion.Controller, cfg *config.Config) {
	for _, name := range []string{"x", "y", "z"} {
		ax, _ := cfg.Axis(name)
		surface.SetAxisParams(positioner.Axis(name), ax.StepVoltage, ax.Frequency)
	}
}
