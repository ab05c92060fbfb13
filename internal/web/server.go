package web

import (
	"context"
	"net/http"
	"time"

	"github.com/cjeanneret/attogo/internal/logging"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and handlers.
func NewServer(addr string, handlers *Handlers) *Server {
	return &Server{
		addr:     addr,
		handlers: handlers,
	}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /defaults", s.handlers.HandleDefaults)
	mux.HandleFunc("POST /optimise", s.handlers.HandleOptimise)
	mux.HandleFunc("POST /optimise/abort", s.handlers.HandleAbort)
	mux.HandleFunc("POST /step", s.handlers.HandleStep)
	mux.HandleFunc("POST /jog", s.handlers.HandleJog)
	mux.HandleFunc("POST /stop", s.handlers.HandleStop)
	mux.HandleFunc("GET /axis/{axis}/params", s.handlers.HandleGetAxisParams)
	mux.HandleFunc("POST /axis/{axis}/params", s.handlers.HandleSetAxisParams)
	mux.HandleFunc("POST /gamepad/button", s.handlers.HandleGamepadButton)
	mux.HandleFunc("POST /gamepad/joystick", s.handlers.HandleGamepadJoystick)
	mux.HandleFunc("GET /events", s.handlers.HandleEvents)

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logging.New("web")
	srv := &http.Server{Addr: s.addr, Handler: s.Mux()}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("control server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
