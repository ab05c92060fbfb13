package web

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/attogo/internal/hw/gamepad"
	"github.com/cjeanneret/attogo/internal/hw/positioner"
	"github.com/cjeanneret/attogo/internal/logic/motion"
)

func newWSTestServer(t *testing.T) (*httptest.Server, *Broadcaster) {
	t.Helper()
	b := NewBroadcaster()
	surface := motion.NewController(motion.NewGate(positioner.NewSim()))
	h := NewHandlers(b, &fakeOptimiser{}, surface, gamepad.NewVirtual(), Defaults{})
	srv := httptest.NewServer(NewServer(":0", h).Mux())
	t.Cleanup(srv.Close)
	return srv, b
}

func dialEvents(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestBroadcaster_StreamsEvents(t *testing.T) {
	srv, b := newWSTestServer(t)
	conn := dialEvents(t, srv)

	waitForClients(t, b, 1)
	b.Status("info", "sweep starting")

	evt := readEvent(t, conn)
	assert.Equal(t, "status", evt.Type)

	payload, ok := evt.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sweep starting", payload["msg"])
}

func TestBroadcaster_ObserverEvents(t *testing.T) {
	srv, b := newWSTestServer(t)
	conn := dialEvents(t, srv)
	waitForClients(t, b, 1)

	b.SampleUpdated("abc", []float64{1, 2, 3})
	b.OptimisationDone("abc")

	evt := readEvent(t, conn)
	assert.Equal(t, "sample_update", evt.Type)
	payload, ok := evt.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", payload["session"])
	assert.Len(t, payload["counts"], 3)

	evt = readEvent(t, conn)
	assert.Equal(t, "optimisation_done", evt.Type)
}

func TestBroadcaster_MultipleClients(t *testing.T) {
	srv, b := newWSTestServer(t)
	c1 := dialEvents(t, srv)
	c2 := dialEvents(t, srv)
	waitForClients(t, b, 2)

	b.Status("info", "hello")

	assert.Equal(t, "status", readEvent(t, c1).Type)
	assert.Equal(t, "status", readEvent(t, c2).Type)
}

func TestBroadcaster_ClientDisconnect(t *testing.T) {
	srv, b := newWSTestServer(t)
	conn := dialEvents(t, srv)
	waitForClients(t, b, 1)

	conn.Close()
	waitForClients(t, b, 0)

	// Broadcasting to nobody must not panic.
	b.Status("info", "still alive")
}

func waitForClients(t *testing.T, b *Broadcaster, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for b.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("client count = %d, want %d", b.ClientCount(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
