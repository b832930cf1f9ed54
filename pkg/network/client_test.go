package network

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/event"
)

// mockConn implements net.Conn for testing
// It allows us to simulate server/client communication
// Only implements methods needed for tests

type mockConn struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
	mu       sync.Mutex
}

func newMockConn() *mockConn {
	return &mockConn{
		readBuf:  &bytes.Buffer{},
		writeBuf: &bytes.Buffer{},
	}
}

func (m *mockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	return m.readBuf.Read(b)
}

func (m *mockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.writeBuf.Write(b)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
func (m *mockConn) LocalAddr() net.Addr                { return nil }
func (m *mockConn) RemoteAddr() net.Addr               { return nil }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

// TestNewGameClient_BasicInitialization tests NewGameClient returns a valid client
func TestNewGameClient_BasicInitialization(t *testing.T) {
	eb := event.NewEventBus()
	c := NewGameClient(eb)
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.eventBus != eb {
		t.Error("eventBus not set correctly")
	}
	if c.networkService == nil {
		t.Error("expected networkService to be initialized")
	}
	if c.pingInterval != 5*time.Second {
		t.Error("default pingInterval incorrect")
	}
	if c.maxReconnectAttempts != 5 {
		t.Error("default maxReconnectAttempts incorrect")
	}
}

// TestConnect_ErrorCases tests Connect error paths (simulate dial error by using invalid address)
func TestConnect_ErrorCases(t *testing.T) {
	c := NewGameClient(event.NewEventBus())
	c.conn = nil
	c.connected = false
	c.serverAddress = "bad:address"
	// This will fail because address is invalid
	err := c.Connect("bad:address", "player")
	if err == nil {
		t.Error("expected error on dial failure")
	}
}

// TestSendAction_NotConnected returns error
func TestSendAction_NotConnected(t *testing.T) {
	c := NewGameClient(event.NewEventBus())
	c.connected = false
	err := c.SendAction(ActionMessage{Kind: KindSetReady, Ready: true})
	if err == nil {
		t.Error("expected error when not connected")
	}
}

// Table-driven test for SendAction covering the convenience helpers
func TestSendAction_TableDriven(t *testing.T) {
	cases := []struct {
		name string
		send func(c *GameClient) error
		kind string
	}{
		{"switch team", func(c *GameClient) error { return c.SwitchTeam() }, KindTeamSwitch},
		{"set ready", func(c *GameClient) error { return c.SetReady(true) }, KindSetReady},
		{"place ships", func(c *GameClient) error {
			return c.PlaceShips([]ShipPlacement{{Number: 0, Stern: board.Coordinate{X: 1, Y: 2}, Facing: board.North}})
		}, KindPlaceShips},
		{"shoot", func(c *GameClient) error {
			return c.Shoot(0, board.Coordinate{X: 5, Y: 5})
		}, KindShoot},
		{"end turn", func(c *GameClient) error { return c.EndTurn() }, KindEndTurn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewGameClient(event.NewEventBus())
			mc := newMockConn()
			c.conn = mc
			c.connected = true

			if err := tc.send(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			msgType, data, err := readFrame(mc.writeBuf)
			if err != nil {
				t.Fatalf("failed to read written frame: %v", err)
			}
			if msgType != ActionRequest {
				t.Errorf("expected message type %d, got %d", ActionRequest, msgType)
			}
			if !bytes.Contains(data, []byte(tc.kind)) {
				t.Errorf("expected payload to carry kind %q, got %s", tc.kind, data)
			}
		})
	}
}

// TestGetLatency returns correct value
func TestGetLatency(t *testing.T) {
	c := NewGameClient(event.NewEventBus())
	c.latency = 123 * time.Millisecond
	if c.GetLatency() != 123*time.Millisecond {
		t.Errorf("expected 123ms, got %v", c.GetLatency())
	}
}

// TestGetSnapshotChannel returns the channels used for server pushes
func TestGetSnapshotChannel(t *testing.T) {
	c := NewGameClient(event.NewEventBus())
	if c.GetSnapshotChannel() == nil {
		t.Error("expected non-nil snapshot channel")
	}
	if c.GetActionResponseChannel() == nil {
		t.Error("expected non-nil action response channel")
	}
}
