// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/engine"
	"github.com/opd-ai/go-armada/pkg/entity"
	"github.com/opd-ai/go-armada/pkg/event"
)

// GameClient handles network communication with the server.
type GameClient struct {
	conn                 net.Conn
	playerID             entity.PlayerID
	playerName           string
	serverAddress        string
	connected            bool
	receivedStates       chan *engine.Snapshot
	actionResults        chan *ActionResponsePayload
	eventBus             *event.Bus
	networkService       *NetworkService
	mu                   sync.Mutex
	writeMu              sync.Mutex
	latency              time.Duration
	lastPingTime         time.Time
	pingInterval         time.Duration
	reconnectDelay       time.Duration
	reconnectAttempts    int
	maxReconnectAttempts int

	// Context and timeout support
	ctx               context.Context
	cancel            context.CancelFunc
	connectionTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
}

// NewGameClient creates a new game client.
func NewGameClient(eventBus *event.Bus) *GameClient {
	// Load environment configuration for timeouts
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		// Use defaults if config loading fails
		envConfig = &config.EnvironmentConfig{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
	}

	return &GameClient{
		receivedStates:       make(chan *engine.Snapshot, 10),
		actionResults:        make(chan *ActionResponsePayload, 10),
		eventBus:             eventBus,
		networkService:       NewNetworkService(envConfig),
		pingInterval:         time.Second * 5,
		reconnectDelay:       time.Second * 3,
		maxReconnectAttempts: 5,
		connectionTimeout:    30 * time.Second,
		readTimeout:          envConfig.ReadTimeout,
		writeTimeout:         envConfig.WriteTimeout,
	}
}

// Connect connects to the game server and joins as playerName.
func (c *GameClient) Connect(address, playerName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Create context for connection operations
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.prepareConnection(address)
	c.playerName = playerName

	if err := c.establishTCPConnection(address); err != nil {
		return err
	}

	if err := c.performHandshake(playerName); err != nil {
		return err
	}

	c.startBackgroundProcesses()
	return nil
}

// prepareConnection closes any existing connection and prepares for a new one.
func (c *GameClient) prepareConnection(address string) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.serverAddress = address
}

// establishTCPConnection creates a TCP connection to the server through the
// circuit breaker, so repeated dial failures trip it open.
func (c *GameClient) establishTCPConnection(address string) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	return c.networkService.Execute(ctx, func() error {
		dialer := &net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}

		c.conn = conn
		return nil
	})
}

// performHandshake sends a connect request and processes the server's response.
func (c *GameClient) performHandshake(playerName string) error {
	if err := c.sendConnectRequest(playerName); err != nil {
		return err
	}

	if err := c.processConnectResponse(); err != nil {
		return err
	}

	return nil
}

// sendConnectRequest creates and sends the initial connection request to the server.
func (c *GameClient) sendConnectRequest(playerName string) error {
	connectReq := ConnectRequestPayload{PlayerName: playerName}

	if err := c.sendMessage(ConnectRequest, connectReq); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to send connect request: %w", err)
	}

	return nil
}

// processConnectResponse reads and validates the server's connection response.
func (c *GameClient) processConnectResponse() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	msgType, data, err := c.readMessage(ctx)
	if err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to read connect response: %w", err)
	}

	if msgType != ConnectResponse {
		c.cleanupConnection()
		return fmt.Errorf("unexpected response type: %d", msgType)
	}

	if err := c.parseAndValidateResponse(data); err != nil {
		return err
	}

	return nil
}

// parseAndValidateResponse parses the connection response and updates client state.
func (c *GameClient) parseAndValidateResponse(data []byte) error {
	var connectResp ConnectResponsePayload

	if err := json.Unmarshal(data, &connectResp); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to parse connect response: %w", err)
	}

	if !connectResp.Success {
		c.cleanupConnection()
		return fmt.Errorf("server rejected connection: %s", connectResp.Error)
	}

	c.playerID = entity.PlayerID(connectResp.PlayerID)
	c.connected = true

	return nil
}

// startBackgroundProcesses initiates the message and ping handling goroutines.
func (c *GameClient) startBackgroundProcesses() {
	go c.messageLoop()
	go c.pingLoop()
}

// cleanupConnection safely closes the connection and resets state (must be called with lock held)
func (c *GameClient) cleanupConnection() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false

	// Cancel context to stop any ongoing operations
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Disconnect disconnects from the game server.
func (c *GameClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	// Send disconnect notification with short timeout
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	c.sendMessageWithContext(ctx, DisconnectNotification, nil)
	cancel()

	c.cleanupConnection()
	return nil
}

// PlayerID returns the id the server assigned during the handshake.
func (c *GameClient) PlayerID() entity.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// SendAction submits an action to the server. The result arrives on the
// action response channel.
func (c *GameClient) SendAction(msg ActionMessage) error {
	if !c.connected {
		return errors.New("not connected")
	}

	return c.sendMessage(ActionRequest, msg)
}

// SwitchTeam asks the server to move this player to the other team.
func (c *GameClient) SwitchTeam() error {
	return c.SendAction(ActionMessage{Kind: KindTeamSwitch})
}

// SetReady reports this player's readiness to the server.
func (c *GameClient) SetReady(ready bool) error {
	return c.SendAction(ActionMessage{Kind: KindSetReady, Ready: ready})
}

// PlaceShips submits the player's whole fleet placement.
func (c *GameClient) PlaceShips(placements []ShipPlacement) error {
	return c.SendAction(ActionMessage{Kind: KindPlaceShips, Placements: placements})
}

// Shoot fires the given ship's cannon at a tile.
func (c *GameClient) Shoot(shipNumber uint32, target board.Coordinate) error {
	return c.SendAction(ActionMessage{Kind: KindShoot, ShipNumber: shipNumber, Target: target})
}

// EndTurn yields the rest of this player's turn.
func (c *GameClient) EndTurn() error {
	return c.SendAction(ActionMessage{Kind: KindEndTurn})
}

// GetLatency returns the current latency to the server.
func (c *GameClient) GetLatency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// GetSnapshotChannel returns the channel for receiving game state snapshots.
func (c *GameClient) GetSnapshotChannel() <-chan *engine.Snapshot {
	return c.receivedStates
}

// GetActionResponseChannel returns the channel for receiving action results.
func (c *GameClient) GetActionResponseChannel() <-chan *ActionResponsePayload {
	return c.actionResults
}

// messageLoop handles incoming messages from the server.
func (c *GameClient) messageLoop() {
	for c.connected {
		// Create context with read timeout for each message
		ctx, cancel := context.WithTimeout(c.ctx, c.readTimeout)

		msgType, data, err := c.readMessage(ctx)
		cancel()

		if err != nil {
			if c.connected && err != context.DeadlineExceeded && err != context.Canceled {
				c.handleDisconnect(err)
			}
			return
		}

		switch msgType {
		case GameStateUpdate:
			c.handleSnapshot(data)

		case ActionResponse:
			c.handleActionResponse(data)

		case PingResponse:
			c.handlePingResponse(data)

		default:
			// Ignore unknown message types
		}
	}
}

// handleSnapshot processes a game state update.
func (c *GameClient) handleSnapshot(data []byte) {
	var snapshot engine.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return
	}

	// Send snapshot to channel, non-blocking
	select {
	case c.receivedStates <- &snapshot:
	default:
		// Channel full, drop the state
	}
}

// handleActionResponse processes the result of a previously sent action.
func (c *GameClient) handleActionResponse(data []byte) {
	var resp ActionResponsePayload
	if err := json.Unmarshal(data, &resp); err != nil {
		return
	}

	select {
	case c.actionResults <- &resp:
	default:
		// Channel full, drop the response
	}
}

// handlePingResponse processes a ping response.
func (c *GameClient) handlePingResponse(data []byte) {
	var pingTime time.Time
	if err := json.Unmarshal(data, &pingTime); err != nil {
		return
	}

	c.mu.Lock()
	c.latency = time.Since(pingTime)
	c.mu.Unlock()
}

// pingLoop periodically sends ping requests to the server.
func (c *GameClient) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for c.connected {
		<-ticker.C

		c.mu.Lock()
		c.lastPingTime = time.Now()
		c.mu.Unlock()

		c.sendMessage(PingRequest, c.lastPingTime)
	}
}

// handleDisconnect handles an unexpected disconnection.
func (c *GameClient) handleDisconnect(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	disconnectEvent := &event.BaseEvent{
		EventType: ClientDisconnected,
		Source:    c,
	}
	c.eventBus.Publish(disconnectEvent)

	go c.attemptReconnect()
}

// attemptReconnect tries to rejoin the server under the original player name.
func (c *GameClient) attemptReconnect() {
	c.reconnectAttempts = 0

	for c.reconnectAttempts < c.maxReconnectAttempts {
		c.reconnectAttempts++

		time.Sleep(c.reconnectDelay)

		err := c.Connect(c.serverAddress, c.playerName)
		if err == nil {
			reconnectEvent := &event.BaseEvent{
				EventType: ClientReconnected,
				Source:    c,
			}
			c.eventBus.Publish(reconnectEvent)
			return
		}
	}

	reconnectFailedEvent := &event.BaseEvent{
		EventType: ClientReconnectFailed,
		Source:    c,
	}
	c.eventBus.Publish(reconnectFailedEvent)
}

// readMessage reads a message from the server with context timeout support.
func (c *GameClient) readMessage(ctx context.Context) (MessageType, []byte, error) {
	c.setReadDeadline(ctx)
	defer c.conn.SetReadDeadline(time.Time{}) // Clear deadline

	resultChan := make(chan readResult, 1)

	go c.executeRead(resultChan)

	return c.waitForReadCompletion(ctx, resultChan)
}

// readResult contains the result of a read operation.
type readResult struct {
	msgType MessageType
	data    []byte
	err     error
}

// setReadDeadline configures the read timeout based on context or fallback.
func (c *GameClient) setReadDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}

// executeRead performs the actual read operation with panic recovery.
func (c *GameClient) executeRead(resultChan chan readResult) {
	defer func() {
		if r := recover(); r != nil {
			resultChan <- readResult{err: fmt.Errorf("panic during read: %v", r)}
		}
	}()

	msgType, data, err := readFrame(c.conn)
	resultChan <- readResult{msgType: msgType, data: data, err: err}
}

// waitForReadCompletion waits for read completion or handles context cancellation.
func (c *GameClient) waitForReadCompletion(ctx context.Context, resultChan chan readResult) (MessageType, []byte, error) {
	select {
	case result := <-resultChan:
		return result.msgType, result.data, result.err
	case <-ctx.Done():
		// Force connection close on timeout
		c.conn.Close()
		return 0, nil, ctx.Err()
	}
}

// sendMessage sends a message to the server with context timeout support.
func (c *GameClient) sendMessage(msgType MessageType, msg interface{}) error {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.sendMessageWithContext(ctx, msgType, msg)
}

// sendMessageWithContext sends a message to the server with explicit context.
func (c *GameClient) sendMessageWithContext(ctx context.Context, msgType MessageType, msg interface{}) error {
	data, err := c.prepareMessageData(msg)
	if err != nil {
		return err
	}

	return c.sendPreparedMessage(ctx, msgType, data)
}

// prepareMessageData serializes and validates the message data.
func (c *GameClient) prepareMessageData(msg interface{}) ([]byte, error) {
	data, err := c.serializeMessage(msg)
	if err != nil {
		return nil, err
	}

	if err := c.validateMessageSize(data); err != nil {
		return nil, err
	}

	return data, nil
}

// sendPreparedMessage sends already serialized data to the server. Writes are
// serialized on their own mutex so the handshake, which runs under the state
// lock, can still send.
func (c *GameClient) sendPreparedMessage(ctx context.Context, msgType MessageType, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.validateConnection(); err != nil {
		return err
	}

	c.setWriteDeadline(ctx)
	defer c.conn.SetWriteDeadline(time.Time{}) // Clear deadline

	return c.performAsyncWrite(ctx, msgType, data)
}

// serializeMessage serializes the message payload to JSON bytes.
func (c *GameClient) serializeMessage(msg interface{}) ([]byte, error) {
	if msg == nil {
		return []byte{}, nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// validateMessageSize checks if the message size is within allowed limits.
func (c *GameClient) validateMessageSize(data []byte) error {
	if len(data) > 65535 {
		return errors.New("message too large")
	}
	return nil
}

// validateConnection ensures the client is connected before sending. The
// handshake itself sends before connected flips true, so only an absent
// connection is fatal here.
func (c *GameClient) validateConnection() error {
	if c.conn == nil {
		return errors.New("not connected")
	}
	return nil
}

// setWriteDeadline configures the write timeout based on context or fallback.
func (c *GameClient) setWriteDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	} else {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
}

// performAsyncWrite executes the write operation in a goroutine with context cancellation.
func (c *GameClient) performAsyncWrite(ctx context.Context, msgType MessageType, data []byte) error {
	resultChan := make(chan error, 1)

	go c.executeWrite(resultChan, msgType, data)

	return c.waitForWriteCompletion(ctx, resultChan)
}

// executeWrite performs the actual write operation with panic recovery.
func (c *GameClient) executeWrite(resultChan chan error, msgType MessageType, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			resultChan <- fmt.Errorf("panic during write: %v", r)
		}
	}()

	resultChan <- c.writeRawFrame(msgType, data)
}

// waitForWriteCompletion waits for write completion or handles context cancellation.
func (c *GameClient) waitForWriteCompletion(ctx context.Context, resultChan chan error) error {
	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		// Force connection close on timeout
		c.conn.Close()
		return ctx.Err()
	}
}

// writeRawFrame writes the message type, length, and pre-serialized payload.
func (c *GameClient) writeRawFrame(msgType MessageType, data []byte) error {
	if err := binaryWriteHeader(c.conn, msgType, uint16(len(data))); err != nil {
		return err
	}

	if _, err := c.conn.Write(data); err != nil {
		return err
	}

	return nil
}

// Client event types
const (
	ClientDisconnected    event.Type = "client_disconnected"
	ClientReconnected     event.Type = "client_reconnected"
	ClientReconnectFailed event.Type = "client_reconnect_failed"
)
