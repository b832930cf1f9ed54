// pkg/network/server.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/engine"
	"github.com/opd-ai/go-armada/pkg/entity"
	"github.com/opd-ai/go-armada/pkg/logging"
	"github.com/opd-ai/go-armada/pkg/validation"
)

// Client represents one connected player session.
type Client struct {
	ID        entity.PlayerID
	Conn      net.Conn
	writeLock sync.Mutex
}

// GameServer accepts player connections and relays their actions into a
// single match.
type GameServer struct {
	game      *engine.Game
	env       *config.EnvironmentConfig
	validator *validation.MessageValidator
	logger    *logging.Logger

	listener    net.Listener
	clients     map[entity.PlayerID]*Client
	clientsLock sync.RWMutex
	running     bool
	runningLock sync.Mutex
}

// NewGameServer creates a server hosting the given match, sized and tuned
// from the environment configuration.
func NewGameServer(game *engine.Game, env *config.EnvironmentConfig) *GameServer {
	return &GameServer{
		game:      game,
		env:       env,
		validator: validation.NewMessageValidator(env.RateLimitPerSecond, env.RateLimitBurst),
		logger:    logging.NewLogger(),
		clients:   make(map[entity.PlayerID]*Client),
	}
}

// Start begins listening on the configured address and accepting players.
func (s *GameServer) Start(ctx context.Context) error {
	address := net.JoinHostPort(s.env.ServerAddr, strconv.Itoa(s.env.ServerPort))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.runningLock.Lock()
	s.listener = listener
	s.running = true
	s.runningLock.Unlock()

	s.logger.Info(ctx, "server listening", "address", address)

	go s.acceptConnections(ctx)
	return nil
}

// Stop closes the listener and disconnects all clients.
func (s *GameServer) Stop() {
	s.runningLock.Lock()
	s.running = false
	if s.listener != nil {
		s.listener.Close()
	}
	s.runningLock.Unlock()

	s.clientsLock.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clients = make(map[entity.PlayerID]*Client)
	s.clientsLock.Unlock()

	s.validator.Close()
}

// ListenerAddress returns the address the server listens on, or an empty
// string when it is not running.
func (s *GameServer) ListenerAddress() string {
	s.runningLock.Lock()
	defer s.runningLock.Unlock()
	if !s.running || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GameServer) isRunning() bool {
	s.runningLock.Lock()
	defer s.runningLock.Unlock()
	return s.running
}

func (s *GameServer) acceptConnections(ctx context.Context) {
	for s.isRunning() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isRunning() {
				s.logger.Error(ctx, "failed to accept connection", err)
			}
			return
		}

		s.clientsLock.RLock()
		full := len(s.clients) >= s.env.MaxClients
		s.clientsLock.RUnlock()
		if full {
			s.logger.Warn(ctx, "rejecting connection, server full",
				"remote_addr", conn.RemoteAddr().String(),
			)
			conn.Close()
			continue
		}

		go s.handleConnection(ctx, conn)
	}
}

// handleConnection performs the connect handshake and, on success, serves
// the client's messages until it disconnects.
func (s *GameServer) handleConnection(ctx context.Context, conn net.Conn) {
	msgType, data, err := readFrame(conn)
	if err != nil || msgType != ConnectRequest {
		conn.Close()
		return
	}

	var req ConnectRequestPayload
	if err := json.Unmarshal(data, &req); err != nil {
		conn.Close()
		return
	}

	playerName, err := validation.ValidatePlayerName(req.PlayerName)
	if err != nil {
		writeFrame(conn, ConnectResponse, ConnectResponsePayload{Success: false, Error: err.Error()})
		conn.Close()
		return
	}

	playerID, err := s.game.AddPlayer(playerName)
	if err != nil {
		writeFrame(conn, ConnectResponse, ConnectResponsePayload{Success: false, Error: err.Error()})
		conn.Close()
		return
	}

	client := &Client{ID: playerID, Conn: conn}
	s.clientsLock.Lock()
	s.clients[playerID] = client
	s.clientsLock.Unlock()

	if err := s.sendToClient(client, ConnectResponse, ConnectResponsePayload{Success: true, PlayerID: uint32(playerID)}); err != nil {
		s.removeClient(ctx, client)
		return
	}

	s.logger.Info(ctx, "player connected",
		"player_id", uint32(playerID),
		"player_name", playerName,
		"remote_addr", conn.RemoteAddr().String(),
	)

	s.broadcastSnapshot(ctx)
	s.handleClientMessages(ctx, client)
}

func (s *GameServer) handleClientMessages(ctx context.Context, client *Client) {
	defer s.removeClient(ctx, client)

	for s.isRunning() {
		client.Conn.SetReadDeadline(time.Now().Add(s.env.ReadTimeout))
		msgType, data, err := readFrame(client.Conn)
		if err != nil {
			return
		}

		switch msgType {
		case ActionRequest:
			s.handleAction(ctx, client, data)
		case PingRequest:
			s.sendToClient(client, PingResponse, json.RawMessage(data))
		case DisconnectNotification:
			return
		default:
			s.logger.Warn(ctx, "unexpected message type",
				"player_id", uint32(client.ID),
				"message_type", int(msgType),
			)
		}
	}
}

// handleAction validates, decodes and applies one action message, replying
// with the outcome and pushing the updated state to every client.
func (s *GameServer) handleAction(ctx context.Context, client *Client, data []byte) {
	clientKey := strconv.FormatUint(uint64(client.ID), 10)
	if err := s.validator.ValidateMessage(data, clientKey); err != nil {
		s.sendToClient(client, ActionResponse, ActionResponsePayload{Success: false, Error: err.Error()})
		return
	}

	var msg ActionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendToClient(client, ActionResponse, ActionResponsePayload{Success: false, Error: err.Error()})
		return
	}

	outcome, err := s.applyMessage(client.ID, &msg)
	if err != nil {
		s.sendToClient(client, ActionResponse, ActionResponsePayload{Success: false, Error: err.Error()})
		return
	}

	s.sendToClient(client, ActionResponse, ActionResponsePayload{Success: true, Outcome: outcome})
	s.advancePhases(ctx)
	s.broadcastSnapshot(ctx)
}

// applyMessage routes an action message into the match. Ending the turn is a
// protocol concern rather than a combat action, so it is handled here.
func (s *GameServer) applyMessage(playerID entity.PlayerID, msg *ActionMessage) (*engine.Outcome, error) {
	if msg.Kind == KindEndTurn {
		turn := s.game.Turn()
		if turn == nil || turn.PlayerID != playerID {
			return nil, engine.ErrNotPlayersTurn
		}
		return nil, s.game.AdvanceTurn()
	}

	action, err := msg.ToAction(playerID)
	if err != nil {
		return nil, err
	}
	return s.game.Apply(action)
}

// advancePhases moves the match forward whenever the players' collective
// state permits it.
func (s *GameServer) advancePhases(ctx context.Context) {
	if s.game.CanStartPreparation() {
		if err := s.game.StartPreparation(); err == nil {
			s.logger.Info(ctx, "preparation started")
		}
	}
	if s.game.CanStartGame() {
		if err := s.game.StartGame(); err == nil {
			s.logger.Info(ctx, "game started")
		}
	}
}

func (s *GameServer) broadcastSnapshot(ctx context.Context) {
	snapshot := s.game.Snapshot()

	s.clientsLock.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsLock.RUnlock()

	for _, client := range clients {
		if err := s.sendToClient(client, GameStateUpdate, snapshot); err != nil {
			s.logger.Warn(ctx, "failed to send state update",
				"player_id", uint32(client.ID),
				"error", err.Error(),
			)
		}
	}
}

func (s *GameServer) sendToClient(client *Client, msgType MessageType, msg interface{}) error {
	client.writeLock.Lock()
	defer client.writeLock.Unlock()

	client.Conn.SetWriteDeadline(time.Now().Add(s.env.WriteTimeout))
	return writeFrame(client.Conn, msgType, msg)
}

// removeClient tears down a client session and withdraws the player from the
// match. A departure mid-match aborts the game.
func (s *GameServer) removeClient(ctx context.Context, client *Client) {
	s.clientsLock.Lock()
	existing, ok := s.clients[client.ID]
	if !ok || existing != client {
		s.clientsLock.Unlock()
		return
	}
	delete(s.clients, client.ID)
	s.clientsLock.Unlock()

	client.Conn.Close()
	s.validator.ForgetClient(strconv.FormatUint(uint64(client.ID), 10))

	if err := s.game.RemovePlayer(client.ID); err != nil {
		s.logger.Warn(ctx, "failed to remove player",
			"player_id", uint32(client.ID),
			"error", err.Error(),
		)
	}

	s.logger.Info(ctx, "player disconnected", "player_id", uint32(client.ID))
	s.broadcastSnapshot(ctx)
}
