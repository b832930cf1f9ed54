// Package network implements the TCP protocol between the game server and
// its clients: framed JSON messages carrying connection handshakes, player
// actions, their outcomes and full state snapshots.
package network

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/engine"
	"github.com/opd-ai/go-armada/pkg/entity"
)

// MessageType defines the type of network message
type MessageType byte

const (
	ConnectRequest MessageType = iota
	ConnectResponse
	DisconnectNotification
	ActionRequest
	ActionResponse
	GameStateUpdate
	PingRequest
	PingResponse
)

// Action kinds carried by an ActionMessage.
const (
	KindTeamSwitch      = "teamSwitch"
	KindSetReady        = "setReady"
	KindPlaceShips      = "placeShips"
	KindShoot           = "shoot"
	KindMove            = "move"
	KindRotate          = "rotate"
	KindTorpedo         = "torpedo"
	KindPredatorMissile = "predatorMissile"
	KindScoutPlane      = "scoutPlane"
	KindMultiMissile    = "multiMissile"
	KindEngineBoost     = "engineBoost"
	KindEndTurn         = "endTurn"
)

// ConnectRequestPayload opens a session for a named player.
type ConnectRequestPayload struct {
	PlayerName string `json:"playerName"`
}

// ConnectResponsePayload carries the assigned player id or a rejection.
type ConnectResponsePayload struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	PlayerID uint32 `json:"playerID,omitempty"`
}

// ShipPlacement is one fleet slot in a placeShips message.
type ShipPlacement struct {
	Number uint32            `json:"number"`
	Stern  board.Coordinate  `json:"stern"`
	Facing board.Orientation `json:"facing"`
}

// ActionMessage is the tagged envelope for player intents. Kind selects the
// action; the other fields are read as that kind requires.
type ActionMessage struct {
	Kind       string             `json:"kind"`
	ShipNumber uint32             `json:"shipNumber,omitempty"`
	Ready      bool               `json:"ready,omitempty"`
	Placements []ShipPlacement    `json:"placements,omitempty"`
	Target     board.Coordinate   `json:"target,omitempty"`
	Targets    []board.Coordinate `json:"targets,omitempty"`
	Direction  string             `json:"direction,omitempty"`
}

// ActionResponsePayload reports the result of one submitted action.
type ActionResponsePayload struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Outcome *engine.Outcome `json:"outcome,omitempty"`
}

// ToAction translates the message into an engine action issued by player.
func (m *ActionMessage) ToAction(player entity.PlayerID) (engine.Action, error) {
	shipID := entity.ShipID{Player: player, Number: m.ShipNumber}

	switch m.Kind {
	case KindTeamSwitch:
		return engine.TeamSwitch{PlayerID: player}, nil
	case KindSetReady:
		return engine.SetReady{PlayerID: player, Ready: m.Ready}, nil
	case KindPlaceShips:
		assignments := make([]engine.ShipAssignment, 0, len(m.Placements))
		for _, p := range m.Placements {
			assignments = append(assignments, engine.ShipAssignment{
				Number: p.Number,
				Stern:  p.Stern,
				Facing: p.Facing,
			})
		}
		return engine.PlaceShips{PlayerID: player, Assignments: assignments}, nil
	case KindShoot:
		return engine.Shoot{ShipID: shipID, Target: m.Target}, nil
	case KindMove:
		direction, err := parseMoveDirection(m.Direction)
		if err != nil {
			return nil, err
		}
		return engine.Move{ShipID: shipID, Direction: direction}, nil
	case KindRotate:
		direction, err := parseRotateDirection(m.Direction)
		if err != nil {
			return nil, err
		}
		return engine.Rotate{ShipID: shipID, Direction: direction}, nil
	case KindTorpedo:
		direction, err := parseOrientation(m.Direction)
		if err != nil {
			return nil, err
		}
		return engine.Torpedo{ShipID: shipID, Direction: direction}, nil
	case KindPredatorMissile:
		return engine.PredatorMissile{ShipID: shipID, Center: m.Target}, nil
	case KindScoutPlane:
		return engine.ScoutPlane{ShipID: shipID, Center: m.Target}, nil
	case KindMultiMissile:
		if len(m.Targets) != 3 {
			return nil, fmt.Errorf("multi missile needs exactly 3 targets, got %d", len(m.Targets))
		}
		return engine.MultiMissile{
			ShipID:  shipID,
			TargetA: m.Targets[0],
			TargetB: m.Targets[1],
			TargetC: m.Targets[2],
		}, nil
	case KindEngineBoost:
		return engine.EngineBoost{ShipID: shipID}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", m.Kind)
	}
}

func parseMoveDirection(s string) (board.MoveDirection, error) {
	switch strings.ToLower(s) {
	case "forward":
		return board.Forward, nil
	case "backward":
		return board.Backward, nil
	}
	return 0, fmt.Errorf("unknown move direction %q", s)
}

func parseRotateDirection(s string) (board.RotateDirection, error) {
	switch strings.ToLower(s) {
	case "clockwise":
		return board.Clockwise, nil
	case "counterclockwise":
		return board.CounterClockwise, nil
	}
	return 0, fmt.Errorf("unknown rotate direction %q", s)
}

func parseOrientation(s string) (board.Orientation, error) {
	switch strings.ToLower(s) {
	case "north":
		return board.North, nil
	case "east":
		return board.East, nil
	case "south":
		return board.South, nil
	case "west":
		return board.West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// readFrame reads one framed message: a type byte, a big-endian uint16
// payload length, and the JSON payload.
func readFrame(r io.Reader) (MessageType, []byte, error) {
	var msgType MessageType
	if err := binary.Read(r, binary.BigEndian, &msgType); err != nil {
		return 0, nil, err
	}

	var msgLen uint16
	if err := binary.Read(r, binary.BigEndian, &msgLen); err != nil {
		return 0, nil, err
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, err
	}

	return msgType, data, nil
}

// writeFrame serializes msg to JSON and writes one framed message.
func writeFrame(w io.Writer, msgType MessageType, msg interface{}) error {
	var data []byte
	if msg != nil {
		var err error
		data, err = json.Marshal(msg)
		if err != nil {
			return err
		}
	}

	if len(data) > 65535 {
		return errors.New("message too large")
	}

	if err := binaryWriteHeader(w, msgType, uint16(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	return nil
}

// binaryWriteHeader writes the frame header: type byte then payload length.
func binaryWriteHeader(w io.Writer, msgType MessageType, length uint16) error {
	if err := binary.Write(w, binary.BigEndian, msgType); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, length)
}
