package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeReqState   = "reqState"
	TypeSync       = "sync"
	TypeMove       = "move"
	TypeMoveStatus = "movestatus"
	TypeChat       = "chat"
	TypeGameOver   = "gameover"
	TypeAbort      = "abort"
)

// MaxChatLength is the longest chat text kept; longer messages are cut.
const MaxChatLength = 500

var ErrUnknownMessage = errors.New("unknown message type")

// ClientMessage is the closed set of messages a client may send.
type ClientMessage interface {
	clientMessage()
}

type ReqState struct{}

type MoveRequest struct {
	Move string `json:"move"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type Abort struct{}

func (ReqState) clientMessage()    {}
func (MoveRequest) clientMessage() {}
func (ChatRequest) clientMessage() {}
func (Abort) clientMessage()       {}

type envelope struct {
	Type string `json:"type"`
}

// DecodeClientMessage inspects the type tag and decodes the matching payload.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TypeReqState:
		return ReqState{}, nil
	case TypeAbort:
		return Abort{}, nil
	case TypeMove:
		var m MoveRequest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
		return m, nil
	case TypeChat:
		var c ChatRequest
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
}

// Server to client messages. Times are remaining milliseconds; self/op are
// relative to the recipient (black for spectators).

type SyncMsg struct {
	Type     string   `json:"type"`
	GameID   string   `json:"gameId"`
	Color    int      `json:"color"`
	Turn     bool     `json:"turn"`
	ToMove   int      `json:"toMove"`
	State    string   `json:"state"`
	History  []string `json:"history"`
	SelfTime int64    `json:"selfTime"`
	OpTime   int64    `json:"opTime"`
	PName    string   `json:"pname"`
	OpName   string   `json:"opname"`
	Status   string   `json:"status"`
}

type MoveMsg struct {
	Type     string `json:"type"`
	Move     string `json:"move"`
	Color    int    `json:"color"`
	State    string `json:"state"`
	SelfTime int64  `json:"selfTime"`
	OpTime   int64  `json:"opTime"`
}

type MoveStatusMsg struct {
	Type       string `json:"type"`
	TurnStatus bool   `json:"turnStatus"`
	MoveStatus bool   `json:"moveStatus"`
	Move       string `json:"move"`
	State      string `json:"state"`
	SelfTime   int64  `json:"selfTime"`
	OpTime     int64  `json:"opTime"`
}

type ChatMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Color   int    `json:"color"`
}

type GameOverMsg struct {
	Type       string  `json:"type"`
	Winner     int     `json:"winner"`
	Message    string  `json:"message"`
	BlackScore float64 `json:"blackScore,omitempty"`
	WhiteScore float64 `json:"whiteScore,omitempty"`
}
