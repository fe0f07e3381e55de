package game

import (
	"time"

	"goarena/internal/domain/board"
)

// Colors as the client numbers them.
const (
	WireNone  = -1
	WireWhite = 0
	WireBlack = 1
)

func WireColor(c board.Color) int {
	switch c {
	case board.White:
		return WireWhite
	case board.Black:
		return WireBlack
	}
	return WireNone
}

func ColorFromWire(c int) board.Color {
	switch c {
	case WireWhite:
		return board.White
	case WireBlack:
		return board.Black
	}
	return board.Empty
}

type Status int

const (
	StatusWaitingSync Status = iota
	StatusActive
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaitingSync:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	}
	return "unknown"
}

// FinishReason is sent verbatim as the gameover message.
type FinishReason string

const (
	ReasonScore     FinishReason = "score"
	ReasonAbort     FinishReason = "abort"
	ReasonTime      FinishReason = "time"
	ReasonCancelled FinishReason = "cancelled"
)

type Mode string

const (
	ModeHuman Mode = "human"
	ModeBot   Mode = "bot"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeHuman:
		return ModeHuman, true
	case ModeBot:
		return ModeBot, true
	}
	return "", false
}

type ChatEntry struct {
	Color int       `json:"color" bson:"color"`
	Text  string    `json:"text" bson:"text"`
	At    time.Time `json:"at" bson:"at"`
}

// Snapshot is the externally visible state of a session at one point in its
// serialized history.
type Snapshot struct {
	GameID    string       `json:"gameId" bson:"game_id"`
	Mode      Mode         `json:"mode" bson:"mode"`
	Black     string       `json:"black" bson:"black"`
	White     string       `json:"white" bson:"white"`
	BlackName string       `json:"blackName" bson:"black_name"`
	WhiteName string       `json:"whiteName" bson:"white_name"`
	Status    string       `json:"status" bson:"status"`
	Turn      int          `json:"turn" bson:"turn"`
	History   []string     `json:"history" bson:"history"`
	State     string       `json:"state" bson:"state"`
	BTime     int64        `json:"btime" bson:"btime"`
	WTime     int64        `json:"wtime" bson:"wtime"`
	Winner    int          `json:"winner" bson:"winner"`
	Reason    FinishReason `json:"reason,omitempty" bson:"reason,omitempty"`
	Chat      []ChatEntry  `json:"chat,omitempty" bson:"chat,omitempty"`
	CreatedAt time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updated_at"`
}

// Record is an archived finished game.
type Record struct {
	GameID     string       `json:"gameId" bson:"_id"`
	Mode       Mode         `json:"mode" bson:"mode"`
	Black      string       `json:"black" bson:"black"`
	White      string       `json:"white" bson:"white"`
	BlackName  string       `json:"blackName" bson:"black_name"`
	WhiteName  string       `json:"whiteName" bson:"white_name"`
	Winner     int          `json:"winner" bson:"winner"`
	Reason     FinishReason `json:"reason" bson:"reason"`
	BlackScore float64      `json:"blackScore,omitempty" bson:"black_score,omitempty"`
	WhiteScore float64      `json:"whiteScore,omitempty" bson:"white_score,omitempty"`
	// rating movement, set only for rated games
	Rated      bool        `json:"rated" bson:"rated"`
	BlackDelta int         `json:"blackRatingDelta,omitempty" bson:"black_rating_delta,omitempty"`
	WhiteDelta int         `json:"whiteRatingDelta,omitempty" bson:"white_rating_delta,omitempty"`
	Moves      []string    `json:"moves" bson:"moves"`
	Sgf        string      `json:"sgf" bson:"sgf"`
	Chat       []ChatEntry `json:"chat,omitempty" bson:"chat,omitempty"`
	CreatedAt  time.Time   `json:"createdAt" bson:"created_at"`
	FinishedAt time.Time   `json:"finishedAt" bson:"finished_at"`
}

// @name FindGameResponse
type FindGameResponse struct {
	GameID   string `json:"gameId,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
	Color    int    `json:"color"`
	WsURL    string `json:"wsurl"`
}

// @name FindGameRequest
type FindGameRequest struct {
	Mode string `json:"mode"`
}

// @name PendingResponse
type PendingResponse struct {
	Status string `json:"status"`
	GameID string `json:"gameId,omitempty"`
}
