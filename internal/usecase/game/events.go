package game

import "goarena/internal/domain/game"

// event is anything processed by the session goroutine.
type event interface {
	isEvent()
}

type attachEvent struct {
	id     string
	peer   Peer
	resync bool
	reply  chan error
}

type spectateEvent struct {
	peer Peer
}

type detachEvent struct {
	peer Peer
}

type messageEvent struct {
	peer Peer
	msg  game.ClientMessage
}

// tickEvent is posted by the clock timer.
type tickEvent struct{}

type startTimeoutEvent struct{}

func (attachEvent) isEvent()       {}
func (spectateEvent) isEvent()     {}
func (detachEvent) isEvent()       {}
func (messageEvent) isEvent()      {}
func (tickEvent) isEvent()         {}
func (startTimeoutEvent) isEvent() {}
