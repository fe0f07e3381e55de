package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// wsConn is one client socket seen as a session peer. Deliver never blocks:
// a client that cannot keep up with its queue is disconnected.
type wsConn struct {
	ws   *websocket.Conn
	log  *zap.SugaredLogger
	send chan []byte

	closeOnce   sync.Once
	closed      chan struct{}
	closeCode   int
	closeReason string
}

func newWSConn(ws *websocket.Conn, buffer int, log *zap.SugaredLogger) *wsConn {
	if buffer <= 0 {
		buffer = 32
	}
	return &wsConn{
		ws:     ws,
		log:    log,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Deliver(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Errorw("failed to marshal outbound message", "error", err)
		return
	}
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("outbound queue full, dropping connection")
		c.close(websocket.CloseTryAgainLater, "too slow")
	}
}

// Replaced is called when a newer connection took over the seat.
func (c *wsConn) Replaced() {
	c.close(websocket.ClosePolicyViolation, "replaced by a new connection")
}

func (c *wsConn) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode, c.closeReason = code, reason
		close(c.closed)
	})
}

func (c *wsConn) Done() <-chan struct{} {
	return c.closed
}

// writePump owns all writes to the socket.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debugw("write failed", "error", err)
				c.close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-c.closed:
			c.flush()
			if c.closeCode != websocket.CloseAbnormalClosure {
				msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
				_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			}
			return
		}
	}
}

// flush writes what is already queued, best effort.
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump hands every text frame to onMessage until the socket fails.
func (c *wsConn) readPump(onMessage func([]byte)) {
	defer c.close(websocket.CloseNormalClosure, "")

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debugw("connection closed", "error", err)
			}
			return
		}
		onMessage(data)
	}
}
