// Package gateway implements the Streaming Gateway (§4.7): REST
// snapshots and per-worker WebSocket streams over the Worker Manager,
// Decision Engine, File Monitor and Status Aggregator.
package gateway

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaykit/mediator/logger"
)

// WebSocket timeout constants, grounded on the teacher's
// server/client.go Gorilla-recommended values.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOriginFunc(allowedOrigins),
	}
}

func checkOriginFunc(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "https://localhost") {
			return true
		}
		for _, a := range allowed {
			if strings.HasPrefix(origin, a) {
				return true
			}
		}
		return len(allowed) == 0
	}
}

// wsFrame is the envelope every dialogue/terminal/status frame is sent
// as (§6.3): at most one of Data/Message is populated, depending on Type
// (a ready frame carries neither).
type wsFrame struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Dropped int64       `json:"dropped,omitempty"`
}

// wsConn is a bounded-queue wrapper around one upgraded connection. send
// never blocks: on overflow the oldest queued frame is dropped and
// droppedCount incremented, so one slow browser tab can't stall the
// goroutine pushing frames.
type wsConn struct {
	conn *websocket.Conn

	mu      sync.Mutex
	send    chan wsFrame
	dropped int64

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(conn *websocket.Conn, queueDepth int) *wsConn {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	return &wsConn{
		conn:   conn,
		send:   make(chan wsFrame, queueDepth),
		closed: make(chan struct{}),
	}
}

// push enqueues a frame, dropping the oldest queued one on overflow.
func (c *wsConn) push(f wsFrame) {
	for {
		select {
		case c.send <- f:
			return
		default:
		}
		select {
		case <-c.send:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		default:
		}
	}
}

func (c *wsConn) droppedCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// drainPending flushes any frames still queued at close time so a final
// frame pushed just before close (e.g. a worker's last status snapshot)
// is never lost to the race between the send and closed channels.
func (c *wsConn) drainPending() {
	for {
		select {
		case f := <-c.send:
			f.Dropped = c.droppedCount()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

// writePump drains send onto the wire until closed is signalled or a
// write fails, stamping each outgoing frame with the current drop count
// and ping-ing on pingPeriod to keep the connection alive.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.drainPending()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case f := <-c.send:
			f.Dropped = c.droppedCount()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				logger.Debugw("gateway: websocket write failed, closing", logger.FieldError, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to service the pong handler and notice the peer
// going away; the gateway's sockets are all server-push, so any inbound
// message is ignored.
func (c *wsConn) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
