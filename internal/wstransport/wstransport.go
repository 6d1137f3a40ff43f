// Package wstransport is a thin WebSocket framing layer for exchanging
// signaling messages between two ice-adapter-demo processes. It carries
// internal/signalmsg payloads verbatim as text frames; it has no opinion
// about their content.
//
// The production ice-adapter signaling path (talking to the FAF lobby
// server) is out of scope here - this package only serves the demo binary
// and its tests.
package wstransport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long a single frame write may block.
const writeWait = 5 * time.Second

// maxMessageBytes bounds the size of a single signaling message. Offer/answer
// SDPs are the largest messages this transport ever carries and are well
// under this in practice.
const maxMessageBytes = 1 << 20

// Conn is a duplex signaling channel over one WebSocket connection. Reads
// are only ever made from a single goroutine by contract (see ReadMessage);
// writes are safe to call concurrently, serialized internally, since gorilla
// requires callers provide that guarantee themselves.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
}

// newConn wraps an already-established WebSocket connection.
func newConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessageBytes)
	return &Conn{ws: ws}
}

// ReadMessage blocks for the next text frame and returns its payload. It
// must only be called from one goroutine at a time; the underlying
// websocket.Conn does not support concurrent reads.
func (c *Conn) ReadMessage() ([]byte, error) {
	msgType, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if msgType != websocket.TextMessage {
		return nil, errors.New("wstransport: expected a text frame")
	}
	return data, nil
}

// WriteMessage sends data as a single text frame. Safe for concurrent use.
func (c *Conn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection, first attempting a clean
// WebSocket close handshake.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// Upgrader accepts inbound signaling connections over HTTP.
type Upgrader struct {
	upgrader websocket.Upgrader
}

// NewUpgrader builds an Upgrader. Origin checking is intentionally
// permissive: this transport is for the bundled demo, run point-to-point on
// a trusted network, not for exposing ice-adapter directly to browsers.
func NewUpgrader() *Upgrader {
	return &Upgrader{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Accept upgrades r into a signaling Conn.
func (u *Upgrader) Accept(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws), nil
}

// Dial opens a signaling Conn to a ws:// or wss:// URL.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws), nil
}
