// Package websocket wraps the live game channel: a persistent connection
// delivering whole JSON frames, with a read pump, an outbound ping, and
// close-code classification for the session's connection supervisor.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reedyang/last-trial/internal/protocol/wire"
	"github.com/reedyang/last-trial/pkg/logger"
)

// CloseNormal is the close code of an intentional shutdown; any other code
// (or a read error without a close frame) counts as abnormal.
const CloseNormal = websocket.CloseNormalClosure

// Client is one live channel connection.
//
// The read pump delivers parsed events to the sink in arrival order and
// reports the terminal close exactly once. Malformed frames are logged and
// skipped; they never terminate the connection.
type Client struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens the live channel for a game.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, closed: make(chan struct{})}, nil
}

// Run starts the read pump and blocks until the connection terminates.
// sink receives every well-formed event; onClose receives the close code
// (CloseNormal for an intentional close, -1 when no close frame was seen).
func (c *Client) Run(sink func(wire.Event), onClose func(code int, err error)) {
	go func() {
		defer c.Close()
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				onClose(closeCode(err), err)
				return
			}
			ev, perr := wire.ParseEvent(data)
			if perr != nil {
				logger.Warnf("dropping malformed frame: %v", perr)
				continue
			}
			sink(ev)
		}
	}()
}

// SendPing writes the heartbeat payload.
func (c *Client) SendPing(at time.Time) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(wire.NewPing(at)); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	return nil
}

// Close shuts the connection down intentionally. Safe to call multiple
// times and from any goroutine.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		// Best effort: tell the server this is a normal closure so it
		// does not log an abnormal disconnect.
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// Done returns a channel closed once the connection is shut down.
func (c *Client) Done() <-chan struct{} { return c.closed }

func closeCode(err error) int {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code
	}
	return -1
}
