package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/moalmobayed/barq-dashboard-sub001/app"
)

// Wire events exchanged with the chat gateway.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventChatJoin    = "chat:join"
	EventChatMessage = "chat:message"
	EventChatLeave   = "chat:leave"
	EventNewChat     = "new:chat"
)

var ErrHandshake = errors.New("chat gateway handshake failed")

// WireEvent is one frame on the gateway connection.
type WireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn is one established gateway connection, whatever transport carries it.
type Conn interface {
	ReadEvent() (WireEvent, error)
	Emit(event string, data any) error
	Close() error
}

// Dialer establishes gateway connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// GatewayDialer connects to the gateway on its namespace path with the
// bearer credential in the handshake headers. It prefers the websocket
// upgrade and falls back to long polling when the upgrade is refused; the
// whole handshake is bounded by the configured timeout.
type GatewayDialer struct {
	conf   *app.ChatConfig
	bearer func() string
	http   *http.Client
}

func NewGatewayDialer(conf *app.ChatConfig, bearer func() string) *GatewayDialer {
	return &GatewayDialer{
		conf:   conf,
		bearer: bearer,
		http:   &http.Client{},
	}
}

func (d *GatewayDialer) Dial(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.conf.HandshakeTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+d.bearer())

	wsDialer := &websocket.Dialer{HandshakeTimeout: d.conf.HandshakeTimeout}
	conn, _, upgradeErr := wsDialer.DialContext(ctx, d.endpoint("ws", "/ws"), header)
	if upgradeErr == nil {
		return &wsConn{conn: conn}, nil
	}

	polled, pollErr := d.dialPolling(ctx, header)
	if pollErr != nil {
		return nil, fmt.Errorf("%w: upgrade: %v, polling: %v", ErrHandshake, upgradeErr, pollErr)
	}
	return polled, nil
}

func (d *GatewayDialer) endpoint(scheme, suffix string) string {
	base := strings.TrimRight(d.conf.GatewayURL, "/") + d.conf.NamespacePath + suffix
	if scheme == "ws" {
		switch {
		case strings.HasPrefix(base, "https://"):
			return "wss://" + strings.TrimPrefix(base, "https://")
		case strings.HasPrefix(base, "http://"):
			return "ws://" + strings.TrimPrefix(base, "http://")
		}
	}
	return base
}

// dialPolling performs the polling handshake: the gateway hands out a
// session id that subsequent poll and emit calls carry.
func (d *GatewayDialer) dialPolling(ctx context.Context, header http.Header) (Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint("http", "/poll"), nil)
	if err != nil {
		return nil, err
	}
	req.Header = header.Clone()

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polling handshake returned %d", resp.StatusCode)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.SID == "" {
		return nil, fmt.Errorf("polling handshake returned no session id")
	}

	connCtx, cancel := context.WithCancel(context.Background())
	return &pollConn{
		base:   d.endpoint("http", "/poll"),
		emit:   d.endpoint("http", "/emit"),
		sid:    out.SID,
		header: header.Clone(),
		http:   d.http,
		ctx:    connCtx,
		cancel: cancel,
	}, nil
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadEvent() (WireEvent, error) {
	var ev WireEvent
	err := c.conn.ReadJSON(&ev)
	return ev, err
}

func (c *wsConn) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(WireEvent{Event: event, Data: raw})
}

func (c *wsConn) Close() error { return c.conn.Close() }

// pollConn carries the gateway session over repeated long polls.
type pollConn struct {
	base   string
	emit   string
	sid    string
	header http.Header
	http   *http.Client
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	queue []WireEvent
}

func (c *pollConn) ReadEvent() (WireEvent, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return ev, nil
		}
		c.mu.Unlock()

		if err := c.poll(); err != nil {
			return WireEvent{}, err
		}
	}
}

func (c *pollConn) poll() error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.base+"?sid="+c.sid, nil)
	if err != nil {
		return err
	}
	req.Header = c.header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("poll returned %d", resp.StatusCode)
	}

	var events []WireEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return err
	}

	c.mu.Lock()
	c.queue = append(c.queue, events...)
	c.mu.Unlock()
	return nil
}

func (c *pollConn) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(WireEvent{Event: event, Data: raw})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.emit+"?sid="+c.sid, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header = c.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("emit returned %d", resp.StatusCode)
	}
	return nil
}

func (c *pollConn) Close() error {
	c.cancel()
	return nil
}
