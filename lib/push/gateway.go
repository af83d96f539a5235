package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/app"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

const redialDelay = 5 * time.Second

// GatewayTransport is the production Transport. Registration is an HTTP
// exchange of the project credential set for a token; delivery is a
// long-lived websocket stream from the provider.
type GatewayTransport struct {
	conf *app.PushConfig
	http *http.Client

	mu       sync.Mutex
	token    string
	payloads chan model.PushPayload
	cancel   context.CancelFunc
	closed   bool
}

func NewGatewayTransport(conf *app.PushConfig) *GatewayTransport {
	return &GatewayTransport{
		conf:     conf,
		http:     &http.Client{Timeout: 15 * time.Second},
		payloads: make(chan model.PushPayload, 64),
	}
}

func (t *GatewayTransport) configured() bool {
	return t.conf.ProviderURL != "" && t.conf.APIKey != "" && t.conf.AppID != ""
}

// Register exchanges the project credentials for a token and starts the
// delivery stream on first success.
func (t *GatewayTransport) Register(ctx context.Context) (string, error) {
	if !t.configured() {
		return "", ErrUnsupported
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", fmt.Errorf("push transport is closed")
	}
	if t.token != "" {
		return t.token, nil
	}

	body, _ := json.Marshal(map[string]string{
		"api_key":   t.conf.APIKey,
		"sender_id": t.conf.SenderID,
		"app_id":    t.conf.AppID,
		"vapid_key": t.conf.VapidKey,
	})
	url := strings.TrimRight(t.conf.ProviderURL, "/") + "/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("push registration: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("push registration: provider returned %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("push registration: empty token")
	}

	t.token = out.Token

	streamCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.stream(streamCtx, t.token)

	return t.token, nil
}

func (t *GatewayTransport) Payloads() <-chan model.PushPayload {
	return t.payloads
}

// stream keeps a websocket open to the provider and forwards payloads. It
// owns the payload channel: the channel closes only when this goroutine
// returns, so a read can never race a close.
func (t *GatewayTransport) stream(ctx context.Context, token string) {
	defer close(t.payloads)

	url := wsURL(t.conf.ProviderURL) + "/stream?token=" + token
	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			logrus.WithError(err).Warn("push stream dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
				continue
			}
		}

		t.read(ctx, conn)
		conn.Close()
	}
}

func (t *GatewayTransport) read(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var payload model.PushPayload
		if err := conn.ReadJSON(&payload); err != nil {
			if ctx.Err() == nil {
				logrus.WithError(err).Warn("push stream read error")
			}
			return
		}
		select {
		case t.payloads <- payload:
		default:
			logrus.Warn("push payload buffer full, dropping payload")
		}
	}
}

func (t *GatewayTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		// the stream goroutine closes the channel on its way out
		t.cancel()
		return nil
	}
	close(t.payloads)
	return nil
}

func wsURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
