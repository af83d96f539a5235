package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moalmobayed/barq-dashboard-sub001/app"
)

var upgrader = websocket.Upgrader{}

func gatewayConfig(url string) *app.ChatConfig {
	return &app.ChatConfig{
		GatewayURL:        url,
		NamespacePath:     "/support",
		HandshakeTimeout:  2 * time.Second,
		ReconnectAttempts: 3,
		ReconnectDelay:    time.Millisecond,
		HistoryPageSize:   20,
	}
}

func TestGatewayDialer_PrefersUpgrade(t *testing.T) {
	gotAuth := make(chan string, 1)
	received := make(chan WireEvent, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/support/ws", func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		raw, _ := json.Marshal(map[string]string{"hello": "admin"})
		conn.WriteJSON(WireEvent{Event: EventNewChat, Data: raw})

		var ev WireEvent
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dialer := NewGatewayDialer(gatewayConfig(ts.URL), func() string { return "secret-token" })
	conn, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, ok := conn.(*wsConn); !ok {
		t.Fatalf("upgrade must be preferred, got %T", conn)
	}
	if auth := <-gotAuth; auth != "Bearer secret-token" {
		t.Fatalf("bearer credential missing from handshake: %q", auth)
	}

	ev, err := conn.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if ev.Event != EventNewChat {
		t.Fatalf("event: %q", ev.Event)
	}

	if err := conn.Emit(EventJoin, roomPayload{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	select {
	case got := <-received:
		if got.Event != EventJoin {
			t.Fatalf("server received %q", got.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the emit")
	}
}

func TestGatewayDialer_FallsBackToPolling(t *testing.T) {
	mux := http.NewServeMux()
	// no /support/ws route: the upgrade is refused
	mux.HandleFunc("/support/poll", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"sid": "sid-1"})
		case http.MethodGet:
			if r.URL.Query().Get("sid") != "sid-1" {
				http.Error(w, "unknown session", http.StatusBadRequest)
				return
			}
			raw, _ := json.Marshal(map[string]string{})
			json.NewEncoder(w).Encode([]WireEvent{{Event: EventChatJoin, Data: raw}})
		}
	})
	emitted := make(chan WireEvent, 1)
	mux.HandleFunc("/support/emit", func(w http.ResponseWriter, r *http.Request) {
		var ev WireEvent
		json.NewDecoder(r.Body).Decode(&ev)
		emitted <- ev
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dialer := NewGatewayDialer(gatewayConfig(ts.URL), func() string { return "secret-token" })
	conn, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial must fall back to polling: %v", err)
	}
	defer conn.Close()

	if _, ok := conn.(*pollConn); !ok {
		t.Fatalf("expected the polling transport, got %T", conn)
	}

	ev, err := conn.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent over polling: %v", err)
	}
	if ev.Event != EventChatJoin {
		t.Fatalf("event: %q", ev.Event)
	}

	if err := conn.Emit(EventLeave, roomPayload{}); err != nil {
		t.Fatalf("Emit over polling: %v", err)
	}
	select {
	case got := <-emitted:
		if got.Event != EventLeave {
			t.Fatalf("gateway received %q", got.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("gateway never received the emit")
	}
}

func TestGatewayDialer_HandshakeFailure(t *testing.T) {
	// a server that answers nothing useful on either transport
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	dialer := NewGatewayDialer(gatewayConfig(ts.URL), func() string { return "" })
	if _, err := dialer.Dial(context.Background()); err == nil {
		t.Fatal("expected the handshake to fail on both transports")
	}
}
