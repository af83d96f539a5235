package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/app"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

var (
	ErrEmptyReply   = errors.New("reply body is empty")
	ErrSendInFlight = errors.New("a reply is already being sent")
	ErrSessionDone  = errors.New("chat session is closed")
)

// Backend is the REST slice the chat session consumes.
type Backend interface {
	ListThreads(ctx context.Context, page int) ([]model.ChatThread, int, error)
	ListReplies(ctx context.Context, threadID uuid.UUID, limit int) ([]model.ChatMessage, error)
	CreateReply(ctx context.Context, threadID uuid.UUID, body string) error
}

type roomPayload struct {
	ChatID uuid.UUID `json:"chat_id"`
}

// Snapshot is the session state handed to consumers.
type Snapshot struct {
	State      State               `json:"state"`
	Joined     uuid.UUID           `json:"joined,omitempty"`
	Messages   []model.ChatMessage `json:"messages"`
	HasMore    bool                `json:"has_more"`
	AutoScroll bool                `json:"auto_scroll"`
	Sending    bool                `json:"sending"`
}

// ViewportUpdate is the session's reaction to a reported viewport.
type ViewportUpdate struct {
	OlderLoaded int  `json:"older_loaded"`
	AutoScroll  bool `json:"auto_scroll"`
}

// Session is the single support-chat connection of this console: at most
// one joined thread, an ordered deduplicated message list, and a gateway
// connection with a bounded automatic reconnect policy. After the automatic
// attempts give up, a later Join attempts the handshake again.
type Session struct {
	conf    *app.ChatConfig
	dialer  Dialer
	backend Backend
	threads *ThreadList
	log     *logrus.Entry

	mu         sync.Mutex
	state      State
	conn       Conn
	gen        int // connection generation; stale read loops are ignored
	joined     uuid.UUID
	msgs       *MessageList
	view       Viewport
	autoScroll bool
	sending    bool
	closed     bool
}

func NewSession(conf *app.ChatConfig, dialer Dialer, backend Backend) *Session {
	return &Session{
		conf:    conf,
		dialer:  dialer,
		backend: backend,
		threads: NewThreadList(backend),
		state:   StateDisconnected,
		msgs:    NewMessageList(conf.HistoryPageSize),
		log:     logrus.WithField("component", "chat_session"),
	}
}

func (s *Session) Threads() *ThreadList { return s.threads }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect performs the gateway handshake with the bounded retry policy:
// at most conf.ReconnectAttempts dials, a fixed conf.ReconnectDelay apart.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.adopt(conn)
	return nil
}

func (s *Session) dial(ctx context.Context) (Conn, error) {
	attempts := s.conf.ReconnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := s.dialer.Dial(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		s.log.WithError(err).WithField("attempt", attempt).Warn("chat handshake attempt failed")

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.conf.ReconnectDelay):
			}
		}
	}
	return nil, fmt.Errorf("chat gateway unreachable after %d attempts: %w", attempts, lastErr)
}

func (s *Session) adopt(conn Conn) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	go s.readLoop(gen, conn)
}

func (s *Session) readLoop(gen int, conn Conn) {
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			s.onReadFailure(gen, err)
			return
		}
		s.handleEvent(ev)
	}
}

// onReadFailure reconnects with the same bounded policy, then re-announces
// the joined room and reconciles the message list.
func (s *Session) onReadFailure(gen int, cause error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = StateConnecting
	s.mu.Unlock()

	s.log.WithError(cause).Warn("chat connection lost, reconnecting")

	conn, err := s.dial(context.Background())
	if err != nil {
		s.log.WithError(err).Error("chat reconnect gave up")
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return
	}
	s.adopt(conn)

	s.mu.Lock()
	joined := s.joined
	s.mu.Unlock()
	if joined == uuid.Nil {
		return
	}
	if err := conn.Emit(EventJoin, roomPayload{ChatID: joined}); err != nil {
		s.log.WithError(err).Warn("rejoin after reconnect failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.refreshMessages(ctx)
}

func (s *Session) handleEvent(ev WireEvent) {
	switch ev.Event {
	case EventChatMessage:
		var data struct {
			Chat  model.ChatThread  `json:"chat"`
			Reply model.ChatMessage `json:"reply"`
		}
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			s.log.WithError(err).Warn("malformed chat:message event")
			return
		}
		s.ingest(data.Chat.ID, data.Reply)
		go s.refreshThreads()
	case EventNewChat:
		go s.refreshThreads()
	case EventChatJoin, EventChatLeave:
		s.log.WithField("event", ev.Event).Debug("room event")
	default:
		s.log.WithField("event", ev.Event).Debug("ignoring unknown gateway event")
	}
}

// ingest merges a live message for the joined thread. The view is told to
// auto-scroll only when it was already near the bottom before the update, so
// a reader scrolled up into history keeps their position.
func (s *Session) ingest(threadID uuid.UUID, reply model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if threadID != s.joined {
		return
	}
	wasNearBottom := s.view.NearBottom()
	if s.msgs.Ingest(reply) {
		s.autoScroll = wasNearBottom
	}
}

func (s *Session) refreshThreads() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.threads.Refresh(ctx)
}

// Join selects a thread: leave the previously joined room, announce the new
// one, and load the initial history window. At most one thread is joined at
// a time. Joining while disconnected triggers a fresh handshake attempt.
func (s *Session) Join(ctx context.Context, threadID uuid.UUID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionDone
	}
	state := s.state
	s.mu.Unlock()

	if state == StateDisconnected {
		if err := s.Connect(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if s.joined == threadID {
		s.mu.Unlock()
		return nil
	}
	prev := s.joined
	s.joined = threadID
	s.msgs.Reset()
	s.autoScroll = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		if prev != uuid.Nil {
			if err := conn.Emit(EventLeave, roomPayload{ChatID: prev}); err != nil {
				s.log.WithError(err).Warn("leave emit failed")
			}
		}
		if err := conn.Emit(EventJoin, roomPayload{ChatID: threadID}); err != nil {
			s.log.WithError(err).Error("join emit failed")
		}
	}

	return s.refreshMessages(ctx)
}

// Leave exits the joined room without tearing the connection down.
func (s *Session) Leave() {
	s.mu.Lock()
	conn := s.conn
	joined := s.joined
	s.joined = uuid.Nil
	s.msgs.Reset()
	s.autoScroll = false
	s.mu.Unlock()

	if conn != nil && joined != uuid.Nil {
		if err := conn.Emit(EventLeave, roomPayload{ChatID: joined}); err != nil {
			s.log.WithError(err).Warn("leave emit failed")
		}
	}
}

// refreshMessages re-fetches the current history window and merges it.
func (s *Session) refreshMessages(ctx context.Context) error {
	s.mu.Lock()
	joined := s.joined
	limit := s.msgs.Limit()
	s.mu.Unlock()
	if joined == uuid.Nil {
		return nil
	}

	fetched, err := s.backend.ListReplies(ctx, joined, limit)
	if err != nil {
		s.log.WithError(err).WithField("thread_id", joined).Error("message refresh failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joined == joined {
		s.msgs.MergeHistory(fetched, limit)
	}
	return nil
}

// LoadOlder grows the history window by one page and merges the result,
// keeping every held message and prepending only unseen ids. It is a no-op
// while a load is in flight or when the server signalled exhausted history.
func (s *Session) LoadOlder(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.joined == uuid.Nil || s.msgs.loading || !s.msgs.hasMore {
		s.mu.Unlock()
		return 0, nil
	}
	s.msgs.loading = true
	joined := s.joined
	requested := s.msgs.NextLimit()
	s.mu.Unlock()

	fetched, err := s.backend.ListReplies(ctx, joined, requested)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs.loading = false
	if err != nil {
		s.log.WithError(err).WithField("thread_id", joined).Error("history load failed")
		return 0, err
	}
	if s.joined != joined {
		return 0, nil
	}
	return s.msgs.MergeHistory(fetched, requested), nil
}

// ReportViewport records the scroll state the UI measured and triggers a
// history load when the view is near the top.
func (s *Session) ReportViewport(ctx context.Context, v Viewport) (ViewportUpdate, error) {
	s.mu.Lock()
	s.view = v
	autoScroll := s.autoScroll
	s.mu.Unlock()

	update := ViewportUpdate{AutoScroll: autoScroll}
	if !v.NearTop() {
		return update, nil
	}

	added, err := s.LoadOlder(ctx)
	update.OlderLoaded = added
	return update, err
}

// SendReply submits an outbound reply. Empty and whitespace-only bodies are
// rejected, and a second submit is refused while one is in flight. On
// success the message list and the thread list are both refreshed; on
// failure the caller keeps its input.
func (s *Session) SendReply(ctx context.Context, threadID uuid.UUID, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyReply
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.sending = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	if err := s.backend.CreateReply(ctx, threadID, body); err != nil {
		s.log.WithError(err).WithField("thread_id", threadID).Error("send reply failed")
		return err
	}

	if err := s.refreshMessages(ctx); err != nil {
		s.log.WithError(err).Warn("message refresh after send failed")
	}
	if err := s.threads.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("thread refresh after send failed")
	}
	return nil
}

// Snapshot copies the session state for consumers.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Joined:     s.joined,
		Messages:   s.msgs.Messages(),
		HasMore:    s.msgs.HasMore(),
		AutoScroll: s.autoScroll,
		Sending:    s.sending,
	}
}

// Close leaves the joined room and terminates the connection. A session is
// not reusable after Close; leaving the room here is what keeps the gateway
// from holding a stale room registration.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	joined := s.joined
	s.conn = nil
	s.joined = uuid.Nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn != nil {
		if joined != uuid.Nil {
			if err := conn.Emit(EventLeave, roomPayload{ChatID: joined}); err != nil {
				s.log.WithError(err).Warn("leave emit on close failed")
			}
		}
		conn.Close()
	}
}
