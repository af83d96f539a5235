package push

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/push"
)

// InAppRenderer renders a payload inside the application, without OS
// involvement.
type InAppRenderer interface {
	Render(payload model.PushPayload)
}

// Stream is the foreground delivery channel. A single registration yields
// payloads repeatedly until unsubscribed; there is no re-armed one-shot
// wait. While a subscriber is attached, foreground delivery suppresses the
// background worker for the same payload.
type Stream struct {
	mu  sync.Mutex
	sub chan model.PushPayload
}

func NewStream() *Stream {
	return &Stream{}
}

// Subscribe attaches the single foreground subscriber. The returned func
// detaches it and closes the channel; calling it twice is safe.
func (s *Stream) Subscribe() (<-chan model.PushPayload, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		close(s.sub)
	}
	ch := make(chan model.PushPayload, 16)
	s.sub = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.sub == ch {
				s.sub = nil
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Deliver hands the payload to the foreground subscriber if one is attached.
// It reports whether the payload was claimed.
func (s *Stream) Deliver(payload model.PushPayload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return false
	}
	select {
	case s.sub <- payload:
		return true
	default:
		logrus.Warn("foreground stream full, dropping payload")
		return true // claimed but dropped; never fall through to the OS path
	}
}

// Listener consumes the foreground stream and renders in-app notifications.
// Permission is checked at render time, not cached, because it can be
// revoked out-of-band.
type Listener struct {
	stream   *Stream
	perms    push.PermissionStore
	renderer InAppRenderer
}

func NewListener(stream *Stream, perms push.PermissionStore, renderer InAppRenderer) *Listener {
	return &Listener{stream: stream, perms: perms, renderer: renderer}
}

// Run subscribes and renders until the context ends, then unsubscribes.
func (l *Listener) Run(ctx context.Context) {
	ch, cancel := l.stream.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if l.perms.Status() != push.PermissionGranted {
				continue
			}
			l.renderer.Render(payload)
		}
	}
}

// FeedIngester merges pushed notification records into the feed page.
type FeedIngester interface {
	IngestPushed(records ...model.Notification)
}

// FeedRenderer tees foreground payloads: render in-app, then merge the
// record into the notification feed so the page reflects the push without
// waiting for the next poll.
type FeedRenderer struct {
	next InAppRenderer
	feed FeedIngester
}

func NewFeedRenderer(next InAppRenderer, feed FeedIngester) *FeedRenderer {
	return &FeedRenderer{next: next, feed: feed}
}

func (r *FeedRenderer) Render(payload model.PushPayload) {
	r.next.Render(payload)
	r.feed.IngestPushed(notificationFrom(payload))
}

// notificationFrom rebuilds a feed record from the pushed payload. The data
// map carries the record fields when the backend sent them; the visible
// title and body fill any gap.
func notificationFrom(p model.PushPayload) model.Notification {
	id, err := uuid.Parse(p.Data["notification_id"])
	if err != nil {
		if id, err = uuid.Parse(p.MessageID); err != nil {
			id = uuid.New()
		}
	}

	kind := model.NotificationType(p.Data["type"])
	switch kind {
	case model.NotificationOrder, model.NotificationVendor, model.NotificationCustomer:
	default:
		kind = model.NotificationOther
	}

	titleAr, titleEn := p.Data["title_ar"], p.Data["title_en"]
	if titleAr == "" {
		titleAr = p.Title
	}
	if titleEn == "" {
		titleEn = p.Title
	}
	bodyAr, bodyEn := p.Data["body_ar"], p.Data["body_en"]
	if bodyAr == "" {
		bodyAr = p.Body
	}
	if bodyEn == "" {
		bodyEn = p.Body
	}

	return model.Notification{
		ID:        id,
		Title:     model.Localized(titleAr, titleEn),
		Body:      model.Localized(bodyAr, bodyEn),
		Type:      kind,
		TargetRef: p.Data["target_ref"],
		CreatedAt: time.Now(),
	}
}

// Dispatcher fans transport payloads out to the foreground stream or, when
// no subscriber is attached, to the background worker. The two paths are
// mutually exclusive per payload.
type Dispatcher struct {
	payloads <-chan model.PushPayload
	stream   *Stream
	worker   *Worker
}

func NewDispatcher(payloads <-chan model.PushPayload, stream *Stream, worker *Worker) *Dispatcher {
	return &Dispatcher{payloads: payloads, stream: stream, worker: worker}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-d.payloads:
			if !ok {
				return
			}
			if d.stream.Deliver(payload) {
				continue
			}
			if err := d.worker.Handle(ctx, payload); err != nil {
				logrus.WithError(err).Warn("background delivery failed")
			}
		}
	}
}
