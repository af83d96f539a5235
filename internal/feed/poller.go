package feed

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const pollerOrigin = "poller"

// Poller is the dropdown-style consumer: it re-fetches the unread badge on a
// fixed interval regardless of visibility and publishes on the subject after
// each refresh, so the controller never stays inconsistent with it for more
// than one interval.
type Poller struct {
	api      API
	subject  *Subject
	interval time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
	unread  int
}

func NewPoller(api API, subject *Subject, interval time.Duration) *Poller {
	return &Poller{
		api:      api,
		subject:  subject,
		interval: interval,
		log:      logrus.WithField("component", "feed_poller"),
	}
}

func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.log.Warn("poller is already running")
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	go p.loop(p.stopCh)
}

func (p *Poller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.refresh()
		case <-stop:
			return
		}
	}
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	n, err := p.api.UnreadCount(ctx)
	if err != nil {
		p.log.WithError(err).Warn("poll refresh failed")
		return
	}
	p.mu.Lock()
	p.unread = n
	p.mu.Unlock()
	p.subject.Publish(Event{Origin: pollerOrigin})
}

// Unread returns the count the last successful poll fetched.
func (p *Poller) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// Stop cancels the timer; it must be called when the consuming view goes
// away.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}
