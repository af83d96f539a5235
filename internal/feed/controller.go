package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/rest"
)

const controllerOrigin = "feed"

// API is the slice of the backend the controller consumes.
type API interface {
	ListNotifications(ctx context.Context, page, itemsPerPage int) ([]model.Notification, model.Page, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkSeen(ctx context.Context, id uuid.UUID) error
	SendNotification(ctx context.Context, req rest.SendNotificationRequest) error
}

// State is a copy of the controller state handed to consumers.
type State struct {
	Records     []model.Notification
	UnreadCount int
	Page        model.Page
	IsLoading   bool
	LastError   error
}

// Controller manages the paginated notification feed: wholesale page
// replacement, the independent unread counter, one-way mark-seen and the
// invalidation subject siblings publish to.
type Controller struct {
	api      API
	pageSize int
	subject  *Subject
	log      *logrus.Entry

	mu      sync.Mutex
	records []model.Notification
	unread  int
	page    model.Page
	loading bool
	lastErr error
}

func NewController(api API, pageSize int, subject *Subject) *Controller {
	c := &Controller{
		api:      api,
		pageSize: pageSize,
		subject:  subject,
		page:     model.Page{CurrentPage: 1, ItemsPerPage: pageSize},
		log:      logrus.WithField("component", "feed"),
	}
	subject.Subscribe(c.onInvalidated)
	return c
}

// Fetch replaces the record page wholesale with the server's contents and
// updates all pagination fields together. Pages are replaced on fetch, never
// merged; concurrent calls are not coalesced, the last response to resolve
// wins.
func (c *Controller) Fetch(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	records, meta, err := c.api.ListNotifications(ctx, page, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.lastErr = err
		c.log.WithError(err).WithField("page", page).Error("feed fetch failed")
		return err
	}
	c.lastErr = nil
	c.records = records
	c.page = meta
	if c.page.CurrentPage == 0 {
		c.page.CurrentPage = page
	}
	if c.page.ItemsPerPage == 0 {
		c.page.ItemsPerPage = c.pageSize
	}
	return nil
}

// FetchUnreadCount refreshes the unread counter independently of the page.
func (c *Controller) FetchUnreadCount(ctx context.Context) error {
	n, err := c.api.UnreadCount(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		return err
	}
	c.unread = n
	return nil
}

// MarkSeen flips the matching record optimistically before the network call
// and clamps the unread counter at zero. A server failure is returned to the
// caller; the local state is not rolled back here.
func (c *Controller) MarkSeen(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == id && !c.records[i].Seen {
			c.records[i].Seen = true
			if c.unread > 0 {
				c.unread--
			}
			break
		}
	}
	c.mu.Unlock()

	if err := c.api.MarkSeen(ctx, id); err != nil {
		c.log.WithError(err).WithField("notification_id", id).Error("mark seen failed")
		return err
	}
	return nil
}

// Send submits an outbound notification and, on success, re-fetches the
// current page to reconcile. The unread counter is untouched; it has its own
// fetch. A failure propagates so the caller can keep its form state.
func (c *Controller) Send(ctx context.Context, req rest.SendNotificationRequest) error {
	if err := c.api.SendNotification(ctx, req); err != nil {
		c.log.WithError(err).Error("send notification failed")
		return err
	}

	c.mu.Lock()
	current := c.page.CurrentPage
	c.mu.Unlock()
	return c.Fetch(ctx, current)
}

// IngestPushed merges out-of-order pushed records into the currently held
// page view, deduplicated by id and ordered by creation time.
func (c *Controller) IngestPushed(records ...model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(c.records))
	for _, r := range c.records {
		seen[r.ID] = struct{}{}
	}
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		c.records = append(c.records, r)
	}
	sort.SliceStable(c.records, func(i, j int) bool {
		return c.records[i].CreatedAt.Before(c.records[j].CreatedAt)
	})
}

// Snapshot copies the state for handlers.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]model.Notification, len(c.records))
	copy(records, c.records)
	return State{
		Records:     records,
		UnreadCount: c.unread,
		Page:        c.page,
		IsLoading:   c.loading,
		LastError:   c.lastErr,
	}
}

// onInvalidated re-fetches the current page and the unread counter when a
// sibling component announces a refresh it performed.
func (c *Controller) onInvalidated(ev Event) {
	if ev.Origin == controllerOrigin {
		return
	}
	ctx := context.Background()
	c.mu.Lock()
	current := c.page.CurrentPage
	c.mu.Unlock()
	if err := c.Fetch(ctx, current); err != nil {
		return
	}
	if err := c.FetchUnreadCount(ctx); err != nil {
		c.log.WithError(err).Warn("unread refresh after invalidation failed")
	}
}
