package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/rest"
)

type fakeAPI struct {
	mu sync.Mutex

	pages      map[int][]model.Notification
	meta       model.Page
	unread     int
	listCalls  int
	seenCalls  []uuid.UUID
	sendErr    error
	seenErr    error
	sentCount  int
	unreadErr  error
	listErr    error
	onSendDone func()
}

func (f *fakeAPI) ListNotifications(ctx context.Context, page, itemsPerPage int) ([]model.Notification, model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, model.Page{}, f.listErr
	}
	meta := f.meta
	meta.CurrentPage = page
	meta.ItemsPerPage = itemsPerPage
	records := f.pages[page]
	if records == nil {
		records = []model.Notification{}
	}
	return records, meta, nil
}

func (f *fakeAPI) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	return f.unread, nil
}

func (f *fakeAPI) MarkSeen(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenCalls = append(f.seenCalls, id)
	return f.seenErr
}

func (f *fakeAPI) SendNotification(ctx context.Context, req rest.SendNotificationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentCount++
	if f.onSendDone != nil {
		f.onSendDone()
	}
	return nil
}

func notif(at time.Time, seen bool) model.Notification {
	return model.Notification{
		ID:        uuid.New(),
		Title:     model.Localized("عنوان", "title"),
		Type:      model.NotificationOrder,
		Seen:      seen,
		CreatedAt: at,
	}
}

func TestFetch_ReplacesWholesale(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		pages: map[int][]model.Notification{
			1: {notif(now, false), notif(now.Add(time.Second), false)},
			2: {notif(now.Add(2 * time.Second), true)},
		},
		meta: model.Page{TotalPages: 2, TotalItems: 3},
	}
	c := NewController(api, 10, NewSubject())

	if err := c.Fetch(context.Background(), 1); err != nil {
		t.Fatalf("Fetch page 1: %v", err)
	}
	if got := len(c.Snapshot().Records); got != 2 {
		t.Fatalf("page 1 records: %d", got)
	}

	if err := c.Fetch(context.Background(), 2); err != nil {
		t.Fatalf("Fetch page 2: %v", err)
	}
	state := c.Snapshot()
	if len(state.Records) != 1 {
		t.Fatalf("page 2 must replace, not merge: got %d records", len(state.Records))
	}
	if state.Page.CurrentPage != 2 || state.Page.TotalPages != 2 {
		t.Fatalf("pagination not updated atomically: %+v", state.Page)
	}
}

func TestFetch_PageBeyondEnd(t *testing.T) {
	api := &fakeAPI{
		pages: map[int][]model.Notification{},
		meta:  model.Page{TotalPages: 3, TotalItems: 25},
	}
	c := NewController(api, 10, NewSubject())

	if err := c.Fetch(context.Background(), 7); err != nil {
		t.Fatalf("fetch beyond totalPages must not fail: %v", err)
	}
	state := c.Snapshot()
	if len(state.Records) != 0 {
		t.Fatalf("expected empty records, got %d", len(state.Records))
	}
	if state.Page.CurrentPage != 7 {
		t.Fatalf("currentPage must reflect the fetch, got %d", state.Page.CurrentPage)
	}
}

func TestMarkSeen_ExactlyOnceAndClamped(t *testing.T) {
	now := time.Now()
	target := notif(now, false)
	api := &fakeAPI{
		pages:  map[int][]model.Notification{1: {target}},
		meta:   model.Page{TotalPages: 1, TotalItems: 1},
		unread: 1,
	}
	c := NewController(api, 10, NewSubject())
	ctx := context.Background()

	if err := c.Fetch(ctx, 1); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if err := c.FetchUnreadCount(ctx); err != nil {
		t.Fatalf("FetchUnreadCount: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := c.MarkSeen(ctx, target.ID); err != nil {
			t.Fatalf("MarkSeen #%d: %v", i, err)
		}
	}

	state := c.Snapshot()
	if !state.Records[0].Seen {
		t.Fatal("record not flipped to seen")
	}
	if state.UnreadCount != 0 {
		t.Fatalf("unread must be decremented once and clamped at 0, got %d", state.UnreadCount)
	}
	if len(api.seenCalls) != 3 {
		t.Fatalf("every call still reaches the backend, got %d", len(api.seenCalls))
	}
}

func TestMarkSeen_ServerFailureKeepsOptimisticState(t *testing.T) {
	target := notif(time.Now(), false)
	api := &fakeAPI{
		pages:   map[int][]model.Notification{1: {target}},
		meta:    model.Page{TotalPages: 1, TotalItems: 1},
		unread:  1,
		seenErr: errors.New("backend down"),
	}
	c := NewController(api, 10, NewSubject())
	ctx := context.Background()
	c.Fetch(ctx, 1)
	c.FetchUnreadCount(ctx)

	if err := c.MarkSeen(ctx, target.ID); err == nil {
		t.Fatal("expected the server failure to surface")
	}
	state := c.Snapshot()
	if !state.Records[0].Seen || state.UnreadCount != 0 {
		t.Fatalf("optimistic state must not roll back automatically: %+v", state)
	}
}

func TestIngestPushed_SortsOutOfOrderArrivals(t *testing.T) {
	t0 := time.Now().Truncate(time.Second)
	earlier := notif(t0, false)
	later := notif(t0.Add(time.Second), false)

	c := NewController(&fakeAPI{pages: map[int][]model.Notification{}}, 10, NewSubject())

	// later one arrives first
	c.IngestPushed(later)
	c.IngestPushed(earlier)
	c.IngestPushed(later) // duplicate push

	state := c.Snapshot()
	if len(state.Records) != 2 {
		t.Fatalf("duplicate must be dropped, got %d records", len(state.Records))
	}
	if !state.Records[0].CreatedAt.Before(state.Records[1].CreatedAt) {
		t.Fatal("records not ordered by creation time")
	}
	if state.Records[0].ID != earlier.ID {
		t.Fatal("T0 must display before T0+1s")
	}
}

func TestSend_RefetchesCurrentPageOnly(t *testing.T) {
	api := &fakeAPI{
		pages:  map[int][]model.Notification{1: {notif(time.Now(), false)}},
		meta:   model.Page{TotalPages: 1, TotalItems: 1},
		unread: 5,
	}
	c := NewController(api, 10, NewSubject())
	ctx := context.Background()
	c.Fetch(ctx, 1)
	c.FetchUnreadCount(ctx)

	sent := notif(time.Now().Add(time.Minute), false)
	api.onSendDone = func() {
		api.pages[1] = append(api.pages[1], sent)
	}

	before := api.listCalls
	if err := c.Send(ctx, rest.SendNotificationRequest{TitleEn: "hi", TitleAr: "مرحبا"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	state := c.Snapshot()
	if api.listCalls != before+1 {
		t.Fatalf("send must trigger exactly one reconciling fetch, got %d extra", api.listCalls-before)
	}
	if len(state.Records) != 2 {
		t.Fatalf("new item must appear after the re-fetch, got %d records", len(state.Records))
	}
	if state.UnreadCount != 5 {
		t.Fatalf("unread count has its own fetch and must stay, got %d", state.UnreadCount)
	}
}

func TestSend_FailurePropagates(t *testing.T) {
	api := &fakeAPI{
		pages:   map[int][]model.Notification{},
		sendErr: errors.New("validation failed"),
	}
	c := NewController(api, 10, NewSubject())

	before := api.listCalls
	if err := c.Send(context.Background(), rest.SendNotificationRequest{TitleEn: "x"}); err == nil {
		t.Fatal("expected send failure to propagate")
	}
	if api.listCalls != before {
		t.Fatal("no reconciling fetch on failure")
	}
}

func TestSubject_InvalidationTriggersRefetch(t *testing.T) {
	api := &fakeAPI{
		pages:  map[int][]model.Notification{1: {notif(time.Now(), false)}},
		meta:   model.Page{TotalPages: 1, TotalItems: 1},
		unread: 2,
	}
	subject := NewSubject()
	c := NewController(api, 10, subject)
	c.Fetch(context.Background(), 1)

	before := api.listCalls
	subject.Publish(Event{Origin: "poller"})
	if api.listCalls != before+1 {
		t.Fatalf("sibling refresh must re-fetch the current page, calls=%d", api.listCalls-before)
	}
	if c.Snapshot().UnreadCount != 2 {
		t.Fatal("unread count not refreshed on invalidation")
	}

	// the controller's own origin must not loop
	before = api.listCalls
	subject.Publish(Event{Origin: controllerOrigin})
	if api.listCalls != before {
		t.Fatal("controller must ignore its own events")
	}
}
