package chat

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

// ThreadList caches the active page of the gateway's thread list. Refreshes
// are full re-fetches of the current page, not incremental merges.
type ThreadList struct {
	backend Backend
	log     *logrus.Entry

	mu      sync.Mutex
	page    int
	pages   int
	threads []model.ChatThread
}

func NewThreadList(backend Backend) *ThreadList {
	return &ThreadList{
		backend: backend,
		page:    1,
		log:     logrus.WithField("component", "chat_threads"),
	}
}

func (t *ThreadList) Refresh(ctx context.Context) error {
	t.mu.Lock()
	page := t.page
	t.mu.Unlock()

	threads, pages, err := t.backend.ListThreads(ctx, page)
	if err != nil {
		t.log.WithError(err).WithField("page", page).Error("thread list refresh failed")
		return err
	}

	t.mu.Lock()
	t.threads = threads
	t.pages = pages
	t.mu.Unlock()
	return nil
}

func (t *ThreadList) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	t.mu.Lock()
	t.page = page
	t.mu.Unlock()
	return t.Refresh(ctx)
}

func (t *ThreadList) Snapshot() ([]model.ChatThread, int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	threads := make([]model.ChatThread, len(t.threads))
	copy(threads, t.threads)
	return threads, t.page, t.pages
}
