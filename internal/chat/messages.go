package chat

import (
	"sort"

	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

// MessageList holds the in-memory messages of the joined thread. The list is
// always ascending by creation time and deduplicated by id, whatever order
// join, push and history events arrive in.
type MessageList struct {
	pageSize int
	limit    int // size of the history window fetched so far
	hasMore  bool
	loading  bool
	msgs     []model.ChatMessage
	ids      map[uuid.UUID]struct{}
}

func NewMessageList(pageSize int) *MessageList {
	l := &MessageList{pageSize: pageSize}
	l.Reset()
	return l
}

func (l *MessageList) Reset() {
	l.limit = l.pageSize
	l.hasMore = true
	l.loading = false
	l.msgs = nil
	l.ids = make(map[uuid.UUID]struct{})
}

// Messages returns a copy of the ordered list.
func (l *MessageList) Messages() []model.ChatMessage {
	out := make([]model.ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *MessageList) Len() int      { return len(l.msgs) }
func (l *MessageList) HasMore() bool { return l.hasMore }
func (l *MessageList) Limit() int    { return l.limit }

// NextLimit is the window to request when loading older history: the whole
// window fetched so far plus one more page, re-fetched from the start.
func (l *MessageList) NextLimit() int {
	return l.limit + l.pageSize
}

// Ingest merges one live-pushed message: append, dedupe by id, re-sort
// ascending. Transport delivery order is not trusted. Reports whether the
// message was new.
func (l *MessageList) Ingest(m model.ChatMessage) bool {
	if _, dup := l.ids[m.ID]; dup {
		return false
	}
	l.ids[m.ID] = struct{}{}
	l.msgs = append(l.msgs, m)
	l.sortAscending()
	return true
}

// MergeHistory merges a fetched history window: every currently-held message
// is kept, fetched messages with unseen ids are added, order stays
// ascending. hasMore turns false when the server returned strictly fewer
// messages than requested; that is a heuristic, a server-side cap smaller
// than the requested limit can falsely exhaust it. Returns how many messages
// were added.
func (l *MessageList) MergeHistory(fetched []model.ChatMessage, requested int) int {
	added := 0
	for _, m := range fetched {
		if _, dup := l.ids[m.ID]; dup {
			continue
		}
		l.ids[m.ID] = struct{}{}
		l.msgs = append(l.msgs, m)
		added++
	}
	if added > 0 {
		l.sortAscending()
	}
	l.hasMore = len(fetched) >= requested
	if requested > l.limit {
		l.limit = requested
	}
	return added
}

func (l *MessageList) sortAscending() {
	sort.SliceStable(l.msgs, func(i, j int) bool {
		return l.msgs[i].CreatedAt.Before(l.msgs[j].CreatedAt)
	})
}
