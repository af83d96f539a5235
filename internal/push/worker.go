package push

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

// DefaultRoute is where a notification click lands when no view is open.
const DefaultRoute = "/notifications"

var fallbackTitle = map[string]string{
	"ar": "إشعار جديد",
	"en": "New notification",
}

var fallbackBody = map[string]string{
	"ar": "لديك إشعار جديد من برق",
	"en": "You have a new notification from Barq",
}

// SystemNotification is what the worker hands to the host notification
// surface. Tag is the coalescing key: the surface shows at most one
// notification per tag.
type SystemNotification struct {
	Tag   string
	Title string
	Body  string
	Data  map[string]string
}

// Notifier is the OS-level notification surface.
type Notifier interface {
	Show(ctx context.Context, n SystemNotification) error
	Close(tag string)
}

// ViewRouter locates application views for click routing. FocusExisting
// reports whether an open view was found and focused.
type ViewRouter interface {
	FocusExisting() bool
	OpenRoute(route string)
}

// Worker is the background delivery worker: it turns push payloads into
// system notifications while no foreground listener is attached, and routes
// notification clicks.
type Worker struct {
	db       *gorm.DB
	notifier Notifier
	router   ViewRouter
	locale   string
	log      *logrus.Entry
}

func NewWorker(db *gorm.DB, notifier Notifier, router ViewRouter, locale string) *Worker {
	return &Worker{
		db:       db,
		notifier: notifier,
		router:   router,
		locale:   locale,
		log:      logrus.WithField("component", "push_worker"),
	}
}

// Handle shows exactly one system notification for the payload. Repeated
// delivery of the same messageId is coalesced via the persisted tag.
func (w *Worker) Handle(ctx context.Context, payload model.PushPayload) error {
	tag := payload.MessageID
	if tag == "" {
		tag = uuid.NewString()
	}

	if w.alreadyShown(tag) {
		w.log.WithField("tag", tag).Debug("duplicate payload, coalesced by tag")
		return nil
	}

	title := payload.Title
	if title == "" {
		title = localized(fallbackTitle, w.locale)
	}
	body := payload.Body
	if body == "" {
		body = localized(fallbackBody, w.locale)
	}

	if err := w.notifier.Show(ctx, SystemNotification{
		Tag:   tag,
		Title: title,
		Body:  body,
		Data:  payload.Data,
	}); err != nil {
		w.log.WithError(err).WithField("tag", tag).Error("failed to show system notification")
		return err
	}

	w.markShown(tag)
	return nil
}

// HandleClick closes the notification, then focuses an already-open view or
// opens a new one at the notifications route. Exactly one of the two happens.
func (w *Worker) HandleClick(tag string) {
	w.notifier.Close(tag)
	if w.router.FocusExisting() {
		return
	}
	w.router.OpenRoute(DefaultRoute)
}

func (w *Worker) alreadyShown(tag string) bool {
	var row model.DeliveredPush
	err := w.db.Where("message_id = ?", tag).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			w.log.WithError(err).Warn("dedupe lookup failed")
		}
		return false
	}
	return true
}

func (w *Worker) markShown(tag string) {
	row := model.DeliveredPush{MessageID: tag, ShownAt: time.Now()}
	if err := w.db.Create(&row).Error; err != nil {
		w.log.WithError(err).Warn("failed to record delivered tag")
	}
}

func localized(texts map[string]string, locale string) string {
	if v, ok := texts[locale]; ok {
		return v
	}
	return texts["en"]
}
