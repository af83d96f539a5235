package push

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/push"
)

// EnvPermissions adapts the host notification permission to environment
// configuration, for deployments where no interactive prompt exists. The
// prompt outcome is pinned so repeated requests cannot re-prompt.
type EnvPermissions struct{}

func (EnvPermissions) Status() push.Permission {
	switch os.Getenv("NOTIFY_PERMISSION") {
	case "granted":
		return push.PermissionGranted
	case "denied":
		return push.PermissionDenied
	default:
		return push.PermissionDefault
	}
}

func (EnvPermissions) Request() push.Permission {
	outcome := os.Getenv("NOTIFY_PERMISSION_ON_PROMPT")
	if outcome == "" {
		outcome = "granted"
	}
	os.Setenv("NOTIFY_PERMISSION", outcome)
	if outcome == "granted" {
		return push.PermissionGranted
	}
	return push.PermissionDenied
}

// LogNotifier is the headless notification surface: it logs instead of
// raising OS notifications, and satisfies ViewRouter with no open views.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logrus.WithField("component", "notifier")}
}

func (n *LogNotifier) Show(ctx context.Context, sn SystemNotification) error {
	n.log.WithFields(logrus.Fields{"tag": sn.Tag, "title": sn.Title}).Info("system notification")
	return nil
}

func (n *LogNotifier) Close(tag string) {
	n.log.WithField("tag", tag).Debug("notification closed")
}

func (n *LogNotifier) FocusExisting() bool { return false }

func (n *LogNotifier) OpenRoute(route string) {
	n.log.WithField("route", route).Info("opening view")
}

// Render lets the headless notifier double as the in-app renderer.
func (n *LogNotifier) Render(payload model.PushPayload) {
	n.log.WithField("title", payload.Title).Info("in-app notification")
}
