package push

import (
	"context"
	"errors"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

// ErrUnsupported means the push transport is not available in this
// environment. Callers degrade to the polling-only feed, they never crash.
var ErrUnsupported = errors.New("push transport unsupported")

// Transport registers this installation with the push service and exposes
// the stream of payloads the service delivers to it.
type Transport interface {
	// Register obtains an opaque token scoped to the configured project.
	// Repeated calls in the same permission state return the same token.
	Register(ctx context.Context) (string, error)
	// Payloads is the delivery stream. It is closed when the transport
	// shuts down.
	Payloads() <-chan model.PushPayload
	Close() error
}
