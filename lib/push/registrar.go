package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

// ProfileUpdater forwards an obtained token to the backend profile record.
type ProfileUpdater interface {
	UpdateProfileToken(ctx context.Context, token string) error
}

// Registrar owns the push token lifecycle: permission handling, registration
// with the provider, local caching and the one-shot backend submission.
type Registrar struct {
	db        *gorm.DB
	transport Transport
	perms     PermissionStore
	profile   ProfileUpdater

	mu        sync.Mutex
	submitted map[string]bool // tokens already submitted this session
}

func NewRegistrar(db *gorm.DB, transport Transport, perms PermissionStore, profile ProfileUpdater) *Registrar {
	return &Registrar{
		db:        db,
		transport: transport,
		perms:     perms,
		profile:   profile,
		submitted: make(map[string]bool),
	}
}

// ObtainToken returns the installation's push token, or "" when push is
// unavailable in the current permission state. When requestPermission is
// false it never prompts: permission still at default yields "" silently.
// Obtained tokens are always cached locally; the backend submission is
// fire-and-forget with a logged failure, attempted at most once per token
// per session.
func (r *Registrar) ObtainToken(ctx context.Context, requestPermission bool) (string, error) {
	switch r.perms.Status() {
	case PermissionDenied:
		return "", nil
	case PermissionDefault:
		if !requestPermission {
			return "", nil
		}
		if r.perms.Request() != PermissionGranted {
			return "", nil
		}
	}

	if cached := r.cachedToken(); cached != "" {
		r.submitOnce(ctx, cached)
		return cached, nil
	}

	token, err := r.transport.Register(ctx)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			logrus.Warn("push transport unsupported, continuing without push")
			return "", nil
		}
		return "", err
	}

	r.cache(token)
	r.submitOnce(ctx, token)
	return token, nil
}

func (r *Registrar) cachedToken() string {
	var row model.PushToken
	err := r.db.Order("created_at DESC").First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Warn("push token cache read failed")
		}
		return ""
	}
	return row.Token
}

// cache is unconditional once a token is obtained; a later submission
// failure never rolls it back.
func (r *Registrar) cache(token string) {
	now := time.Now()
	row := model.PushToken{Token: token}
	row.CreatedAt = &now
	if err := r.db.Where("token = ?", token).FirstOrCreate(&row).Error; err != nil {
		logrus.WithError(err).Warn("push token cache write failed")
	}
}

func (r *Registrar) submitOnce(ctx context.Context, token string) {
	r.mu.Lock()
	if r.submitted[token] {
		r.mu.Unlock()
		return
	}
	r.submitted[token] = true
	r.mu.Unlock()

	if err := r.profile.UpdateProfileToken(ctx, token); err != nil {
		logrus.WithError(err).Error("push token submission to profile failed")
		return
	}
	r.db.Model(&model.PushToken{}).Where("token = ?", token).Update("submitted", true)
}
