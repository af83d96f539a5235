package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	db, err := gorm.Open(dsn, &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.PushToken{}, &model.DeliveredPush{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakePermissions struct {
	mu       sync.Mutex
	status   Permission
	onPrompt Permission
	prompts  int
}

func (f *fakePermissions) Status() Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakePermissions) Request() Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts++
	f.status = f.onPrompt
	return f.status
}

type fakeTransport struct {
	token     string
	err       error
	registers int
	payloads  chan model.PushPayload
}

func (f *fakeTransport) Register(ctx context.Context) (string, error) {
	f.registers++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeTransport) Payloads() <-chan model.PushPayload { return f.payloads }
func (f *fakeTransport) Close() error                       { return nil }

type fakeProfile struct {
	tokens []string
	err    error
}

func (f *fakeProfile) UpdateProfileToken(ctx context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

func TestObtainToken_NoPromptWhenNotRequested(t *testing.T) {
	perms := &fakePermissions{status: PermissionDefault, onPrompt: PermissionGranted}
	transport := &fakeTransport{token: "tok-1"}
	r := NewRegistrar(newTestDB(t), transport, perms, &fakeProfile{})

	token, err := r.ObtainToken(context.Background(), false)
	if err != nil {
		t.Fatalf("ObtainToken: %v", err)
	}
	if token != "" {
		t.Fatalf("expected no token while permission is undecided, got %q", token)
	}
	if perms.prompts != 0 {
		t.Fatal("no prompt may be shown when not requested")
	}
	if transport.registers != 0 {
		t.Fatal("no registration may happen without permission")
	}
}

func TestObtainToken_DeniedIsSilent(t *testing.T) {
	perms := &fakePermissions{status: PermissionDenied}
	r := NewRegistrar(newTestDB(t), &fakeTransport{token: "tok-1"}, perms, &fakeProfile{})

	token, err := r.ObtainToken(context.Background(), true)
	if err != nil || token != "" {
		t.Fatalf("denied permission is non-fatal and tokenless, got %q, %v", token, err)
	}
	if perms.prompts != 0 {
		t.Fatal("a decided permission must never re-prompt")
	}
}

func TestObtainToken_RoundTrip(t *testing.T) {
	perms := &fakePermissions{status: PermissionDefault, onPrompt: PermissionGranted}
	transport := &fakeTransport{token: "tok-1"}
	profile := &fakeProfile{}
	r := NewRegistrar(newTestDB(t), transport, perms, profile)
	ctx := context.Background()

	token, err := r.ObtainToken(ctx, true)
	if err != nil {
		t.Fatalf("ObtainToken(prompt): %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token: %q", token)
	}
	if perms.prompts != 1 {
		t.Fatalf("prompts: %d", perms.prompts)
	}

	// same permission state, no prompt: the cached token comes back unchanged
	again, err := r.ObtainToken(ctx, false)
	if err != nil {
		t.Fatalf("ObtainToken(cached): %v", err)
	}
	if again != token {
		t.Fatalf("cached token differs: %q vs %q", again, token)
	}
	if perms.prompts != 1 {
		t.Fatal("re-call must not re-prompt")
	}
	if transport.registers != 1 {
		t.Fatalf("cache must serve the second call, registers=%d", transport.registers)
	}

	if len(profile.tokens) != 1 {
		t.Fatalf("token submitted %d times, want exactly once per session", len(profile.tokens))
	}
}

func TestObtainToken_SubmissionFailureKeepsCache(t *testing.T) {
	perms := &fakePermissions{status: PermissionGranted}
	db := newTestDB(t)
	profile := &fakeProfile{err: errors.New("backend down")}
	r := NewRegistrar(db, &fakeTransport{token: "tok-2"}, perms, profile)

	token, err := r.ObtainToken(context.Background(), false)
	if err != nil {
		t.Fatalf("ObtainToken: %v", err)
	}
	if token != "tok-2" {
		t.Fatalf("token: %q", token)
	}

	var row model.PushToken
	if err := db.Where("token = ?", "tok-2").First(&row).Error; err != nil {
		t.Fatalf("local cache must survive a failed submission: %v", err)
	}
	if row.Submitted {
		t.Fatal("failed submission must not be recorded as submitted")
	}
}

func TestObtainToken_UnsupportedTransport(t *testing.T) {
	perms := &fakePermissions{status: PermissionGranted}
	r := NewRegistrar(newTestDB(t), &fakeTransport{err: ErrUnsupported}, perms, &fakeProfile{})

	token, err := r.ObtainToken(context.Background(), false)
	if err != nil || token != "" {
		t.Fatalf("unsupported transport degrades silently, got %q, %v", token, err)
	}
}
