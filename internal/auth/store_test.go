package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hometex/storefront/internal/notify"
	"github.com/hometex/storefront/pkg/enums"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/hometexapi"
	"github.com/hometex/storefront/pkg/storage"
	"github.com/hometex/storefront/pkg/storage/storagetest"
)

type stubBackend struct {
	loginResp  *hometexapi.AuthResponse
	loginErr   error
	signupResp *hometexapi.AuthResponse
	signupErr  error
	logoutErr  error

	signupCalls  int
	logoutTokens []string
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*hometexapi.AuthResponse, error) {
	return b.loginResp, b.loginErr
}

func (b *stubBackend) Signup(ctx context.Context, req hometexapi.SignupRequest) (*hometexapi.AuthResponse, error) {
	b.signupCalls++
	return b.signupResp, b.signupErr
}

func (b *stubBackend) Logout(ctx context.Context, token string) error {
	b.logoutTokens = append(b.logoutTokens, token)
	return b.logoutErr
}

func okResponse(id, token string) *hometexapi.AuthResponse {
	return &hometexapi.AuthResponse{Data: []hometexapi.AuthUser{{
		ID: hometexapi.ID(id), Email: id + "@x.com", FirstName: "Ada", LastName: "Lee", Token: token,
	}}}
}

func newTestStore(t *testing.T, kv storage.KV, backend Backend) (*Store, *notify.Feed) {
	t.Helper()
	feed := notify.NewFeed(10)
	store, err := NewStore(StoreParams{
		KV:       kv,
		Backend:  backend,
		Notifier: feed,
		Now:      func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, feed
}

func TestNewStoreRequiresDependencies(t *testing.T) {
	if _, err := NewStore(StoreParams{Backend: &stubBackend{}}); err == nil {
		t.Fatal("expected missing kv to fail")
	}
	if _, err := NewStore(StoreParams{KV: storage.NewMemory().ForDevice("d")}); err == nil {
		t.Fatal("expected missing backend to fail")
	}
}

func TestLoginPersistsIdentityAndToken(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	store, feed := newTestStore(t, kv, &stubBackend{loginResp: okResponse("u1", "t1")})

	var published []*Identity
	store.Subscribe(func(id *Identity) { published = append(published, id) })

	if err := store.Login(context.Background(), "u1@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	current := store.Current()
	if current == nil || current.ID != "u1" || current.Name != "Ada Lee" || current.Token != "t1" {
		t.Fatalf("unexpected identity %+v", current)
	}
	if storagetest.Raw(kv, storage.KeyAuthToken) != "t1" {
		t.Fatalf("expected raw token to be persisted, got %q", storagetest.Raw(kv, storage.KeyAuthToken))
	}
	if !strings.Contains(storagetest.Raw(kv, storage.KeyUser), `"id":"u1"`) {
		t.Fatalf("unexpected persisted user %s", storagetest.Raw(kv, storage.KeyUser))
	}
	if len(published) != 1 || published[0].ID != "u1" {
		t.Fatalf("expected identity to be published once, got %+v", published)
	}
	notices := feed.Drain()
	if len(notices) != 1 || notices[0].Level != "success" {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestLoginWithoutTokenLeavesIdentityUnchanged(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	for _, resp := range []*hometexapi.AuthResponse{okResponse("u1", ""), {Data: nil}} {
		store, feed := newTestStore(t, kv, &stubBackend{loginResp: resp})
		err := store.Login(context.Background(), "u1@x.com", "pw")
		if !pkgerrors.IsCode(err, pkgerrors.CodeMissingCredential) {
			t.Fatalf("expected missing credential error, got %v", err)
		}
		if store.Current() != nil {
			t.Fatal("identity must stay anonymous")
		}
		if storagetest.Raw(kv, storage.KeyUser) != "" {
			t.Fatal("nothing should be persisted")
		}
		notices := feed.Drain()
		if len(notices) != 1 || notices[0].Level != "error" || notices[0].Message != "no token received" {
			t.Fatalf("unexpected notices %+v", notices)
		}
	}
}

func TestLoginCollaboratorFailureSurfacesMessage(t *testing.T) {
	backendErr := pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials").FromServer()
	store, feed := newTestStore(t, storage.NewMemory().ForDevice("d"), &stubBackend{loginErr: backendErr})

	err := store.Login(context.Background(), "u1@x.com", "bad")
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	notices := feed.Drain()
	if len(notices) != 1 || notices[0].Message != "Invalid credentials" {
		t.Fatalf("unexpected notices %+v", notices)
	}

	store, feed = newTestStore(t, storage.NewMemory().ForDevice("d"), &stubBackend{loginErr: errors.New("dial tcp: refused")})
	_ = store.Login(context.Background(), "u1@x.com", "pw")
	notices = feed.Drain()
	if len(notices) != 1 || notices[0].Message != loginFallbackMessage {
		t.Fatalf("expected fallback message, got %+v", notices)
	}
}

func TestLoginUnreachableBackendShowsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	kv := storage.NewMemory().ForDevice("d")
	store, feed := newTestStore(t, kv, hometexapi.NewClient(hometexapi.WithBaseURL(url)))

	if err := store.Login(context.Background(), "u1@x.com", "pw"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	notices := feed.Drain()
	if len(notices) != 1 || notices[0].Level != "error" || notices[0].Message != loginFallbackMessage {
		t.Fatalf("expected login fallback toast, got %+v", notices)
	}

	_ = store.Signup(context.Background(), hometexapi.SignupRequest{
		FirstName: "Ada", LastName: "Lee", Email: "u1@x.com", Phone: "5551234", Password: "secret123", ConfPassword: "secret123",
	})
	notices = feed.Drain()
	if len(notices) != 1 || notices[0].Message != signupFallbackMessage {
		t.Fatalf("expected signup fallback toast, got %+v", notices)
	}
}

func TestLoginStatusWithoutBodyShowsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store, feed := newTestStore(t, storage.NewMemory().ForDevice("d"),
		hometexapi.NewClient(hometexapi.WithBaseURL(srv.URL), hometexapi.WithHTTPClient(srv.Client())))
	if err := store.Login(context.Background(), "u1@x.com", "pw"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	notices := feed.Drain()
	if len(notices) != 1 || notices[0].Message != loginFallbackMessage {
		t.Fatalf("expected login fallback toast, got %+v", notices)
	}
}

func TestLoginWithoutAccountIDLeavesIdentityUnchanged(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	store, feed := newTestStore(t, kv, &stubBackend{loginResp: &hometexapi.AuthResponse{Data: []hometexapi.AuthUser{{
		Email: "nobody@x.com", Token: "t1",
	}}}})

	var published []*Identity
	store.Subscribe(func(id *Identity) { published = append(published, id) })

	err := store.Login(context.Background(), "nobody@x.com", "pw")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if store.Current() != nil || store.Token() != "" {
		t.Fatalf("identity must stay anonymous, got %+v", store.Current())
	}
	if storagetest.Raw(kv, storage.KeyUser) != "" || storagetest.Raw(kv, storage.KeyAuthToken) != "" {
		t.Fatal("nothing should be persisted")
	}
	if len(published) != 0 {
		t.Fatalf("no identity change expected, got %+v", published)
	}
	notices := feed.Drain()
	if len(notices) != 1 || notices[0].Level != "error" || notices[0].Message != loginFallbackMessage {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestSignupValidatesBeforeCallingBackend(t *testing.T) {
	backend := &stubBackend{signupResp: okResponse("u2", "t2")}
	store, _ := newTestStore(t, storage.NewMemory().ForDevice("d"), backend)

	req := hometexapi.SignupRequest{
		FirstName: "Bo", LastName: "X", Email: "b@x.com", Phone: "0123456789",
		Password: "secret1", ConfPassword: "secret2",
	}
	err := store.Signup(context.Background(), req)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["conf_password"] != "eqfield" {
		t.Fatalf("expected conf_password mismatch detail, got %+v", details)
	}
	if backend.signupCalls != 0 {
		t.Fatal("backend must not be called for invalid payloads")
	}

	req.ConfPassword = "secret1"
	if err := store.Signup(context.Background(), req); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if store.Current() == nil || store.Current().ID != "u2" {
		t.Fatalf("unexpected identity %+v", store.Current())
	}
}

func TestLogoutIgnoresBackendFailure(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	backend := &stubBackend{loginResp: okResponse("u1", "t1"), logoutErr: errors.New("boom")}
	store, _ := newTestStore(t, kv, backend)
	if err := store.Login(context.Background(), "u1@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var published []*Identity
	store.Subscribe(func(id *Identity) { published = append(published, id) })

	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
	if len(backend.logoutTokens) != 1 || backend.logoutTokens[0] != "t1" {
		t.Fatalf("expected backend logout with token, got %v", backend.logoutTokens)
	}
	if store.Current() != nil || store.Token() != "" {
		t.Fatal("expected anonymous after logout")
	}
	if storagetest.Raw(kv, storage.KeyUser) != "" || storagetest.Raw(kv, storage.KeyAuthToken) != "" {
		t.Fatal("expected both keys removed")
	}
	if len(published) != 1 || published[0] != nil {
		t.Fatalf("expected nil identity published, got %+v", published)
	}
}

func TestHydrateRestoresIdentity(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	ctx := context.Background()
	_ = kv.Set(ctx, storage.KeyUser, `{"id":"u1","email":"u1@x.com","name":"Ada","token":"t1"}`)
	_ = kv.Set(ctx, storage.KeyAuthToken, "t1")

	store, _ := newTestStore(t, kv, &stubBackend{})
	store.Hydrate(ctx)
	if store.Current() == nil || store.Current().ID != "u1" || store.Token() != "t1" {
		t.Fatalf("unexpected hydrated identity %+v", store.Current())
	}
}

func TestHydrateCorruptUserIsAnonymous(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	_ = kv.Set(context.Background(), storage.KeyUser, "{not json")

	store, _ := newTestStore(t, kv, &stubBackend{})
	store.Hydrate(context.Background())
	if store.Current() != nil {
		t.Fatal("corrupt user must hydrate as anonymous")
	}
}

func TestHydrateDropsExpiredJWT(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	kv := storage.NewMemory().ForDevice("d")
	ctx := context.Background()
	_ = kv.Set(ctx, storage.KeyUser, `{"id":"u1","email":"u1@x.com","name":"Ada","token":"`+expired+`"}`)
	_ = kv.Set(ctx, storage.KeyAuthToken, expired)

	store, _ := newTestStore(t, kv, &stubBackend{})
	store.Hydrate(ctx)
	if store.Current() != nil {
		t.Fatal("expired token must hydrate as anonymous")
	}
	if storagetest.Raw(kv, storage.KeyUser) != "" || storagetest.Raw(kv, storage.KeyAuthToken) != "" {
		t.Fatal("expected expired identity to be cleared")
	}
}

func TestSocialLoginManufacturesIdentity(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	store, _ := newTestStore(t, kv, &stubBackend{})

	if err := store.SocialLogin(context.Background(), enums.SocialProviderGoogle); err != nil {
		t.Fatalf("social login: %v", err)
	}
	current := store.Current()
	if current == nil || !strings.HasPrefix(current.ID, "google-") {
		t.Fatalf("unexpected identity %+v", current)
	}
	if current.Email != "user@google.com" || current.Name != "Google User" || current.Token != "" {
		t.Fatalf("unexpected identity %+v", current)
	}
	if storagetest.Raw(kv, storage.KeyAuthToken) != "" {
		t.Fatal("social login must not persist a token")
	}

	if err := store.SocialLogin(context.Background(), enums.SocialProvider("myspace")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSocialLoginHonoursCancellation(t *testing.T) {
	store, _ := newTestStore(t, storage.NewMemory().ForDevice("d"), &stubBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.SocialLogin(ctx, enums.SocialProviderApple); err == nil {
		t.Fatal("expected cancelled social login to fail")
	}
	if store.Current() != nil {
		t.Fatal("identity must stay anonymous after cancellation")
	}
}

func TestLoginSurvivesStorageFailure(t *testing.T) {
	kv := storagetest.NewFlaky()
	kv.FailWrites = true
	store, _ := newTestStore(t, kv, &stubBackend{loginResp: okResponse("u1", "t1")})
	if err := store.Login(context.Background(), "u1@x.com", "pw"); err != nil {
		t.Fatalf("storage failure must not fail login: %v", err)
	}
	if store.Current() == nil || store.Current().ID != "u1" {
		t.Fatal("in-memory identity stays authoritative")
	}
}
