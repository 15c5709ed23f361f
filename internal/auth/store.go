// Package auth holds the signed-in identity and bearer token for one device
// and announces identity changes to the other client-state stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hometex/storefront/internal/notify"
	pkgauth "github.com/hometex/storefront/pkg/auth"
	"github.com/hometex/storefront/pkg/enums"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/hometexapi"
	"github.com/hometex/storefront/pkg/latency"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
	"github.com/hometex/storefront/pkg/observer"
	"github.com/hometex/storefront/pkg/storage"
)

const (
	storeName = "auth"

	loginFallbackMessage  = "Login failed. Please try again."
	signupFallbackMessage = "Signup failed. Please try again."
	missingTokenMessage   = "no token received"
)

// Backend is the external account service.
type Backend interface {
	Login(ctx context.Context, email, password string) (*hometexapi.AuthResponse, error)
	Signup(ctx context.Context, req hometexapi.SignupRequest) (*hometexapi.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

// StoreParams groups dependencies for the auth store.
type StoreParams struct {
	KV       storage.KV
	Backend  Backend
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
	// SocialWaiter simulates the provider round trip of SocialLogin.
	SocialWaiter latency.Waiter
	Now          func() time.Time
	// TokenLeeway tolerates clock skew when checking a persisted JWT's expiry.
	TokenLeeway time.Duration
}

// Store is the auth store for a single device.
type Store struct {
	mu      sync.Mutex
	current *Identity
	token   string

	persister *storage.Persister
	backend   Backend
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	waiter    latency.Waiter
	now       func() time.Time
	leeway    time.Duration
	validate  *validator.Validate
	topic     observer.Topic[*Identity]
}

// NewStore builds an auth store. Call Hydrate before handing it to other stores.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key-value storage is required")
	}
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth backend is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	waiter := params.SocialWaiter
	if waiter == nil {
		waiter = latency.Instant{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		persister: storage.NewPersister(params.KV, storeName, logg, params.Metrics),
		backend:   params.Backend,
		notifier:  notifier,
		logg:      logg,
		metrics:   params.Metrics,
		waiter:    waiter,
		now:       now,
		leeway:    params.TokenLeeway,
		validate:  newValidator(),
	}, nil
}

// Hydrate loads the persisted identity. Corrupt data and expired JWTs leave
// the store anonymous.
func (s *Store) Hydrate(ctx context.Context) {
	ctx = s.logg.WithStore(ctx, storeName)

	var persisted Identity
	if !s.persister.Load(ctx, storage.KeyUser, &persisted) || persisted.ID == "" {
		s.set(nil, "")
		return
	}

	token, ok := s.persister.LoadRaw(ctx, storage.KeyAuthToken)
	if !ok {
		token = persisted.Token
	}
	if token != "" && pkgauth.IsExpired(token, s.now(), s.leeway) {
		s.logg.Info(s.logg.WithUserID(ctx, persisted.ID), "persisted token expired, signing out")
		s.persister.Remove(ctx, storage.KeyUser)
		s.persister.Remove(ctx, storage.KeyAuthToken)
		s.set(nil, "")
		return
	}

	persisted.Token = token
	s.set(&persisted, token)
	s.topic.Publish(s.Current())
}

// Login authenticates against the backend and stores the resulting identity.
func (s *Store) Login(ctx context.Context, email, password string) error {
	ctx = s.logg.WithStore(ctx, storeName)
	resp, err := s.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("login failed: %v", err))
		s.notifier.Error(ctx, pkgerrors.UserMessage(err, loginFallbackMessage))
		return err
	}
	identity, err := s.identityFrom(ctx, resp, loginFallbackMessage)
	if err != nil {
		return err
	}
	s.signIn(ctx, identity, true, "login")
	s.notifier.Success(ctx, "Login successful!")
	return nil
}

// Signup registers an account and signs it in.
func (s *Store) Signup(ctx context.Context, req hometexapi.SignupRequest) error {
	ctx = s.logg.WithStore(ctx, storeName)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		verr := signupValidationError(err)
		s.notifier.Error(ctx, verr.Message())
		return verr
	}
	resp, err := s.backend.Signup(ctx, req)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("signup failed: %v", err))
		s.notifier.Error(ctx, pkgerrors.UserMessage(err, signupFallbackMessage))
		return err
	}
	identity, err := s.identityFrom(ctx, resp, signupFallbackMessage)
	if err != nil {
		return err
	}
	s.signIn(ctx, identity, true, "signup")
	s.notifier.Success(ctx, "Account created successfully!")
	return nil
}

// Logout signs out locally regardless of what the backend answers.
func (s *Store) Logout(ctx context.Context) error {
	ctx = s.logg.WithStore(ctx, storeName)
	token := s.Token()
	if token != "" {
		if err := s.backend.Logout(ctx, token); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("backend logout failed, continuing: %v", err))
		}
	}

	s.persister.Remove(ctx, storage.KeyUser)
	s.persister.Remove(ctx, storage.KeyAuthToken)
	s.set(nil, "")
	s.metrics.IncMutation(storeName, "logout")

	s.topic.Publish(nil)
	s.notifier.Success(ctx, "Logged out successfully")
	return nil
}

// SocialLogin signs in a synthetic identity for the provider after a
// simulated round trip. No token is issued.
func (s *Store) SocialLogin(ctx context.Context, provider enums.SocialProvider) error {
	ctx = s.logg.WithStore(ctx, storeName)
	if !provider.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported social provider")
	}
	if err := s.waiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "social login interrupted")
	}
	identity := &Identity{
		ID:    fmt.Sprintf("%s-%s", provider, uuid.NewString()),
		Email: fmt.Sprintf("user@%s.com", provider),
		Name:  provider.DisplayName() + " User",
	}
	s.signIn(ctx, identity, false, "social_login")
	s.notifier.Success(ctx, "Logged in with "+provider.DisplayName())
	return nil
}

// Current returns a copy of the signed-in identity, or nil.
func (s *Store) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Token returns the bearer token, empty when anonymous or for social identities.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn for identity changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn func(*Identity)) func() {
	return s.topic.Subscribe(fn)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func signupValidationError(err error) *pkgerrors.Error {
	verr := pkgerrors.Wrap(pkgerrors.CodeValidation, err, "please check the signup form")
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := map[string]string{}
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
		verr = verr.WithDetails(details)
	}
	return verr
}

func (s *Store) identityFrom(ctx context.Context, resp *hometexapi.AuthResponse, fallback string) (*Identity, error) {
	user, ok := resp.First()
	if !ok || strings.TrimSpace(user.Token) == "" {
		err := pkgerrors.New(pkgerrors.CodeMissingCredential, missingTokenMessage)
		s.logg.Error(ctx, "backend accepted credentials but returned no token", err)
		s.notifier.Error(ctx, missingTokenMessage)
		return nil, err
	}
	id := strings.TrimSpace(string(user.ID))
	if id == "" {
		err := pkgerrors.New(pkgerrors.CodeDependency, "account record has no id")
		s.logg.Error(ctx, "backend returned a token without an account id", err)
		s.notifier.Error(ctx, fallback)
		return nil, err
	}
	return &Identity{
		ID:    id,
		Email: user.Email,
		Name:  user.DisplayName(),
		Token: user.Token,
	}, nil
}

func (s *Store) signIn(ctx context.Context, identity *Identity, withToken bool, op string) {
	s.set(identity, identity.Token)
	s.persister.Save(ctx, storage.KeyUser, identity)
	if withToken {
		s.persister.SaveRaw(ctx, storage.KeyAuthToken, identity.Token)
	} else {
		s.persister.Remove(ctx, storage.KeyAuthToken)
	}
	s.metrics.IncMutation(storeName, op)
	s.logg.Info(s.logg.WithUserID(ctx, identity.ID), "signed in")
	s.topic.Publish(identity.clone())
}

func (s *Store) set(identity *Identity, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = identity.clone()
	s.token = token
}
