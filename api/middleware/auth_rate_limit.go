package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/api/validators"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy throttles one auth endpoint per device and per email.
type AuthRateLimitPolicy struct {
	name        string
	window      time.Duration
	deviceLimit int
	emailLimit  int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, deviceLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, deviceLimit: deviceLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.deviceLimit > 0 || p.emailLimit > 0)
}

// rateScope is one counter checked for a request: the device, or the email
// named in the body.
type rateScope struct {
	name  string
	value string
	limit int
}

func (p AuthRateLimitPolicy) key(scope rateScope) string {
	return "rl:" + scope.name + ":" + p.name + ":" + hashValue(scope.value)
}

// AuthRateLimit rejects login and signup attempts over the policy limits
// with 429. Counter failures are logged and the request goes through.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scopes, err := policy.scopes(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			for _, scope := range scopes {
				count, err := store.IncrWithTTL(ctx, policy.key(scope), policy.window)
				if err != nil {
					logg.Error(logg.WithField(ctx, "scope", scope.name), "auth.rate_limit.counter_failed", err)
					continue
				}
				if count > int64(scope.limit) {
					respondRateLimited(ctx, logg, w, policy, scope, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// scopes lists the counters that apply to r. The body is read once and put
// back for the handler.
func (p AuthRateLimitPolicy) scopes(r *http.Request) ([]rateScope, error) {
	var out []rateScope
	if device := strings.TrimSpace(r.Header.Get(deviceIDHeader)); device != "" && p.deviceLimit > 0 {
		out = append(out, rateScope{name: "device", value: device, limit: p.deviceLimit})
	}
	if p.emailLimit <= 0 || r.Body == nil || r.Body == http.NoBody {
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, validators.MaxBodyBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if email := emailFrom(body); email != "" {
		out = append(out, rateScope{name: "email", value: email, limit: p.emailLimit})
	}
	return out, nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, scope rateScope, count int64) {
	logg.Warn(logg.WithFields(ctx, map[string]any{
		"scope":          scope.name,
		"scope_hash":     hashValue(scope.value),
		"policy":         policy.name,
		"attempts":       count,
		"limit":          scope.limit,
		"window_seconds": int(policy.window.Seconds()),
	}), "auth.rate_limit.blocked")

	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts. Please try again later."))
}

func emailFrom(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
