package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/api/validators"
	"github.com/hometex/storefront/internal/auth"
	"github.com/hometex/storefront/internal/session"
	"github.com/hometex/storefront/pkg/enums"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/hometexapi"
	"github.com/hometex/storefront/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ConfPassword string `json:"conf_password"`
}

type identityView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionView struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	HasToken        bool          `json:"hasToken"`
	User            *identityView `json:"user"`
}

func newSessionView(store *auth.Store) sessionView {
	identity := store.Current()
	if identity == nil {
		return sessionView{}
	}
	return sessionView{
		IsAuthenticated: true,
		HasToken:        store.Token() != "",
		User: &identityView{
			ID:    identity.ID,
			Email: identity.Email,
			Name:  identity.Name,
		},
	}
}

// AuthMe returns the device's current identity.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			return newSessionView(b.Auth), nil
		})
	}
}

func AuthLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if err := b.Auth.Login(ctx, payload.Email, payload.Password); err != nil {
				return nil, err
			}
			return newSessionView(b.Auth), nil
		})
	}
}

// AuthSignup forwards the registration form; field rules are enforced by the
// auth store so the shopper also gets a notice.
func AuthSignup(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload signupRequest
		if err := validators.DecodeJSON(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusCreated, func(ctx context.Context, b *session.Bundle) (any, error) {
			err := b.Auth.Signup(ctx, hometexapi.SignupRequest{
				FirstName:    payload.FirstName,
				LastName:     payload.LastName,
				Email:        payload.Email,
				Phone:        payload.Phone,
				Password:     payload.Password,
				ConfPassword: payload.ConfPassword,
			})
			if err != nil {
				return nil, err
			}
			return newSessionView(b.Auth), nil
		})
	}
}

func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if err := b.Auth.Logout(ctx); err != nil {
				return nil, err
			}
			return newSessionView(b.Auth), nil
		})
	}
}

// AuthSocial signs in with the provider named in the path.
func AuthSocial(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := enums.ParseSocialProvider(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported social provider"))
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if err := b.Auth.SocialLogin(ctx, provider); err != nil {
				return nil, err
			}
			return newSessionView(b.Auth), nil
		})
	}
}
