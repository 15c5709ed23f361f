// Package hometexapi talks to the storefront backend that owns accounts and
// issues bearer tokens.
package hometexapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/hometex/storefront/pkg/errors"
)

const (
	defaultBaseURL              = "http://localhost:8000/api"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 4096
)

// Client calls the backend auth endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a backend client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Login exchanges credentials for an account record and token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.post(ctx, "auth/login", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the given token server side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "auth/logout", token, struct{}{}, nil)
}

func (c *Client) post(ctx context.Context, path, token string, body any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "hometex api client not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+path+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return statusError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" response")
	}
	return nil
}

func statusError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		message = strings.TrimSpace(body.Message)
	}
	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(raw)))

	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	}
	if message == "" {
		return pkgerrors.Wrap(code, cause, pkgerrors.MetadataFor(code).PublicMessage)
	}
	return pkgerrors.Wrap(code, cause, message).FromServer()
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
