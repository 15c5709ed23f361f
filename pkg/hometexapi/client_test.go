package hometexapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/hometex/storefront/pkg/errors"
)

func TestLoginDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "a@x.com" || body["password"] != "pw" {
			t.Fatalf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":42,"email":"a@x.com","first_name":"Ada","last_name":"Lee","token":"t1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL+"/api/"), WithHTTPClient(srv.Client()))
	resp, err := client.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user, ok := resp.First()
	if !ok {
		t.Fatal("expected a user record")
	}
	if user.ID != "42" || user.Token != "t1" || user.DisplayName() != "Ada Lee" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestLoginStatusMapping(t *testing.T) {
	cases := []struct {
		status     int
		body       string
		code       pkgerrors.Code
		message    string
		fromServer bool
	}{
		{http.StatusUnauthorized, `{"message":"Invalid credentials"}`, pkgerrors.CodeUnauthorized, "Invalid credentials", true},
		{http.StatusUnauthorized, ``, pkgerrors.CodeUnauthorized, "authentication required", false},
		{http.StatusUnprocessableEntity, `{"message":"Email taken"}`, pkgerrors.CodeValidation, "Email taken", true},
		{http.StatusInternalServerError, `oops`, pkgerrors.CodeDependency, "dependency unavailable", false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
		_, err := client.Login(context.Background(), "a@x.com", "pw")
		srv.Close()

		typed := pkgerrors.As(err)
		if typed == nil {
			t.Fatalf("status %d: expected coded error, got %v", tc.status, err)
		}
		if typed.Code() != tc.code || typed.Message() != tc.message || typed.IsFromServer() != tc.fromServer {
			t.Fatalf("status %d: unexpected error %s / %q / fromServer=%v", tc.status, typed.Code(), typed.Message(), typed.IsFromServer())
		}
	}
}

func TestLoginUnreachableBackendIsLocalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(url))
	_, err := client.Login(context.Background(), "a@x.com", "pw")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if typed.IsFromServer() {
		t.Fatal("transport failure must not carry a server message")
	}
}

func TestLogoutSendsBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err := client.Logout(context.Background(), "t1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if auth != "Bearer t1" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
}

func TestSignupPostsRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.ConfPassword != "secret1" {
			t.Fatalf("expected conf_password to be sent, got %+v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"u9","email":"b@x.com","name":"Bo","token":"t9"}],"message":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	resp, err := client.Signup(context.Background(), SignupRequest{
		FirstName: "Bo", LastName: "X", Email: "b@x.com", Phone: "0123456789",
		Password: "secret1", ConfPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.Message != "ok" || resp.Data[0].DisplayName() != "Bo" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestIDAcceptsNull(t *testing.T) {
	var user AuthUser
	if err := json.Unmarshal([]byte(`{"id":null,"token":""}`), &user); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if user.ID != "" {
		t.Fatalf("expected empty id, got %q", user.ID)
	}
}
