package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"identity-service/internal/auth/service"
	userdomain "identity-service/internal/user/domain"
)

type fakeAuthService struct {
	registerErr error
	loginErr    error
	refreshErr  error
	logoutCalls int
	singleCalls int
}

func (f *fakeAuthService) result() *service.AuthResult {
	return &service.AuthResult{
		User: &userdomain.User{
			ID:        "u1",
			Email:     "a@example.com",
			Name:      "A",
			Role:      userdomain.RoleMember,
			CreatedAt: time.Now().UTC(),
		},
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().UTC().Add(15 * time.Minute),
	}
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, name, role string) (*service.AuthResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.result(), nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.result(), nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.result(), nil
}

func (f *fakeAuthService) Logout(ctx context.Context, refreshToken string) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthService) LogoutSingle(ctx context.Context, refreshToken string) error {
	f.singleCalls++
	return nil
}

func newTestMux(svc AuthService) *http.ServeMux {
	mux := http.NewServeMux()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	return mux
}

func post(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Register(t *testing.T) {
	mux := newTestMux(&fakeAuthService{})
	rr := post(t, mux, "/api/auth/register", `{"email":"a@example.com","password":"password123","name":"A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.User.Email != "a@example.com" || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Errorf("response: %+v", resp)
	}
}

func TestHandler_RegisterConflict(t *testing.T) {
	mux := newTestMux(&fakeAuthService{registerErr: service.ErrEmailAlreadyRegistered})
	rr := post(t, mux, "/api/auth/register", `{"email":"a@example.com","password":"password123","name":"A"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rr.Code)
	}
}

func TestHandler_RegisterMalformedBody(t *testing.T) {
	mux := newTestMux(&fakeAuthService{})
	for _, body := range []string{"", "{", `{"email":1}`, `{"unknown":"x"}`} {
		rr := post(t, mux, "/api/auth/register", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: got %d, want 400", body, rr.Code)
		}
	}
}

func TestHandler_LoginUnauthorized(t *testing.T) {
	mux := newTestMux(&fakeAuthService{loginErr: service.ErrInvalidCredentials})
	rr := post(t, mux, "/api/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "invalid credentials" {
		t.Errorf("error body: %v", resp)
	}
}

func TestHandler_RefreshFailureIsUniform(t *testing.T) {
	mux := newTestMux(&fakeAuthService{refreshErr: service.ErrInvalidRefreshToken})
	for _, body := range []string{`{"refreshToken":"x"}`, "not-json"} {
		rr := post(t, mux, "/api/auth/refresh", body)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("body %q: got %d, want 401", body, rr.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["error"] != "invalid refresh token" {
			t.Errorf("body %q: error %q, want %q", body, resp["error"], "invalid refresh token")
		}
	}
}

func TestHandler_Logout(t *testing.T) {
	svc := &fakeAuthService{}
	mux := newTestMux(svc)
	if rr := post(t, mux, "/api/auth/logout", `{"refreshToken":"x"}`); rr.Code != http.StatusOK {
		t.Errorf("logout: got %d, want 200", rr.Code)
	}
	if rr := post(t, mux, "/api/auth/logout-single", `{"refreshToken":"x"}`); rr.Code != http.StatusOK {
		t.Errorf("logout-single: got %d, want 200", rr.Code)
	}
	if svc.logoutCalls != 1 || svc.singleCalls != 1 {
		t.Errorf("calls: logout=%d single=%d", svc.logoutCalls, svc.singleCalls)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(&fakeAuthService{})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET login: got %d, want 405", rr.Code)
	}
}
