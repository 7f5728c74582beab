package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	authhandler "identity-service/internal/auth/handler"
	authservice "identity-service/internal/auth/service"
	"identity-service/internal/security"
	"identity-service/internal/user/domain"
	userhandler "identity-service/internal/user/handler"
	userservice "identity-service/internal/user/service"
)

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, string, string, string, string) (*authservice.AuthResult, error) {
	return nil, authservice.ErrEmailAlreadyRegistered
}

func (stubAuthService) Login(context.Context, string, string) (*authservice.AuthResult, error) {
	return nil, authservice.ErrInvalidCredentials
}

func (stubAuthService) Refresh(context.Context, string) (*authservice.AuthResult, error) {
	return nil, authservice.ErrInvalidRefreshToken
}

func (stubAuthService) Logout(context.Context, string) error       { return nil }
func (stubAuthService) LogoutSingle(context.Context, string) error { return nil }

type stubUserService struct{}

func (stubUserService) Get(context.Context, string) (*domain.User, error) {
	return &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleMember}, nil
}

func (stubUserService) UpdateName(context.Context, string, string) (*domain.User, error) {
	return nil, userservice.ErrUserNotFound
}

func (stubUserService) ChangePassword(context.Context, string, string, string) error { return nil }

func (stubUserService) List(context.Context, int, int) ([]*domain.User, error) { return nil, nil }

func (stubUserService) AdminUpdate(context.Context, string, string, string) (*domain.User, error) {
	return nil, userservice.ErrUserNotFound
}

func (stubUserService) AdminResetPassword(context.Context, string, string) error { return nil }

func (stubUserService) AdminDelete(context.Context, string) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *security.TokenCodec) {
	t.Helper()
	codec, err := security.NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Deps{
		Auth:   authhandler.New(stubAuthService{}, log),
		Users:  userhandler.New(stubUserService{}, nil, log),
		Codec:  codec,
		DB:     nil,
		Tracer: noop.NewTracerProvider().Tracer("test"),
		Log:    log,
	})
	return router, codec
}

func TestRouter_Healthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rr.Code)
	}
}

func TestRouter_ProfileRequiresAuth(t *testing.T) {
	router, codec := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", rr.Code)
	}

	access, _, err := codec.IssueAccess("u1", "a@example.com", "MEMBER")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with token: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_AdminRequiresRole(t *testing.T) {
	router, codec := newTestRouter(t)

	member, _, _ := codec.IssueAccess("u1", "a@example.com", "MEMBER")
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("member: got %d, want 403", rr.Code)
	}

	admin, _, _ := codec.IssueAccess("u2", "b@example.com", "ADMIN")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("admin: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_PublicAuthRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	// Reaches the handler without a bearer token; the stub rejects credentials.
	if rr.Code == http.StatusNotFound || rr.Code == http.StatusForbidden {
		t.Errorf("login route: got %d", rr.Code)
	}
}
