package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"identity-service/internal/audit/domain"
)

type fakeRepo struct {
	entries []*domain.AuditLog
	err     error
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, a)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, func(context.Context) string { return "10.0.0.1" }, discard())

	l.LogEvent(context.Background(), "u1", domain.ActionLogin, "auth", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != "u1" || e.Action != domain.ActionLogin || e.Resource != "auth" || e.IP != "10.0.0.1" {
		t.Errorf("entry: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Error("entry missing ID or CreatedAt")
	}
}

func TestLogger_LogEventNilExtractor(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, nil, discard())

	l.LogEvent(context.Background(), "u1", domain.ActionLogout, "auth", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("IP: got %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogger_LogEventBestEffort(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	l := NewLogger(repo, nil, discard())

	// Must not panic or surface the error.
	l.LogEvent(context.Background(), "u1", domain.ActionLogin, "auth", "")
}
