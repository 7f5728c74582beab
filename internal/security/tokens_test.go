package security

import (
	"strings"
	"testing"
	"time"
)

func TestTokenCodec_IssueAccessAndValidate(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}

	access, exp, err := c.IssueAccess("u1", "user@example.com", "MEMBER")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" {
		t.Fatal("access token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	id, err := c.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id.PrincipalID != "u1" || id.Email != "user@example.com" || id.Role != "MEMBER" {
		t.Errorf("ValidateAccess: got %+v", id)
	}
}

func TestTokenCodec_IssueRefreshAndValidate(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}

	refresh, exp, err := c.IssueRefresh("u1", "f1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" {
		t.Fatal("refresh token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("refresh expires at in the past")
	}

	uid, fid, err := c.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if uid != "u1" || fid != "f1" {
		t.Errorf("ValidateRefresh: got principal=%q family=%q", uid, fid)
	}
}

func TestTokenCodec_UniqueJTIPerIssuance(t *testing.T) {
	c, _ := NewTestTokenCodec()
	t1, _, err := c.IssueRefresh("u1", "f1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	t2, _, err := c.IssueRefresh("u1", "f1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if t1 == t2 {
		t.Error("two issuances for the same principal and family must differ (jti)")
	}
}

func TestTokenCodec_KeysAreIndependent(t *testing.T) {
	c, _ := NewTestTokenCodec()

	// A refresh token must not validate as an access token, and vice versa.
	refresh, _, _ := c.IssueRefresh("u1", "f1")
	if _, err := c.ValidateAccess(refresh); err != ErrTokenInvalid {
		t.Errorf("ValidateAccess(refresh token): want ErrTokenInvalid, got %v", err)
	}
	access, _, _ := c.IssueAccess("u1", "user@example.com", "MEMBER")
	if _, _, err := c.ValidateRefresh(access); err != ErrTokenInvalid {
		t.Errorf("ValidateRefresh(access token): want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_ValidateInvalid(t *testing.T) {
	c, _ := NewTestTokenCodec()
	if _, err := c.ValidateAccess("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("ValidateAccess invalid: want ErrTokenInvalid, got %v", err)
	}
	if _, _, err := c.ValidateRefresh("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("ValidateRefresh invalid: want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_WrongIssuer(t *testing.T) {
	c1, _ := NewTestTokenCodec()
	c2, err := NewTokenCodec([]byte(testAccessKey), []byte(testRefreshKey), "other-issuer", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, _ := c2.IssueRefresh("u1", "f1")
	if _, _, err := c1.ValidateRefresh(token); err != ErrTokenInvalid {
		t.Errorf("ValidateRefresh wrong issuer: want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	c, err := NewTokenCodec([]byte(testAccessKey), []byte(testRefreshKey), "test-issuer", -time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	access, _, _ := c.IssueAccess("u1", "user@example.com", "MEMBER")
	if _, err := c.ValidateAccess(access); err != ErrTokenExpired {
		t.Errorf("ValidateAccess expired: want ErrTokenExpired, got %v", err)
	}
	refresh, _, _ := c.IssueRefresh("u1", "f1")
	if _, _, err := c.ValidateRefresh(refresh); err != ErrTokenExpired {
		t.Errorf("ValidateRefresh expired: want ErrTokenExpired, got %v", err)
	}
}

func TestNewTokenCodec_RejectsWeakKeys(t *testing.T) {
	short := []byte("too-short")
	long := []byte(strings.Repeat("k", MinKeyBytes))
	other := []byte(strings.Repeat("r", MinKeyBytes))

	if _, err := NewTokenCodec(short, other, "iss", time.Minute, time.Hour); err == nil {
		t.Error("short access key should be rejected")
	}
	if _, err := NewTokenCodec(long, short, "iss", time.Minute, time.Hour); err == nil {
		t.Error("short refresh key should be rejected")
	}
	if _, err := NewTokenCodec(long, long, "iss", time.Minute, time.Hour); err == nil {
		t.Error("identical keys should be rejected")
	}
	if _, err := NewTokenCodec(long, other, "", time.Minute, time.Hour); err == nil {
		t.Error("empty issuer should be rejected")
	}
	if _, err := NewTokenCodec(long, other, "iss", time.Minute, time.Hour); err != nil {
		t.Errorf("valid keys rejected: %v", err)
	}
}
