package security

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinKeyBytes is the minimum signing-key length. 32 bytes gives the full 256
// bits of security HS256 can deliver; shorter keys are a fatal misconfiguration.
const MinKeyBytes = 32

var (
	// ErrTokenInvalid is returned when a token is malformed, has a bad
	// signature, a wrong issuer, or was signed with the wrong key.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RefreshClaims holds JWT claims for the refresh token. The family binds the
// token to the lineage started by one login or registration.
type RefreshClaims struct {
	jwt.RegisteredClaims
	FamilyID string `json:"family_id"`
}

// AccessIdentity is the identity carried by a validated access token.
type AccessIdentity struct {
	PrincipalID string
	Email       string
	Role        string
}

// TokenCodec issues and validates HS256-signed access and refresh tokens.
// The two token kinds are signed with independent keys: a compromised access
// key cannot forge refresh tokens, and vice versa.
type TokenCodec struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec returns a TokenCodec with the given keys, issuer, and TTLs.
// It fails if either key is shorter than MinKeyBytes or if the two keys are
// identical; callers treat that as fatal at startup, never per request.
func NewTokenCodec(accessKey, refreshKey []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if len(accessKey) < MinKeyBytes {
		return nil, fmt.Errorf("access signing key must be at least %d bytes, got %d", MinKeyBytes, len(accessKey))
	}
	if len(refreshKey) < MinKeyBytes {
		return nil, fmt.Errorf("refresh signing key must be at least %d bytes, got %d", MinKeyBytes, len(refreshKey))
	}
	if bytes.Equal(accessKey, refreshKey) {
		return nil, errors.New("access and refresh signing keys must be distinct")
	}
	if issuer == "" {
		return nil, errors.New("issuer must be set")
	}
	return &TokenCodec{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccess issues a short-lived access JWT for the given principal.
// Returns the token string and its expiration time.
func (c *TokenCodec) IssueAccess(principalID, email, role string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(c.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessKey)
	return token, expiresAt, err
}

// IssueRefresh issues a long-lived refresh JWT bound to the given family.
// Every issuance carries a fresh jti, so two refresh tokens for the same
// principal and family are still distinct strings.
func (c *TokenCodec) IssueRefresh(principalID, familyID string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(c.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		FamilyID: familyID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshKey)
	return token, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp, iss).
// Returns the identity carried in the claims, ErrTokenExpired for expired
// tokens, or ErrTokenInvalid for everything else.
func (c *TokenCodec) ValidateAccess(tokenString string) (*AccessIdentity, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims, c.accessKey); err != nil {
		return nil, err
	}
	return &AccessIdentity{
		PrincipalID: claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
	}, nil
}

// ValidateRefresh parses and validates the refresh token against the refresh
// key. Returns the principal id and family id from the claims, ErrTokenExpired
// for expired tokens, or ErrTokenInvalid for everything else.
func (c *TokenCodec) ValidateRefresh(tokenString string) (principalID, familyID string, err error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenString, claims, c.refreshKey); err != nil {
		return "", "", err
	}
	return claims.Subject, claims.FamilyID, nil
}

// RefreshTTL is the configured refresh token lifetime; the orchestrator uses
// it to stamp ledger record expiry.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) parse(tokenString string, claims jwt.Claims, key []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return key, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
