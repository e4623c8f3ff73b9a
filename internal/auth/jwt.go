// Package auth turns bearer tokens issued by the identity service into a
// domain.Caller. Token issuance lives elsewhere; Issue exists for tooling
// and tests.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

// Claims mirrors the identity service token: either a role name or a
// legacy numeric role id, plus an optional bound hotel for managers.
type Claims struct {
	UserID  int64  `json:"userId"`
	Role    string `json:"role,omitempty"`
	RoleID  int    `json:"roleId,omitempty"`
	HotelID *int64 `json:"hotelId,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify validates signature and expiry and resolves the caller role.
func (v *Verifier) Verify(token string) (domain.Caller, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok && claims.RoleID != 0 {
		role, ok = domain.RoleFromID(claims.RoleID)
	}
	if !ok {
		return domain.Caller{}, fmt.Errorf("%w: unknown role %q/%d", domain.ErrUnauthenticated, claims.Role, claims.RoleID)
	}
	return domain.Caller{UserID: claims.UserID, Role: role, HotelID: claims.HotelID}, nil
}

// Issue signs a token for c valid for ttl.
func (v *Verifier) Issue(c domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  c.UserID,
		Role:    string(c.Role),
		HotelID: c.HotelID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
