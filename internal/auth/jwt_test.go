package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/auth"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

const secret = "test-secret-test-secret-test-secret"

func TestVerify_RoundTrip(t *testing.T) {
	v, err := auth.NewVerifier(secret)
	require.NoError(t, err)
	hotel := int64(55)

	tok, err := v.Issue(domain.Caller{UserID: 9, Role: domain.RoleHotelManager, HotelID: &hotel}, time.Minute)
	require.NoError(t, err)

	c, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.UserID)
	assert.Equal(t, domain.RoleHotelManager, c.Role)
	require.NotNil(t, c.HotelID)
	assert.Equal(t, hotel, *c.HotelID)
}

func TestVerify_LegacyRoleID(t *testing.T) {
	v, _ := auth.NewVerifier(secret)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: 3, RoleID: 4}).SignedString([]byte(secret))
	require.NoError(t, err)

	c, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDataOperator, c.Role)
}

func TestVerify_DisplayRoleName(t *testing.T) {
	v, _ := auth.NewVerifier(secret)
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: 3, Role: "Data Operator"}).SignedString([]byte(secret))

	c, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDataOperator, c.Role)
}

func TestVerify_Rejects(t *testing.T) {
	v, _ := auth.NewVerifier(secret)

	expired, _ := v.Issue(domain.Caller{UserID: 1, Role: domain.RoleTraveler}, -time.Minute)
	_, err := v.Verify(expired)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	other, _ := auth.NewVerifier("another-secret-another-secret-xx")
	forged, _ := other.Issue(domain.Caller{UserID: 1, Role: domain.RoleAdministrator}, time.Minute)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	noRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: 1, Role: "superuser"}).SignedString([]byte(secret))
	_, err = v.Verify(noRole)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	badID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: 1, RoleID: 9}).SignedString([]byte(secret))
	_, err = v.Verify(badID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorContains(t, err, `unknown role ""/9`)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := auth.NewVerifier("")
	assert.Error(t, err)
}

func TestCallerContext(t *testing.T) {
	_, ok := auth.CallerFrom(context.Background())
	assert.False(t, ok)

	ctx := auth.WithCaller(context.Background(), domain.Caller{UserID: 4, Role: domain.RoleTraveler})
	c, ok := auth.CallerFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(4), c.UserID)
}
