package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

func newAuthServiceFixture() *AuthService {
	return NewAuthService(nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "camp-autoscheduler",
	})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuthServiceFixture()

	token, expiresAt, err := svc.IssueToken("orga-1", models.RoleOrga, "orga@camp.test", "Program Orga")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "orga-1", claims.UserID)
	assert.Equal(t, models.RoleOrga, claims.Role)
	assert.Equal(t, "orga-1", claims.Subject)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := newAuthServiceFixture()
	token, _, err := svc.IssueToken("orga-1", models.RoleOrga, "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceRejectsForeignIssuerAndKey(t *testing.T) {
	svc := newAuthServiceFixture()

	foreign := NewAuthService(nil, AuthConfig{AccessTokenSecret: "test-secret", Issuer: "someone-else"})
	token, _, err := foreign.IssueToken("orga-1", models.RoleOrga, "", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	otherKey := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "camp-autoscheduler"})
	token, _, err = otherKey.IssueToken("orga-1", models.RoleOrga, "", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsNonHMAC(t *testing.T) {
	svc := newAuthServiceFixture()
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "orga-1", Role: models.RoleOrga})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsMissingRole(t *testing.T) {
	svc := newAuthServiceFixture()
	token, _, err := svc.IssueToken("orga-1", "", "", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
