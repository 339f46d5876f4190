package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("unit-test-secret", 3*time.Hour)

	token, expiresAt, err := issuer.Issue(42, "alice@example.com", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("unit-test-secret", 3*time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-4 * time.Hour) }

	token, _, err := issuer.Issue(1, "bob@example.com", "user")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("old-secret", time.Hour).Issue(1, "bob@example.com", "user")
	require.NoError(t, err)

	_, err = NewTokenIssuer("rotated-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	issuer := NewTokenIssuer("unit-test-secret", time.Hour)
	userToken, _, err := issuer.Issue(7, "eve@example.com", "user")
	require.NoError(t, err)
	adminToken, _, err := issuer.Issue(8, "root@example.com", "admin")
	require.NoError(t, err)

	// splice the admin payload onto the user's signature
	u := strings.Split(userToken, ".")
	a := strings.Split(adminToken, ".")
	forged := strings.Join([]string{u[0], a[1], u[2]}, ".")

	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewTokenIssuer("s", time.Hour).Verify("definitely.not.ajwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
