package auth

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signWithExpiry(t *testing.T, secret string, subject string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager(testSecret, 30*time.Minute)

	token, err := m.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// expiry lands TTL away from issuance
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	other := NewManager("a-different-secret", 30*time.Minute)

	token, err := other.GenerateAccessToken(42)
	require.NoError(t, err)

	m := NewManager(testSecret, 30*time.Minute)

	_, err = m.ParseAndValidate(token)
	assert.Error(t, err, "a token signed with another secret must not validate, expired or not")
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager(testSecret, 30*time.Minute)

	// expired one second ago: invalid by any margin
	expired := signWithExpiry(t, testSecret, "42", time.Now().Add(-1*time.Second))

	_, err := m.ParseAndValidate(expired)
	assert.Error(t, err)

	// still inside the window: valid
	almost := signWithExpiry(t, testSecret, "42", time.Now().Add(59*time.Second))

	_, err = m.ParseAndValidate(almost)
	assert.NoError(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager(testSecret, 30*time.Minute)

	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := m.ParseAndValidate(tok)
		assert.Error(t, err, "token %q must not validate", tok)
	}
}

func TestClaimsUserID(t *testing.T) {
	tests := []struct {
		subject string
		wantErr bool
		want    int64
	}{
		{subject: "7", want: 7},
		{subject: strconv.FormatInt(1<<40, 10), want: 1 << 40},
		{subject: "", wantErr: true},
		{subject: "not-a-number", wantErr: true},
		{subject: "7.5", wantErr: true},
	}

	for _, tt := range tests {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: tt.subject}}

		id, err := claims.UserID()

		if tt.wantErr {
			assert.Error(t, err, "subject %q", tt.subject)
			continue
		}

		require.NoError(t, err, "subject %q", tt.subject)
		assert.Equal(t, tt.want, id)
	}
}
