package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, time.Hour)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.ID)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseTokenClassifiesMissing(t *testing.T) {
	_, err := ParseToken("", testSecret)
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestParseTokenClassifiesExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenClassifiesInvalid(t *testing.T) {
	_, err := ParseToken("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Valid shape, wrong key.
	token, err := GenerateToken(&Payload{ID: "u1"}, "other-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
