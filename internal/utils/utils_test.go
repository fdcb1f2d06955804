package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    at, err := NewAccessToken("s3cret", 42, "ADMIN", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, time.Minute)

    cl, err := ParseAccessToken("s3cret", at.Token)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), cl.UserID)
    assert.Equal(t, "ADMIN", cl.Role)
    assert.NotEmpty(t, cl.SessionID)

    other, err := NewAccessToken("s3cret", 42, "ADMIN", 15)
    require.NoError(t, err)
    cl2, err := ParseAccessToken("s3cret", other.Token)
    require.NoError(t, err)
    assert.NotEqual(t, cl.SessionID, cl2.SessionID)
}

func TestParseAccessTokenRejects(t *testing.T) {
    at, err := NewAccessToken("s3cret", 1, "STAFF", 15)
    require.NoError(t, err)

    _, err = ParseAccessToken("other", at.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    expired, err := NewAccessToken("s3cret", 1, "STAFF", -1)
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", expired.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 1})
    raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenAndPassword(t *testing.T) {
    rt, err := NewRefreshToken(7)
    require.NoError(t, err)
    assert.Len(t, rt.Raw, 96)
    assert.Len(t, HashRefreshRaw(rt.Raw), 64)
    assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))

    hash, err := HashPassword("pa55word", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "pa55word"))
    assert.False(t, VerifyPassword(hash, "nope"))
}

func TestPasswordEdgeCases(t *testing.T) {
    _, err := HashPassword("", 4)
    assert.ErrorIs(t, err, ErrEmptyPassword)

    assert.Equal(t, bcrypt.DefaultCost, clampCost(0))
    assert.Equal(t, bcrypt.MinCost, clampCost(2))
    assert.Equal(t, bcrypt.MaxCost, clampCost(99))
    assert.Equal(t, 12, clampCost(12))

    assert.False(t, VerifyPassword("", "anything"))
}
