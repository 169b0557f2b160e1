package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
    st, err := NewSessionToken("test-secret", 42, "farmer", 24)
    require.NoError(t, err)
    assert.NotEmpty(t, st.Token)
    assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), st.Exp, 5*time.Second)

    tok, err := jwt.Parse(st.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("test-secret"), nil
    })
    require.NoError(t, err)
    require.True(t, tok.Valid)
    claims, ok := tok.Claims.(jwt.MapClaims)
    require.True(t, ok)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "farmer", claims["role"])
}

func TestNewSessionTokenWrongSecret(t *testing.T) {
    st, err := NewSessionToken("secret-a", 1, "dealer", 1)
    require.NoError(t, err)
    _, err = jwt.Parse(st.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("secret-b"), nil
    })
    assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
    hash, err := HashPassword("hunter2", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "hunter2"))
    assert.False(t, VerifyPassword(hash, "hunter3"))
}
