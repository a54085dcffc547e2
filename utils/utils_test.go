package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityTokensRoundTrip(t *testing.T) {
	tokens := NewIdentityTokens("test-secret", time.Hour)
	uid, token, err := tokens.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	got, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestIdentityTokensRejectForeignKey(t *testing.T) {
	_, token, err := NewIdentityTokens("one", time.Hour).Issue()
	require.NoError(t, err)

	_, err = NewIdentityTokens("two", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestIdentityTokensExpire(t *testing.T) {
	tokens := NewIdentityTokens("test-secret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, token, err := tokens.Issue()
	require.NoError(t, err)

	_, err = NewIdentityTokens("test-secret", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestMatchSecret(t *testing.T) {
	assert.True(t, MatchSecret("letmein", "letmein"))
	assert.False(t, MatchSecret("letmein", "letmeout"))
	assert.False(t, MatchSecret("", ""))
	assert.False(t, MatchSecret("letmein", ""))

	hash, err := HashPassword("letmein")
	require.NoError(t, err)
	assert.True(t, MatchSecret(hash, "letmein"))
	assert.False(t, MatchSecret(hash, hash))
}

func TestRandomTokenLength(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestNewNotifierWithoutHostIsNop(t *testing.T) {
	n := NewNotifier(SMTPConfig{})
	_, ok := n.(NopNotifier)
	assert.True(t, ok)
	assert.NoError(t, n.Notify(context.Background(), "s", "b"))
}
