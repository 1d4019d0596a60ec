package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenInfo struct {
	token  string
	expiry time.Time
	state  TokenState
}

func (f fakeTokenInfo) CurrentToken() string { return f.token }
func (f fakeTokenInfo) Expiry() time.Time    { return f.expiry }
func (f fakeTokenInfo) State() TokenState    { return f.state }

func TestStatusCollect(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewStatusService(fakeTokenInfo{token: "abcdefghijklmnop", expiry: expiry, state: StateReady}, "")

	status, err := svc.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ready", status.TokenState)
	assert.True(t, status.HasToken)
	assert.Equal(t, "abcdefghij...", status.TokenPreview)
	assert.True(t, status.TokenExpiry.Equal(expiry))
	assert.Contains(t, status.Memory, "/")
	assert.NotEmpty(t, status.MemoryUsage)
	assert.Contains(t, status.Disk, "/")
	assert.False(t, status.Timestamp.IsZero())
}

func TestStatusCollectWithoutToken(t *testing.T) {
	svc := NewStatusService(fakeTokenInfo{state: StateUninitialized}, t.TempDir())

	status, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasToken)
	assert.Empty(t, status.TokenPreview)
	assert.Equal(t, "uninitialized", status.TokenState)
}
