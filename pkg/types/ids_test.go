package types

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPeerID_RoundTrip 测试 PeerID 字符串往返
func TestPeerID_RoundTrip(t *testing.T) {
	sum := sha256.Sum256([]byte("some public key"))
	id, err := PeerIDFromBytes(sum[:])
	require.NoError(t, err)

	parsed, err := ParsePeerID(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equal(parsed))
}

// TestPeerID_Empty 测试空 PeerID
func TestPeerID_Empty(t *testing.T) {
	var id PeerID
	assert.True(t, id.IsEmpty())
	assert.Equal(t, "", id.String())

	_, err := ParsePeerID("")
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}

// TestPeerID_FromBytes 测试字节长度校验
func TestPeerID_FromBytes(t *testing.T) {
	_, err := PeerIDFromBytes([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}

// TestPeerID_ShortString 测试短字符串表示
func TestPeerID_ShortString(t *testing.T) {
	sum := sha256.Sum256([]byte("x"))
	id, err := PeerIDFromBytes(sum[:])
	require.NoError(t, err)
	assert.Len(t, id.ShortString(), 8)
}
