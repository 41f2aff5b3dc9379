package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

func TestHandshakeMutualAuthentication(t *testing.T) {
	clientKey, err := crypto.GenerateKey(nil)
	require.NoError(t, err)
	serverKey, err := crypto.GenerateKey(nil)
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	type result struct {
		peer types.PeerID
		err  error
	}
	serverCh := make(chan result, 1)
	go func() {
		peer, err := Handshake(serverConn, serverKey, false, time.Second)
		serverCh <- result{peer, err}
	}()

	clientPeer, err := Handshake(clientConn, clientKey, true, time.Second)
	require.NoError(t, err)

	serverRes := <-serverCh
	require.NoError(t, serverRes.err)

	// 双方各自得到对端的公钥派生身份
	assert.Equal(t, serverKey.PeerID(), clientPeer)
	assert.Equal(t, clientKey.PeerID(), serverRes.peer)
}

func TestHandshakeRejectsWrongKey(t *testing.T) {
	clientKey, err := crypto.GenerateKey(nil)
	require.NoError(t, err)
	serverKey, err := crypto.GenerateKey(nil)
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey(nil)
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	// 应答方宣称 serverKey 的公钥，却用 otherKey 签名
	go func() {
		remoteHello := make([]byte, crypto.PublicKeySize+nonceSize)
		if _, err := readFull(serverConn, remoteHello); err != nil {
			return
		}
		remoteNonce := remoteHello[crypto.PublicKeySize:]

		hello := make([]byte, crypto.PublicKeySize+nonceSize)
		copy(hello, serverKey.GetPublic().Raw())
		serverConn.Write(hello)

		sig := make([]byte, crypto.SignatureSize)
		if _, err := readFull(serverConn, sig); err != nil {
			return
		}
		serverConn.Write(otherKey.Sign(append(append([]byte{}, responderLabel...), remoteNonce...)))
	}()

	_, err = Handshake(clientConn, clientKey, true, time.Second)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandshakeTimeout(t *testing.T) {
	key, err := crypto.GenerateKey(nil)
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	// 对端不回应，握手必须在超时内失败
	start := time.Now()
	_, err = Handshake(clientConn, key, true, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrHandshakeFailed)
	assert.Less(t, time.Since(start), time.Second)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
