package transport

import (
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ============================================================================
//                              身份握手
// ============================================================================

// 握手线格式：
//
//	hello:     32 字节原始 Ed25519 公钥 + 32 字节随机 nonce
//	signature: 64 字节，对 角色标签 || 对端 nonce 的签名
//
// 消息顺序由角色决定：拨号方先发 hello，应答方回 hello，
// 拨号方先发签名，应答方回签名。
// 双方各自签名对端的 nonce，签名随角色标签区分方向，
// 对端身份 (PeerID) 由收到的公钥派生，绝不取自其他字段。

const nonceSize = 32

var (
	initiatorLabel = []byte("/rendezvous/1.0.0 handshake initiator")
	responderLabel = []byte("/rendezvous/1.0.0 handshake responder")
)

// Handshake 在裸连接上完成双向身份认证
//
// initiator 标记本端是否为拨号方。返回对端的认证身份。
// 握手失败后连接不可用，调用方必须关闭它。
func Handshake(conn net.Conn, key *crypto.PrivateKey, initiator bool, timeout time.Duration) (types.PeerID, error) {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	defer conn.SetDeadline(time.Time{})

	localNonce := make([]byte, nonceSize)
	if _, err := rand.Read(localNonce); err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	// hello 交换：公钥 + nonce，拨号方先发
	hello := make([]byte, crypto.PublicKeySize+nonceSize)
	copy(hello, key.GetPublic().Raw())
	copy(hello[crypto.PublicKeySize:], localNonce)
	remoteHello := make([]byte, crypto.PublicKeySize+nonceSize)

	if err := exchange(conn, initiator, hello, remoteHello); err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	remotePub, err := crypto.UnmarshalPublicKey(remoteHello[:crypto.PublicKeySize])
	if err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	remoteNonce := remoteHello[crypto.PublicKeySize:]

	localLabel, remoteLabel := initiatorLabel, responderLabel
	if !initiator {
		localLabel, remoteLabel = responderLabel, initiatorLabel
	}

	// 签名交换：各自证明持有 hello 中公钥对应的私钥
	sig := key.Sign(append(append([]byte{}, localLabel...), remoteNonce...))
	remoteSig := make([]byte, crypto.SignatureSize)
	if err := exchange(conn, initiator, sig, remoteSig); err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	signed := append(append([]byte{}, remoteLabel...), localNonce...)
	if !remotePub.Verify(signed, remoteSig) {
		return types.EmptyPeerID, ErrInvalidSignature
	}

	return remotePub.PeerID(), nil
}

// exchange 按角色顺序完成一轮消息交换
//
// 拨号方先写后读，应答方先读后写，两侧永远不会同时阻塞在写上。
func exchange(conn net.Conn, initiator bool, out, in []byte) error {
	if initiator {
		if _, err := conn.Write(out); err != nil {
			return err
		}
		_, err := io.ReadFull(conn, in)
		return err
	}
	if _, err := io.ReadFull(conn, in); err != nil {
		return err
	}
	_, err := conn.Write(out)
	return err
}
