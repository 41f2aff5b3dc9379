package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-rendezvous/pkg/types"
)

// Ed25519 密钥常量
const (
	// PrivateKeySize Ed25519 私钥大小（64 字节）
	PrivateKeySize = ed25519.PrivateKeySize
	// PublicKeySize Ed25519 公钥大小（32 字节）
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize Ed25519 签名大小（64 字节）
	SignatureSize = ed25519.SignatureSize
	// SeedSize Ed25519 种子大小（32 字节）
	SeedSize = ed25519.SeedSize
)

// 预定义错误
var (
	// ErrInvalidKeySize 密钥长度非法
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrNilKey 密钥为空
	ErrNilKey = errors.New("crypto: nil key")
)

// ============================================================================
//                              PublicKey
// ============================================================================

// PublicKey Ed25519 公钥
type PublicKey struct {
	k ed25519.PublicKey
}

// Raw 返回原始公钥字节（32 字节）
func (k *PublicKey) Raw() []byte {
	buf := make([]byte, len(k.k))
	copy(buf, k.k)
	return buf
}

// Equals 比较两个公钥是否相等
//
// 使用常量时间比较以防止时序攻击。
func (k *PublicKey) Equals(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(k.k, other.k) == 1
}

// Verify 使用此公钥验证签名
func (k *PublicKey) Verify(data, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(k.k, data, sig)
}

// PeerID 从公钥派生 PeerID
//
// 派生算法：SHA256(原始公钥字节)，外部表示为 Base58。
func (k *PublicKey) PeerID() types.PeerID {
	return types.PeerID(sha256.Sum256(k.k))
}

// UnmarshalPublicKey 从字节反序列化公钥
func UnmarshalPublicKey(data []byte) (*PublicKey, error) {
	if len(data) != PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, PublicKeySize, len(data))
	}

	k := make([]byte, PublicKeySize)
	copy(k, data)
	return &PublicKey{k: k}, nil
}

// ============================================================================
//                              PrivateKey
// ============================================================================

// PrivateKey Ed25519 私钥
type PrivateKey struct {
	k ed25519.PrivateKey
}

// Seed 返回私钥种子（32 字节）
func (k *PrivateKey) Seed() []byte {
	return k.k.Seed()
}

// GetPublic 返回对应的公钥
func (k *PrivateKey) GetPublic() *PublicKey {
	pub := k.k.Public().(ed25519.PublicKey) //nolint:errcheck // 类型断言安全
	return &PublicKey{k: pub}
}

// Sign 使用此私钥签名数据
func (k *PrivateKey) Sign(data []byte) []byte {
	return ed25519.Sign(k.k, data)
}

// PeerID 从私钥派生 PeerID
func (k *PrivateKey) PeerID() types.PeerID {
	return k.GetPublic().PeerID()
}

// ============================================================================
//                              工厂函数
// ============================================================================

// GenerateKey 生成新的 Ed25519 密钥对
//
// src 为 nil 时使用 crypto/rand.Reader。
func GenerateKey(src io.Reader) (*PrivateKey, error) {
	if src == nil {
		src = rand.Reader
	}
	_, priv, err := ed25519.GenerateKey(src)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{k: priv}, nil
}

// UnmarshalPrivateKey 从字节反序列化私钥
//
// 支持两种格式：
//   - 64 字节：完整私钥（种子 + 公钥）
//   - 32 字节：仅种子
func UnmarshalPrivateKey(data []byte) (*PrivateKey, error) {
	switch len(data) {
	case PrivateKeySize:
		k := make([]byte, PrivateKeySize)
		copy(k, data)
		return &PrivateKey{k: k}, nil

	case SeedSize:
		return &PrivateKey{k: ed25519.NewKeyFromSeed(data)}, nil

	default:
		return nil, fmt.Errorf("%w: expected %d or %d bytes, got %d",
			ErrInvalidKeySize, SeedSize, PrivateKeySize, len(data))
	}
}
