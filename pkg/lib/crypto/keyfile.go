package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================================
//                              密钥文件格式
// ============================================================================

// 密钥文件格式：
//
//   ┌────────────────────────────────────────────────┐
//   │  Magic:   "RDVS-KEY"  (8 bytes)                │
//   │  Version: uint8                                │
//   │  Seed:    32 bytes（Ed25519 种子）              │
//   └────────────────────────────────────────────────┘

const (
	keyFileMagic   = "RDVS-KEY"
	keyFileVersion = 1
)

// ErrInvalidKeyFile 密钥文件格式非法
var ErrInvalidKeyFile = errors.New("crypto: invalid key file")

// SaveKeyFile 将私钥种子写入密钥文件
//
// 文件权限为 0600。目录不存在时自动创建。
func SaveKeyFile(path string, priv *PrivateKey) error {
	if priv == nil {
		return ErrNilKey
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	buf := make([]byte, 0, len(keyFileMagic)+1+SeedSize)
	buf = append(buf, keyFileMagic...)
	buf = append(buf, keyFileVersion)
	buf = append(buf, priv.Seed()...)

	if err := os.WriteFile(path, buf, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// LoadKeyFile 从密钥文件加载私钥
func LoadKeyFile(path string) (*PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if len(data) != len(keyFileMagic)+1+SeedSize {
		return nil, fmt.Errorf("%w: bad length %d", ErrInvalidKeyFile, len(data))
	}
	if string(data[:len(keyFileMagic)]) != keyFileMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidKeyFile)
	}
	if data[len(keyFileMagic)] != keyFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidKeyFile, data[len(keyFileMagic)])
	}

	return UnmarshalPrivateKey(data[len(keyFileMagic)+1:])
}

// LoadOrCreateKeyFile 加载密钥文件，不存在时生成并保存新密钥
//
// 这是进程启动时获取稳定本地身份的入口。
func LoadOrCreateKeyFile(path string) (*PrivateKey, error) {
	priv, err := LoadKeyFile(path)
	if err == nil {
		return priv, nil
	}
	if !os.IsNotExist(errors.Unwrap(err)) && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	priv, err = GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	if err := SaveKeyFile(path, priv); err != nil {
		return nil, err
	}
	return priv, nil
}
