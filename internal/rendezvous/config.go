package rendezvous

import (
	"errors"
	"time"
)

// ============================================================================
//                              Store 配置
// ============================================================================

// StoreConfig 存储配置
//
// 每一项都是核心强制执行的边界；取值来自进程配置。
type StoreConfig struct {
	// MinTTL 最小注册 TTL（请求低于此值被钳制抬高）
	MinTTL time.Duration

	// MaxTTL 最大注册 TTL（请求高于此值被钳制压低）
	MaxTTL time.Duration

	// DefaultTTL 请求未携带 TTL 时的默认值
	DefaultTTL time.Duration

	// MaxNamespaceLength 命名空间最大字节长度
	MaxNamespaceLength int

	// MaxAddresses 单个注册最大地址数
	MaxAddresses int

	// MaxAddressLength 单个地址最大字节长度
	MaxAddressLength int

	// MaxRegistrations 存储最大驻留注册数（含未清扫的过期记录）
	MaxRegistrations int

	// MaxDiscoverLimit 单次发现返回的最大记录数
	MaxDiscoverLimit int

	// DefaultDiscoverLimit 请求未携带 limit 时的默认值
	DefaultDiscoverLimit int
}

// DefaultStoreConfig 默认存储配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MinTTL:               2 * time.Minute,
		MaxTTL:               72 * time.Hour,
		DefaultTTL:           2 * time.Hour,
		MaxNamespaceLength:   256,
		MaxAddresses:         16,
		MaxAddressLength:     256,
		MaxRegistrations:     10000,
		MaxDiscoverLimit:     1000,
		DefaultDiscoverLimit: 100,
	}
}

// Validate 验证配置
func (c *StoreConfig) Validate() error {
	if c.MinTTL <= 0 {
		return errors.New("min TTL must be positive")
	}
	if c.MaxTTL < c.MinTTL {
		return errors.New("max TTL must not be less than min TTL")
	}
	if c.DefaultTTL < c.MinTTL || c.DefaultTTL > c.MaxTTL {
		return errors.New("default TTL must be within [min TTL, max TTL]")
	}
	if c.MaxNamespaceLength <= 0 {
		return errors.New("max namespace length must be positive")
	}
	if c.MaxAddresses <= 0 {
		return errors.New("max addresses must be positive")
	}
	if c.MaxAddressLength <= 0 {
		return errors.New("max address length must be positive")
	}
	if c.MaxRegistrations <= 0 {
		return errors.New("max registrations must be positive")
	}
	if c.MaxDiscoverLimit <= 0 {
		return errors.New("max discover limit must be positive")
	}
	if c.DefaultDiscoverLimit <= 0 || c.DefaultDiscoverLimit > c.MaxDiscoverLimit {
		return errors.New("default discover limit must be within (0, max discover limit]")
	}
	return nil
}

// ============================================================================
//                              Point 配置
// ============================================================================

// PointConfig Rendezvous Point 配置
type PointConfig struct {
	// Store 存储边界
	Store StoreConfig

	// SweepInterval 过期清扫间隔
	SweepInterval time.Duration
}

// DefaultPointConfig 默认配置
func DefaultPointConfig() PointConfig {
	return PointConfig{
		Store:         DefaultStoreConfig(),
		SweepInterval: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *PointConfig) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

// ============================================================================
//                              Client 配置
// ============================================================================

// ClientConfig Rendezvous 客户端配置
type ClientConfig struct {
	// DefaultTTL 默认注册 TTL
	DefaultTTL time.Duration

	// RenewalInterval 续约检查间隔（通常是 TTL/2）
	RenewalInterval time.Duration

	// RequestTimeout 单次请求超时
	RequestTimeout time.Duration
}

// DefaultClientConfig 默认配置
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DefaultTTL:      2 * time.Hour,
		RenewalInterval: 1 * time.Hour,
		RequestTimeout:  30 * time.Second,
	}
}

// Validate 验证配置
func (c *ClientConfig) Validate() error {
	if c.DefaultTTL <= 0 {
		return errors.New("default TTL must be positive")
	}
	if c.RenewalInterval <= 0 {
		return errors.New("renewal interval must be positive")
	}
	if c.RenewalInterval >= c.DefaultTTL {
		return errors.New("renewal interval must be less than default TTL")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}
