package transport

import (
	"errors"
	"time"
)

// Config 连接层配置
type Config struct {
	// HandshakeTimeout 身份握手超时
	HandshakeTimeout time.Duration

	// StreamsPerSecond 单连接每秒可接受的新流数
	//
	// 超出速率的流在令牌可用前被延迟接受，防止单个对端
	// 用高频开流占满会话处理能力。
	StreamsPerSecond float64

	// StreamBurst 单连接新流突发上限
	StreamBurst int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		StreamsPerSecond: 16,
		StreamBurst:      32,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake timeout must be positive")
	}
	if c.StreamsPerSecond <= 0 {
		return errors.New("streams per second must be positive")
	}
	if c.StreamBurst <= 0 {
		return errors.New("stream burst must be positive")
	}
	return nil
}
