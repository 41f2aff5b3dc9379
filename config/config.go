package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config 是 Rendezvous 服务器的完整配置结构
//
// 配置按照功能模块组织：
//   - Server: 监听地址与身份密钥
//   - Log: 日志输出
//   - Rendezvous: 注册存储边界与清扫间隔
//   - Transport: 连接层握手与限速
type Config struct {
	// Server 服务器配置
	Server ServerConfig `json:"server"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Rendezvous 协议引擎配置
	Rendezvous RendezvousConfig `json:"rendezvous"`

	// Transport 连接层配置
	Transport TransportConfig `json:"transport"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// Listen 监听地址，host:port 格式
	Listen string `json:"listen"`

	// KeyFile 身份密钥文件路径，不存在时自动生成
	KeyFile string `json:"key_file"`

	// StatsInterval 统计日志输出间隔，零值关闭
	StatsInterval Duration `json:"stats_interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug / info / warn / error
	Level string `json:"level"`

	// JSON 是否输出 JSON 格式
	JSON bool `json:"json"`
}

// RendezvousConfig 协议引擎配置
type RendezvousConfig struct {
	// MinTTL 最小注册 TTL
	MinTTL Duration `json:"min_ttl"`

	// MaxTTL 最大注册 TTL
	MaxTTL Duration `json:"max_ttl"`

	// DefaultTTL 请求未携带 TTL 时的默认值
	DefaultTTL Duration `json:"default_ttl"`

	// MaxNamespaceLength 命名空间最大字节长度
	MaxNamespaceLength int `json:"max_namespace_length"`

	// MaxAddresses 单个注册最大地址数
	MaxAddresses int `json:"max_addresses"`

	// MaxAddressLength 单个地址最大字节长度
	MaxAddressLength int `json:"max_address_length"`

	// MaxRegistrations 存储最大驻留注册数
	MaxRegistrations int `json:"max_registrations"`

	// MaxDiscoverLimit 单次发现返回的最大记录数
	MaxDiscoverLimit int `json:"max_discover_limit"`

	// DefaultDiscoverLimit 请求未携带 limit 时的默认值
	DefaultDiscoverLimit int `json:"default_discover_limit"`

	// SweepInterval 过期清扫间隔
	SweepInterval Duration `json:"sweep_interval"`
}

// TransportConfig 连接层配置
type TransportConfig struct {
	// HandshakeTimeout 身份握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`

	// StreamsPerSecond 单连接每秒可接受的新流数
	StreamsPerSecond float64 `json:"streams_per_second"`

	// StreamBurst 单连接新流突发上限
	StreamBurst int `json:"stream_burst"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:        "0.0.0.0:4001",
			KeyFile:       "rendezvous.key",
			StatsInterval: Duration(1 * time.Minute),
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		Rendezvous: RendezvousConfig{
			MinTTL:               Duration(2 * time.Minute),
			MaxTTL:               Duration(72 * time.Hour),
			DefaultTTL:           Duration(2 * time.Hour),
			MaxNamespaceLength:   256,
			MaxAddresses:         16,
			MaxAddressLength:     256,
			MaxRegistrations:     10000,
			MaxDiscoverLimit:     1000,
			DefaultDiscoverLimit: 100,
			SweepInterval:        Duration(5 * time.Second),
		},
		Transport: TransportConfig{
			HandshakeTimeout: Duration(10 * time.Second),
			StreamsPerSecond: 16,
			StreamBurst:      32,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	rc := c.Rendezvous
	if rc.MinTTL <= 0 || rc.MaxTTL < rc.MinTTL {
		return fmt.Errorf("rendezvous: TTL bounds invalid")
	}
	if rc.DefaultTTL < rc.MinTTL || rc.DefaultTTL > rc.MaxTTL {
		return fmt.Errorf("rendezvous: default_ttl must be within [min_ttl, max_ttl]")
	}
	if rc.SweepInterval <= 0 {
		return fmt.Errorf("rendezvous: sweep_interval must be positive")
	}
	tc := c.Transport
	if tc.HandshakeTimeout <= 0 {
		return fmt.Errorf("transport: handshake_timeout must be positive")
	}
	if tc.StreamsPerSecond <= 0 || tc.StreamBurst <= 0 {
		return fmt.Errorf("transport: stream rate limits must be positive")
	}
	return nil
}

// FromJSON 从 JSON 数据解析配置
//
// 未出现的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile 从文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
