package transport

import (
	"errors"
)

// 预定义错误
var (
	// ErrHandshakeFailed 身份握手失败
	ErrHandshakeFailed = errors.New("transport: handshake failed")

	// ErrInvalidSignature 握手签名验证失败
	ErrInvalidSignature = errors.New("transport: invalid handshake signature")

	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("transport: connection closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("transport: listener closed")

	// ErrStreamRateLimited 新流被限速拒绝
	ErrStreamRateLimited = errors.New("transport: stream rate limited")
)
