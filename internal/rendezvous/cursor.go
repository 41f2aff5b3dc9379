package rendezvous

import (
	"encoding/binary"
	"fmt"
)

// 游标 cookie 编码
//
// cookie 只编码最后已见的序号（8 字节大端），不携带其他状态：
// 游标不固定快照，晚于上次查询插入的更高序号注册会出现在下一页。
// 命名空间之间互不影响——序号是全存储单调的，但游标只在
// 发起它的命名空间内有意义。

const cursorCookieSize = 8

// EncodeCursor 将序号编码为 cookie
//
// 序号为零（从头开始）时返回 nil，表示无游标。
func EncodeCursor(seq uint64) []byte {
	if seq == 0 {
		return nil
	}
	cookie := make([]byte, cursorCookieSize)
	binary.BigEndian.PutUint64(cookie, seq)
	return cookie
}

// DecodeCursor 解析 cookie 为序号
//
// nil/空 cookie 表示从头开始。长度非法返回 ErrInvalidCookie。
func DecodeCursor(cookie []byte) (uint64, error) {
	if len(cookie) == 0 {
		return 0, nil
	}
	if len(cookie) != cursorCookieSize {
		return 0, fmt.Errorf("%w: bad length %d", ErrInvalidCookie, len(cookie))
	}
	return binary.BigEndian.Uint64(cookie), nil
}
