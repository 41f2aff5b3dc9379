package rendezvous

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-rendezvous/pkg/types"
)

// testStoreConfig 返回测试用的宽松边界配置
func testStoreConfig() StoreConfig {
	cfg := DefaultStoreConfig()
	cfg.MinTTL = 1 * time.Second
	cfg.DefaultTTL = 1 * time.Hour
	return cfg
}

// testPeer 生成确定性的测试节点身份
func testPeer(n byte) types.PeerID {
	var id types.PeerID
	id[0] = n
	id[31] = n
	return id
}

func newTestStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	return NewStore(testStoreConfig(), mock), mock
}

// ============================================================================
//                              注册
// ============================================================================

func TestStoreRegisterBasic(t *testing.T) {
	s, _ := newTestStore(t)

	seq, ttl, err := s.Register(testPeer(1), "app", []string{"/ip4/1.2.3.4/tcp/4001"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, time.Hour, ttl)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalRegistrations)
	assert.Equal(t, 1, stats.TotalNamespaces)
}

func TestStoreRegisterReplacesExisting(t *testing.T) {
	s, _ := newTestStore(t)
	peer := testPeer(1)

	seq1, _, err := s.Register(peer, "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	// 同一 (peer, namespace) 重复注册是替换，不是追加
	seq2, _, err := s.Register(peer, "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)
	assert.Equal(t, 1, s.Stats().TotalRegistrations)

	page, _ := s.Discover("app", 0, 10)
	require.Len(t, page, 1)
	assert.Equal(t, []string{"/b"}, page[0].Addrs)
	assert.Equal(t, seq2, page[0].Sequence)
}

func TestStoreRegisterSequenceMonotonic(t *testing.T) {
	s, _ := newTestStore(t)

	var last uint64
	for i := 0; i < 10; i++ {
		ns := fmt.Sprintf("ns-%d", i%3)
		seq, _, err := s.Register(testPeer(byte(i)), ns, []string{"/a"}, time.Hour)
		require.NoError(t, err)
		// 序号全存储单调递增，跨命名空间不复用
		assert.Greater(t, seq, last)
		last = seq
	}
}

func TestStoreRegisterSameNamespaceDifferentPeers(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)

	page, _ := s.Discover("app", 0, 10)
	assert.Len(t, page, 2)
}

// ============================================================================
//                              校验与钳制
// ============================================================================

func TestStoreValidateNamespace(t *testing.T) {
	s, _ := newTestStore(t)
	addrs := []string{"/a"}

	_, _, err := s.Register(testPeer(1), "", addrs, 0)
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, _, err = s.Register(testPeer(1), strings.Repeat("x", 257), addrs, 0)
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, _, err = s.Register(testPeer(1), "bad\x00ns", addrs, 0)
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, _, err = s.Register(testPeer(1), string([]byte{0xff, 0xfe}), addrs, 0)
	assert.ErrorIs(t, err, ErrInvalidNamespace)
}

func TestStoreValidateAddresses(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidAddresses)

	_, _, err = s.Register(testPeer(1), "app", []string{""}, 0)
	assert.ErrorIs(t, err, ErrInvalidAddresses)

	many := make([]string, 17)
	for i := range many {
		many[i] = "/a"
	}
	_, _, err = s.Register(testPeer(1), "app", many, 0)
	assert.ErrorIs(t, err, ErrInvalidAddresses)

	_, _, err = s.Register(testPeer(1), "app", []string{strings.Repeat("x", 257)}, 0)
	assert.ErrorIs(t, err, ErrInvalidAddresses)
}

func TestStoreClampTTL(t *testing.T) {
	s, _ := newTestStore(t)

	// 零值使用默认 TTL
	_, ttl, err := s.Register(testPeer(1), "a", []string{"/a"}, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	// 低于下限抬高
	_, ttl, err = s.Register(testPeer(1), "b", []string{"/a"}, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1*time.Second, ttl)

	// 高于上限压低
	_, ttl, err = s.Register(testPeer(1), "c", []string{"/a"}, 100*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, ttl)
}

// ============================================================================
//                              容量
// ============================================================================

func TestStoreFull(t *testing.T) {
	cfg := testStoreConfig()
	cfg.MaxRegistrations = 2
	s := NewStore(cfg, clock.NewMock())

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(2), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	_, _, err = s.Register(testPeer(3), "app", []string{"/a"}, time.Hour)
	assert.ErrorIs(t, err, ErrStoreFull)

	// 已有注册的替换/续约不受容量限制
	_, _, err = s.Register(testPeer(1), "app", []string{"/b"}, time.Hour)
	assert.NoError(t, err)
}

// ============================================================================
//                              取消注册
// ============================================================================

func TestStoreUnregister(t *testing.T) {
	s, _ := newTestStore(t)
	peer := testPeer(1)

	_, _, err := s.Register(peer, "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	s.Unregister(peer, "app")
	page, _ := s.Discover("app", 0, 10)
	assert.Empty(t, page)
	assert.Equal(t, 0, s.Stats().TotalRegistrations)

	// 幂等：重复取消不产生任何状态变化
	s.Unregister(peer, "app")
	s.Unregister(peer, "missing")
	assert.Equal(t, 0, s.Stats().TotalRegistrations)
}

func TestStoreRemoveAllForPeer(t *testing.T) {
	s, _ := newTestStore(t)
	peer := testPeer(1)

	for _, ns := range []string{"a", "b", "c"} {
		_, _, err := s.Register(peer, ns, []string{"/a"}, time.Hour)
		require.NoError(t, err)
	}
	_, _, err := s.Register(testPeer(2), "a", []string{"/b"}, time.Hour)
	require.NoError(t, err)

	removed := s.RemoveAllForPeer(peer)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, s.Stats().TotalRegistrations)

	// 其他节点的注册不受影响
	page, _ := s.Discover("a", 0, 10)
	require.Len(t, page, 1)
	assert.Equal(t, testPeer(2), page[0].Peer)

	// 再次移除返回零
	assert.Equal(t, 0, s.RemoveAllForPeer(peer))
}

// ============================================================================
//                              过期
// ============================================================================

func TestStoreExpiryVisibility(t *testing.T) {
	s, mock := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)

	mock.Add(9 * time.Second)
	page, _ := s.Discover("app", 0, 10)
	assert.Len(t, page, 1)

	// 过期记录即使尚未清扫也绝不返回
	mock.Add(2 * time.Second)
	page, cursor := s.Discover("app", 0, 10)
	assert.Empty(t, page)
	assert.Equal(t, uint64(0), cursor)
	assert.Equal(t, 1, s.Stats().TotalRegistrations)
}

func TestStoreExpiryBoundary(t *testing.T) {
	s, mock := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)

	// expires_at == now 即过期
	mock.Add(10 * time.Second)
	page, _ := s.Discover("app", 0, 10)
	assert.Empty(t, page)
}

func TestStoreRenewalExtendsExpiry(t *testing.T) {
	s, mock := newTestStore(t)
	peer := testPeer(1)

	_, _, err := s.Register(peer, "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)

	mock.Add(8 * time.Second)
	_, _, err = s.Register(peer, "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)

	mock.Add(8 * time.Second)
	page, _ := s.Discover("app", 0, 10)
	assert.Len(t, page, 1)
}

func TestStoreSweep(t *testing.T) {
	s, mock := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(3), "other", []string{"/c"}, 10*time.Second)
	require.NoError(t, err)

	mock.Add(11 * time.Second)
	removed := s.Sweep(mock.Now())
	assert.Equal(t, 2, removed)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalRegistrations)
	assert.Equal(t, 1, stats.TotalNamespaces)
	assert.Equal(t, uint64(2), stats.RegistrationsSwept)

	// 清扫后存活记录仍可发现
	page, _ := s.Discover("app", 0, 10)
	assert.Len(t, page, 1)
}

func TestStoreSweepFreesCapacity(t *testing.T) {
	cfg := testStoreConfig()
	cfg.MaxRegistrations = 1
	mock := clock.NewMock()
	s := NewStore(cfg, mock)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)

	// 过期但未清扫的记录仍占容量
	mock.Add(11 * time.Second)
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	assert.ErrorIs(t, err, ErrStoreFull)

	s.Sweep(mock.Now())
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	assert.NoError(t, err)
}

// ============================================================================
//                              发现与分页
// ============================================================================

func TestStoreDiscoverUnknownNamespace(t *testing.T) {
	s, _ := newTestStore(t)

	page, cursor := s.Discover("missing", 0, 10)
	assert.Empty(t, page)
	assert.Equal(t, uint64(0), cursor)
}

func TestStoreDiscoverPagination(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, _, err := s.Register(testPeer(byte(i)), "app", []string{"/a"}, time.Hour)
		require.NoError(t, err)
	}

	page1, cursor := s.Discover("app", 0, 2)
	require.Len(t, page1, 2)

	page2, cursor := s.Discover("app", cursor, 2)
	require.Len(t, page2, 2)

	page3, cursor := s.Discover("app", cursor, 2)
	require.Len(t, page3, 1)

	// 游标到达末尾后返回空页且游标不变
	page4, final := s.Discover("app", cursor, 2)
	assert.Empty(t, page4)
	assert.Equal(t, cursor, final)

	// 三页合计覆盖全部注册，升序且无重复
	var all []Registration
	all = append(all, page1...)
	all = append(all, page2...)
	all = append(all, page3...)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Sequence, all[i-1].Sequence)
	}
}

func TestStoreDiscoverCursorSeesLaterWrites(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	page, cursor := s.Discover("app", 0, 10)
	require.Len(t, page, 1)

	// 游标之后的新写入出现在下一页
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)

	page, _ = s.Discover("app", cursor, 10)
	require.Len(t, page, 1)
	assert.Equal(t, testPeer(2), page[0].Peer)
}

func TestStoreDiscoverRenewalMovesPastCursor(t *testing.T) {
	s, _ := newTestStore(t)

	// P1 注册后 P2 注册，游标推进到 P1 之后；
	// P1 续约获得新序号，会再次出现在游标之后
	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	page, cursor := s.Discover("app", 0, 1)
	require.Len(t, page, 1)
	assert.Equal(t, testPeer(1), page[0].Peer)

	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(1), "app", []string{"/a"}, time.Hour)
	require.NoError(t, err)

	var seen []types.PeerID
	for {
		page, next := s.Discover("app", cursor, 1)
		if len(page) == 0 {
			break
		}
		for _, reg := range page {
			seen = append(seen, reg.Peer)
		}
		cursor = next
	}
	assert.Equal(t, []types.PeerID{testPeer(2), testPeer(1)}, seen)
}

func TestStoreDiscoverLimitClamped(t *testing.T) {
	cfg := testStoreConfig()
	cfg.MaxDiscoverLimit = 3
	cfg.DefaultDiscoverLimit = 2
	s := NewStore(cfg, clock.NewMock())

	for i := 0; i < 5; i++ {
		_, _, err := s.Register(testPeer(byte(i)), "app", []string{"/a"}, time.Hour)
		require.NoError(t, err)
	}

	// 零值使用默认 limit
	page, _ := s.Discover("app", 0, 0)
	assert.Len(t, page, 2)

	// 超过上限被钳制
	page, _ = s.Discover("app", 0, 100)
	assert.Len(t, page, 3)
}

func TestStoreDiscoverSkipsExpiredWithinPage(t *testing.T) {
	s, mock := newTestStore(t)

	_, _, err := s.Register(testPeer(1), "app", []string{"/a"}, 10*time.Second)
	require.NoError(t, err)
	_, _, err = s.Register(testPeer(2), "app", []string{"/b"}, time.Hour)
	require.NoError(t, err)

	mock.Add(11 * time.Second)
	page, cursor := s.Discover("app", 0, 10)
	require.Len(t, page, 1)
	assert.Equal(t, testPeer(2), page[0].Peer)
	assert.Equal(t, uint64(2), cursor)
}
