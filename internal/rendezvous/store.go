package rendezvous

import (
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ============================================================================
//                              注册记录
// ============================================================================

// Registration 注册记录
type Registration struct {
	// Namespace 命名空间
	Namespace string

	// Peer 注册节点身份（来自连接层，绝不取自请求载荷）
	Peer types.PeerID

	// Addrs 节点广播的传输地址
	Addrs []string

	// TTL 实际生效的有效期（已钳制）
	TTL time.Duration

	// RegisteredAt 注册/续约时间
	RegisteredAt time.Time

	// ExpiresAt 过期时间，恒等于 RegisteredAt + TTL
	ExpiresAt time.Time

	// Sequence 注册/续约时分配的单调递增序号，作为分页游标键
	Sequence uint64
}

// Expired 检查在 now 时刻是否过期（expires_at <= now 即过期）
func (r *Registration) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// RemainingTTL 返回在 now 时刻的剩余有效期
func (r *Registration) RemainingTTL(now time.Time) time.Duration {
	remaining := r.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ============================================================================
//                              命名空间索引
// ============================================================================

// nsIndex 单个命名空间的注册集合
//
// ordered 按 Sequence 升序排列，发现请求据此从游标位置恢复；
// byPeer 提供注册/续约/取消的 O(1) 定位。
// 两者必须在同一临界区内一起更新。
type nsIndex struct {
	ordered []*Registration
	byPeer  map[types.PeerID]*Registration
}

// removeOrdered 按序号从有序切片移除一条记录
func (idx *nsIndex) removeOrdered(seq uint64) {
	i := sort.Search(len(idx.ordered), func(i int) bool {
		return idx.ordered[i].Sequence >= seq
	})
	if i >= len(idx.ordered) || idx.ordered[i].Sequence != seq {
		panic(fmt.Sprintf("rendezvous: ordered index missing sequence %d", seq))
	}
	idx.ordered = append(idx.ordered[:i], idx.ordered[i+1:]...)
}

// ============================================================================
//                              Store 存储
// ============================================================================

// Store 注册信息存储
//
// 命名空间索引、节点索引与序号计数器构成一个复合结构，
// 全部修改都在同一把锁下原子完成；任何操作都不在持锁期间挂起。
// 索引之间出现分歧属于不变量破坏，直接 panic 而不是带病服务。
type Store struct {
	config StoreConfig
	clock  clock.Clock

	mu sync.RWMutex

	// seq 全生命周期单调递增，绝不复用
	seq uint64

	// namespaces: namespace -> 有序注册集合
	namespaces map[string]*nsIndex

	// peers: peer -> 其持有注册的命名空间集合
	peers map[types.PeerID]map[string]struct{}

	// total 驻留记录总数（含未清扫的过期记录）
	total int

	// swept 被清扫的过期注册累计数
	swept uint64
}

// NewStore 创建存储
//
// clk 为 nil 时使用真实时钟。
func NewStore(config StoreConfig, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		config:     config,
		clock:      clk,
		namespaces: make(map[string]*nsIndex),
		peers:      make(map[types.PeerID]map[string]struct{}),
	}
}

// ============================================================================
//                              校验与钳制
// ============================================================================

// ValidateNamespace 验证命名空间长度与字符集
func (s *Store) ValidateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidNamespace)
	}
	if len(ns) > s.config.MaxNamespaceLength {
		return fmt.Errorf("%w: namespace too long (max %d)", ErrInvalidNamespace, s.config.MaxNamespaceLength)
	}
	if !utf8.ValidString(ns) {
		return fmt.Errorf("%w: namespace is not valid UTF-8", ErrInvalidNamespace)
	}
	for _, r := range ns {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: namespace contains control characters", ErrInvalidNamespace)
		}
	}
	return nil
}

// ValidateAddresses 验证地址数量与长度
func (s *Store) ValidateAddresses(addrs []string) error {
	if len(addrs) == 0 {
		return fmt.Errorf("%w: no addresses provided", ErrInvalidAddresses)
	}
	if len(addrs) > s.config.MaxAddresses {
		return fmt.Errorf("%w: too many addresses (max %d)", ErrInvalidAddresses, s.config.MaxAddresses)
	}
	for _, a := range addrs {
		if a == "" {
			return fmt.Errorf("%w: empty address", ErrInvalidAddresses)
		}
		if len(a) > s.config.MaxAddressLength {
			return fmt.Errorf("%w: address too long (max %d)", ErrInvalidAddresses, s.config.MaxAddressLength)
		}
	}
	return nil
}

// ClampTTL 将请求 TTL 钳制到 [MinTTL, MaxTTL]
//
// 零值请求使用 DefaultTTL。返回值即 effective_ttl。
func (s *Store) ClampTTL(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = s.config.DefaultTTL
	}
	if requested < s.config.MinTTL {
		return s.config.MinTTL
	}
	if requested > s.config.MaxTTL {
		return s.config.MaxTTL
	}
	return requested
}

// ============================================================================
//                              注册操作
// ============================================================================

// Register 插入或替换一条注册
//
// 同一 (peer, namespace) 最多一条存活注册：重复注册替换旧记录
// 并分配新的 Sequence（续约走同一路径）。
// 返回分配的序号与钳制后的 TTL。
func (s *Store) Register(peer types.PeerID, ns string, addrs []string, requestedTTL time.Duration) (uint64, time.Duration, error) {
	if err := s.ValidateNamespace(ns); err != nil {
		return 0, 0, err
	}
	if err := s.ValidateAddresses(addrs); err != nil {
		return 0, 0, err
	}
	ttl := s.ClampTTL(requestedTTL)

	addrsCopy := make([]string, len(addrs))
	copy(addrsCopy, addrs)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.namespaces[ns]
	var existing *Registration
	if idx != nil {
		existing = idx.byPeer[peer]
	}

	// 容量只对新增记录生效：替换不增加驻留数，已有注册不受影响
	if existing == nil && s.total >= s.config.MaxRegistrations {
		return 0, 0, ErrStoreFull
	}

	if idx == nil {
		idx = &nsIndex{byPeer: make(map[types.PeerID]*Registration)}
		s.namespaces[ns] = idx
	}

	if existing != nil {
		idx.removeOrdered(existing.Sequence)
	} else {
		s.total++
	}

	s.seq++
	now := s.clock.Now()
	reg := &Registration{
		Namespace:    ns,
		Peer:         peer,
		Addrs:        addrsCopy,
		TTL:          ttl,
		RegisteredAt: now,
		ExpiresAt:    now.Add(ttl),
		Sequence:     s.seq,
	}

	// seq 单调递增，追加后 ordered 仍然有序
	idx.ordered = append(idx.ordered, reg)
	idx.byPeer[peer] = reg

	nss := s.peers[peer]
	if nss == nil {
		nss = make(map[string]struct{})
		s.peers[peer] = nss
	}
	nss[ns] = struct{}{}

	return reg.Sequence, ttl, nil
}

// Unregister 移除一条注册
//
// 幂等：记录不存在不是错误，也不产生任何状态变化。
func (s *Store) Unregister(peer types.PeerID, ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.namespaces[ns]
	if idx == nil {
		return
	}
	reg := idx.byPeer[peer]
	if reg == nil {
		return
	}
	s.removeLocked(ns, idx, reg)
}

// RemoveAllForPeer 移除某个节点在全部命名空间下的注册
//
// 用于连接丢失清理。返回移除的记录数。
func (s *Store) RemoveAllForPeer(peer types.PeerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	nss := s.peers[peer]
	removed := 0
	for ns := range nss {
		idx := s.namespaces[ns]
		if idx == nil {
			panic("rendezvous: peer index references missing namespace")
		}
		reg := idx.byPeer[peer]
		if reg == nil {
			panic("rendezvous: peer index references missing registration")
		}
		s.removeLocked(ns, idx, reg)
		removed++
	}
	return removed
}

// removeLocked 在持锁状态下移除一条记录并维护全部索引
func (s *Store) removeLocked(ns string, idx *nsIndex, reg *Registration) {
	idx.removeOrdered(reg.Sequence)
	delete(idx.byPeer, reg.Peer)
	s.total--

	if len(idx.byPeer) == 0 {
		delete(s.namespaces, ns)
	}

	if nss := s.peers[reg.Peer]; nss != nil {
		delete(nss, ns)
		if len(nss) == 0 {
			delete(s.peers, reg.Peer)
		}
	}
}

// ============================================================================
//                              查询操作
// ============================================================================

// Discover 返回命名空间中 Sequence > cursor 的存活注册，升序排列
//
// limit 被钳制到 MaxDiscoverLimit，零值使用 DefaultDiscoverLimit。
// 过期但尚未清扫的记录绝不返回（读取端惰性过滤是正确性保证，
// 清扫只负责回收内存）。
// 返回的 nextCursor 是最后一条返回记录的序号；空页时游标不变，
// 这是"没有更多结果"的约定信号，不是错误。
func (s *Store) Discover(ns string, cursor uint64, limit int) ([]Registration, uint64) {
	if limit <= 0 {
		limit = s.config.DefaultDiscoverLimit
	}
	if limit > s.config.MaxDiscoverLimit {
		limit = s.config.MaxDiscoverLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.namespaces[ns]
	if idx == nil {
		return nil, cursor
	}

	// 定位第一条序号大于游标的记录
	i := sort.Search(len(idx.ordered), func(i int) bool {
		return idx.ordered[i].Sequence > cursor
	})

	now := s.clock.Now()
	next := cursor
	var page []Registration
	for ; i < len(idx.ordered); i++ {
		reg := idx.ordered[i]
		if reg.Expired(now) {
			continue
		}
		page = append(page, *reg)
		next = reg.Sequence
		if len(page) >= limit {
			break
		}
	}
	return page, next
}

// ============================================================================
//                              清扫
// ============================================================================

// Sweep 移除 expires_at <= now 的全部注册，返回移除数量
//
// 清扫失败没有定义：本方法按契约不会失败。
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for ns, idx := range s.namespaces {
		kept := idx.ordered[:0]
		for _, reg := range idx.ordered {
			if !reg.Expired(now) {
				kept = append(kept, reg)
				continue
			}
			delete(idx.byPeer, reg.Peer)
			s.total--
			removed++

			if nss := s.peers[reg.Peer]; nss != nil {
				delete(nss, ns)
				if len(nss) == 0 {
					delete(s.peers, reg.Peer)
				}
			}
		}
		idx.ordered = kept

		if len(idx.byPeer) == 0 {
			delete(s.namespaces, ns)
		}
	}

	s.swept += uint64(removed)
	return removed
}

// ============================================================================
//                              统计
// ============================================================================

// StoreStats 存储统计信息
type StoreStats struct {
	// TotalRegistrations 当前驻留注册数
	TotalRegistrations int

	// TotalNamespaces 当前命名空间数
	TotalNamespaces int

	// RegistrationsSwept 被清扫的过期注册累计数
	RegistrationsSwept uint64
}

// Stats 返回统计信息
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreStats{
		TotalRegistrations: s.total,
		TotalNamespaces:    len(s.namespaces),
		RegistrationsSwept: s.swept,
	}
}
