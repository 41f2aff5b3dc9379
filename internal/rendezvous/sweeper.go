package rendezvous

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-rendezvous/pkg/lib/log"
)

var sweeperLog = log.Logger("rendezvous/sweeper")

// ============================================================================
//                              过期清扫器
// ============================================================================

// Sweeper 周期性移除过期注册
//
// 清扫只回收内存：过期记录对发现请求的不可见性
// 由存储读取端的惰性过滤保证，与清扫时机无关。
type Sweeper struct {
	store    *Store
	clock    clock.Clock
	interval time.Duration

	mu     sync.Mutex
	ticker *clock.Ticker
	done   chan struct{}
}

// NewSweeper 创建清扫器
func NewSweeper(store *Store, clk clock.Clock, interval time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{
		store:    store,
		clock:    clk,
		interval: interval,
	}
}

// Start 启动清扫循环
//
// 重复调用无效果。
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = s.clock.Ticker(s.interval)
	s.done = make(chan struct{})

	go s.run(s.ticker, s.done)
}

// Stop 停止清扫循环
//
// 未启动时调用无效果。
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	s.done = nil
}

// run 清扫循环
func (s *Sweeper) run(ticker *clock.Ticker, done chan struct{}) {
	for {
		select {
		case now := <-ticker.C:
			if removed := s.store.Sweep(now); removed > 0 {
				sweeperLog.Debug("清扫过期注册", "removed", removed)
			}
		case <-done:
			return
		}
	}
}
