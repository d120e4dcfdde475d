//go:build !production

package room

import (
	"math/rand/v2"
	"time"
)

// SetCodeGeneratorForTest 替换房间号生成函数
func (rm *RoomManager) SetCodeGeneratorForTest(gen func() string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.newCode = gen
}

// SetSeedForTest 让之后创建的房间使用固定随机种子
func (rm *RoomManager) SetSeedForTest(seed uint64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.newRand = func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, seed))
	}
}

// CleanupForTest 以指定时间执行一次清理
func (rm *RoomManager) CleanupForTest(now time.Time) int {
	return rm.cleanup(now)
}

// BeginWithOrderForTest 以固定出题顺序开始游戏
func (r *Room) BeginWithOrderForTest(order []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliver(r.session.BeginForTest(order).Notices)
}

// CorrectIndexForTest 返回玩家本轮题目的正确选项
func (r *Room) CorrectIndexForTest(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.CorrectIndexForTest(playerID)
}
