package room

import (
	"context"
	"log/slog"
	"time"
)

// Run 定期清理空闲和已结束的房间，直到 ctx 取消
func (rm *RoomManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(rm.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := rm.cleanup(now); n > 0 {
				slog.Info("rooms cleaned up", "count", n, "remaining", rm.Count())
			}
		}
	}
}

// cleanup 清理超时房间，返回清理数量
func (rm *RoomManager) cleanup(now time.Time) int {
	type expiredRoom struct {
		room   *Room
		reason string
	}

	var expired []expiredRoom
	for _, room := range rm.snapshotRooms() {
		if reason, ok := room.expired(now, rm.opts.IdleTimeout, rm.opts.FinishedTTL); ok {
			expired = append(expired, expiredRoom{room: room, reason: reason})
		}
	}

	rm.mu.Lock()
	for _, e := range expired {
		// 期间可能已被 CloseRoom 移除
		if rm.rooms[e.room.Code] == e.room {
			delete(rm.rooms, e.room.Code)
		}
	}
	rm.mu.Unlock()

	for _, e := range expired {
		rm.retire(e.room, e.reason)
	}
	return len(expired)
}

// Shutdown 关闭所有房间
func (rm *RoomManager) Shutdown() {
	rm.mu.Lock()
	rooms := rm.rooms
	rm.rooms = make(map[string]*Room)
	rm.mu.Unlock()

	for _, room := range rooms {
		rm.retire(room, ReasonShutdown)
	}
}
