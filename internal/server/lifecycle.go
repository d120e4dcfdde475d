package server

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
)

const (
	statsInterval = 30 * time.Second
	drainPoll     = time.Second
)

// monitorStats 定期输出服务器状态，ctx 取消后返回
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			slog.Info("server stats",
				"online", s.GetOnlineCount(),
				"rooms", s.roomManager.Count(),
				"active_games", s.roomManager.ActiveGames(),
				"goroutines", runtime.NumGoroutine(),
				"connections", len(s.semaphore),
				"max_connections", s.maxConnections,
				"alloc_mb", float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	already := s.maintenanceMode
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	if already {
		return
	}

	s.Broadcast(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))
	slog.Info("maintenance mode enabled")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的游戏结束或 ctx 超时后关闭
func (s *Server) GracefulShutdown(ctx context.Context) error {
	s.EnterMaintenanceMode()

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

wait:
	for {
		active := s.roomManager.ActiveGames()
		if active == 0 {
			break
		}
		slog.Info("waiting for games to finish", "active_games", active)
		select {
		case <-ctx.Done():
			slog.Warn("drain timed out, closing active games", "active_games", active)
			break wait
		case <-ticker.C:
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown 关闭 HTTP 监听、所有房间和连接，可重复调用
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		// 通知房间成员后再断开连接
		s.roomManager.Shutdown()

		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		// 等待战绩写入完成
		s.bus.Stop()

		if s.redis != nil {
			err = errors.Join(err, s.redis.Close())
		}

		slog.Info("server stopped")
	})
	return err
}
