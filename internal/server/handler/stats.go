package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/server/storage"
	"github.com/palemoky/trivia-party/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	leaderboardTimeout      = 3 * time.Second
)

// --- 排行榜处理 ---

// handleGetStats 按显示名获取玩家累计统计
func (h *Handler) handleGetStats(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.GetStatsPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()

	stats, err := h.archive.GetPlayerStats(ctx, name)
	if err != nil {
		slog.Error("get player stats failed", "name", name, "error", err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeStats))
		return
	}

	result := protocol.StatsResultPayload{Name: name}
	if stats != nil {
		result.Games = stats.Games
		result.Wins = stats.Wins
		result.TotalScore = stats.TotalScore
		if stats.Games > 0 {
			result.WinRate = float64(stats.Wins) / float64(stats.Games) * 100
		}
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, result))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		// 默认获取总排行榜前 10
		payload = &protocol.GetLeaderboardPayload{}
	}

	// 限制请求数量
	if payload.Limit <= 0 || payload.Limit > maxLeaderboardLimit {
		payload.Limit = defaultLeaderboardLimit
	}
	typ := storage.LeaderboardTotal
	if payload.Type == string(storage.LeaderboardDaily) {
		typ = storage.LeaderboardDaily
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()

	entries, err := h.archive.GetLeaderboard(ctx, typ, payload.Limit)
	if err != nil {
		slog.Error("get leaderboard failed", "type", typ, "error", err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeLeaderboard))
		return
	}

	// 转换为协议格式
	protocolEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		protocolEntries = append(protocolEntries, protocol.LeaderboardEntry{
			Rank:  entry.Rank,
			Name:  entry.Name,
			Score: entry.Score,
			Games: entry.Games,
			Wins:  entry.Wins,
		})
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Type:    string(typ),
		Entries: protocolEntries,
	}))
}
