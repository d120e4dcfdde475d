// Package storage 保存已结束游戏的战绩和累计排行榜。进行中的房间状态不落盘
package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/palemoky/trivia-party/internal/event"
)

// LeaderboardType 排行榜类型
type LeaderboardType string

const (
	LeaderboardTotal LeaderboardType = "total"
	LeaderboardDaily LeaderboardType = "daily"
)

// PlayerScore 单个玩家的最终得分
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameRecord 一局游戏的战绩，Results 按名次排序
type GameRecord struct {
	Room       string        `json:"room"`
	Rounds     int           `json:"rounds"`
	Results    []PlayerScore `json:"results"`
	Winner     string        `json:"winner"`
	FinishedAt time.Time     `json:"finished_at"`
}

// PlayerStats 玩家累计统计（按显示名聚合）
type PlayerStats struct {
	Name       string `json:"name"`
	Games      int    `json:"games"`
	Wins       int    `json:"wins"`
	TotalScore int    `json:"total_score"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Games int    `json:"games"`
	Wins  int    `json:"wins"`
}

// Archive 战绩存储
type Archive interface {
	RecordGame(ctx context.Context, rec *GameRecord) (string, error)
	GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error)
	GetLeaderboard(ctx context.Context, typ LeaderboardType, limit int) ([]*LeaderboardEntry, error)
}

// NoopArchive 未启用 Redis 时使用，不保存任何数据
type NoopArchive struct{}

func (NoopArchive) RecordGame(context.Context, *GameRecord) (string, error) { return "", nil }
func (NoopArchive) GetPlayerStats(context.Context, string) (*PlayerStats, error) {
	return nil, nil
}

func (NoopArchive) GetLeaderboard(context.Context, LeaderboardType, int) ([]*LeaderboardEntry, error) {
	return []*LeaderboardEntry{}, nil
}

// RecordFromEvent 将游戏结束事件转换为战绩
func RecordFromEvent(e event.GameFinished) *GameRecord {
	results := make([]PlayerScore, 0, len(e.Results))
	for _, r := range e.Results {
		results = append(results, PlayerScore{Name: r.Name, Score: r.Score})
	}
	return &GameRecord{
		Room:       e.Room,
		Rounds:     e.Rounds,
		Results:    results,
		Winner:     e.Winner,
		FinishedAt: e.FinishedAt,
	}
}

// Subscribe 订阅游戏结束事件并写入战绩
func Subscribe(bus *event.Bus, a Archive) {
	bus.Subscribe(event.NameGameFinished, func(ctx context.Context, e event.Event) error {
		finished, ok := e.(event.GameFinished)
		if !ok {
			return nil
		}
		key, err := a.RecordGame(ctx, RecordFromEvent(finished))
		if err != nil {
			return err
		}
		if key != "" {
			slog.DebugContext(ctx, "game archived", "room", finished.Room, "key", key)
		}
		return nil
	})
}
