package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	gameKeyPrefix    = "game:"
	playerKeyPrefix  = "player:"
	leaderboardKey   = "leaderboard:total"
	dailyLeaderboard = "leaderboard:daily:"

	// 战绩保存时间
	gameExpiration  = 24 * time.Hour
	dailyExpiration = 48 * time.Hour

	defaultLeaderboardLimit = 10
)

// RedisStore Redis 战绩存储
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 存储，prefix 为空时不加前缀
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) key(k string) string {
	if rs.prefix == "" {
		return k
	}
	return rs.prefix + ":" + k
}

// --- 战绩 ---

// RecordGame 保存一局结果并累加排行榜，返回战绩 key
func (rs *RedisStore) RecordGame(ctx context.Context, rec *GameRecord) (string, error) {
	if rec == nil {
		return "", errors.New("nil game record")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("序列化战绩失败: %w", err)
	}

	gameKey := rs.key(gameKeyPrefix + rec.Room + ":" + strconv.FormatInt(rec.FinishedAt.Unix(), 10))
	dailyKey := rs.key(dailyLeaderboard + rec.FinishedAt.Format(time.DateOnly))

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, gameKey, data, gameExpiration)
	for i, r := range rec.Results {
		playerKey := rs.key(playerKeyPrefix + r.Name)
		pipe.HSet(ctx, playerKey, "name", r.Name)
		pipe.HIncrBy(ctx, playerKey, "games", 1)
		pipe.HIncrBy(ctx, playerKey, "total_score", int64(r.Score))
		// Results 已按名次排序
		if i == 0 {
			pipe.HIncrBy(ctx, playerKey, "wins", 1)
		}

		pipe.ZIncrBy(ctx, rs.key(leaderboardKey), float64(r.Score), r.Name)
		pipe.ZIncrBy(ctx, dailyKey, float64(r.Score), r.Name)
	}
	if len(rec.Results) > 0 {
		pipe.Expire(ctx, dailyKey, dailyExpiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("保存战绩失败: %w", err)
	}
	return gameKey, nil
}

// --- 玩家统计 ---

// GetPlayerStats 获取玩家累计统计，没有记录时返回 nil
func (rs *RedisStore) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	data, err := rs.client.HGetAll(ctx, rs.key(playerKeyPrefix+name)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parsePlayerStats(name, data), nil
}

func parsePlayerStats(name string, data map[string]string) *PlayerStats {
	atoi := func(k string) int {
		n, _ := strconv.Atoi(data[k])
		return n
	}
	return &PlayerStats{
		Name:       name,
		Games:      atoi("games"),
		Wins:       atoi("wins"),
		TotalScore: atoi("total_score"),
	}
}

// --- 排行榜 ---

// GetLeaderboard 获取排行榜（从高到低）
func (rs *RedisStore) GetLeaderboard(ctx context.Context, typ LeaderboardType, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	key := rs.key(leaderboardKey)
	if typ == LeaderboardDaily {
		key = rs.key(dailyLeaderboard + time.Now().Format(time.DateOnly))
	}

	results, err := rs.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	// 批量读取玩家统计
	pipe := rs.client.Pipeline()
	statsCmds := make([]*redis.MapStringStringCmd, len(results))
	for i, z := range results {
		statsCmds[i] = pipe.HGetAll(ctx, rs.key(playerKeyPrefix+memberName(z.Member)))
	}
	if len(results) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, z := range results {
		name := memberName(z.Member)
		stats := parsePlayerStats(name, statsCmds[i].Val())
		entries = append(entries, &LeaderboardEntry{
			Rank:  i + 1,
			Name:  name,
			Score: int(z.Score),
			Games: stats.Games,
			Wins:  stats.Wins,
		})
	}
	return entries, nil
}

func memberName(m any) string {
	if s, ok := m.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(m))
}
