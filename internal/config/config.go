package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认配置
const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 1780
	defaultMaxConnections  = 1000
	defaultMessageRate     = 20 // 每秒消息数
	defaultRedisAddr       = "localhost:6379"
	defaultRedisPrefix     = "trivia"
	defaultRoundEndDelay   = 1000 // 毫秒
	defaultRoomIdleTimeout = 30   // 分钟
	defaultFinishedRoomTTL = 5    // 分钟
	defaultCleanupInterval = 60   // 秒
	defaultQuestionsPath   = "questions.json"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	MessageRate    int    `yaml:"message_rate"` // 单个连接每秒最多处理的消息数
}

// RedisConfig Redis 配置，仅用于对局结果归档和排行榜
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// GameConfig 游戏配置
type GameConfig struct {
	RoundEndDelay   int    `yaml:"round_end_delay"`   // 回合结束到下一回合的间隔（毫秒）
	RoomIdleTimeout int    `yaml:"room_idle_timeout"` // 房间空闲超时（分钟）
	FinishedRoomTTL int    `yaml:"finished_room_ttl"` // 已结束房间保留时间（分钟）
	CleanupInterval int    `yaml:"cleanup_interval"`  // 清理间隔（秒）
	QuestionsPath   string `yaml:"questions_path"`    // 题库文件
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Format string `yaml:"format"` // text/json
}

// RoundEndDelayDuration 返回回合结束延迟
func (c *GameConfig) RoundEndDelayDuration() time.Duration {
	return time.Duration(c.RoundEndDelay) * time.Millisecond
}

// RoomIdleTimeoutDuration 返回房间空闲超时时长
func (c *GameConfig) RoomIdleTimeoutDuration() time.Duration {
	return time.Duration(c.RoomIdleTimeout) * time.Minute
}

// FinishedRoomTTLDuration 返回已结束房间保留时长
func (c *GameConfig) FinishedRoomTTLDuration() time.Duration {
	return time.Duration(c.FinishedRoomTTL) * time.Minute
}

// CleanupIntervalDuration 返回清理间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := preset()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := preset()
	cfg.applyDefaults()
	return cfg
}

// preset 解析前预置的默认值，这些字段显式写 0 时保留 0
func preset() *Config {
	return &Config{Game: GameConfig{RoundEndDelay: defaultRoundEndDelay}}
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Server.MessageRate == 0 {
		c.Server.MessageRate = defaultMessageRate
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = defaultRedisPrefix
	}
	if c.Game.RoomIdleTimeout == 0 {
		c.Game.RoomIdleTimeout = defaultRoomIdleTimeout
	}
	if c.Game.FinishedRoomTTL == 0 {
		c.Game.FinishedRoomTTL = defaultFinishedRoomTTL
	}
	if c.Game.CleanupInterval == 0 {
		c.Game.CleanupInterval = defaultCleanupInterval
	}
	if c.Game.QuestionsPath == "" {
		c.Game.QuestionsPath = defaultQuestionsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max_connections: %d", c.Server.MaxConnections)
	}
	if c.Server.MessageRate < 1 {
		return fmt.Errorf("invalid message_rate: %d", c.Server.MessageRate)
	}
	if c.Game.RoundEndDelay < 0 {
		return fmt.Errorf("invalid round_end_delay: %d", c.Game.RoundEndDelay)
	}
	if c.Game.RoomIdleTimeout < 0 || c.Game.FinishedRoomTTL < 0 || c.Game.CleanupInterval < 0 {
		return errors.New("room timeouts must not be negative")
	}
	if c.Game.QuestionsPath == "" {
		return errors.New("questions_path must be set")
	}
	return nil
}
