package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 50

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1
  prefix: "quiz"

game:
  round_end_delay: 250
  room_idle_timeout: 15
  finished_room_ttl: 2
  cleanup_interval: 30
  questions_path: "/data/questions.yaml"

log:
  level: debug
  format: json
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Server.MaxConnections)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "quiz", cfg.Redis.Prefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.RoundEndDelayDuration())
	assert.Equal(t, 15*time.Minute, cfg.Game.RoomIdleTimeoutDuration())
	assert.Equal(t, 2*time.Minute, cfg.Game.FinishedRoomTTLDuration())
	assert.Equal(t, 30*time.Second, cfg.Game.CleanupIntervalDuration())
	assert.Equal(t, "/data/questions.yaml", cfg.Game.QuestionsPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: :::"), 0o600))

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`{}`), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultMessageRate, cfg.Server.MessageRate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, defaultRedisPrefix, cfg.Redis.Prefix)
	assert.Equal(t, time.Second, cfg.Game.RoundEndDelayDuration())
	assert.Equal(t, defaultQuestionsPath, cfg.Game.QuestionsPath)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
	assert.Equal(t, defaultLogFormat, cfg.Log.Format)
}

func TestLoad_ZeroRoundEndDelay(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("game:\n  round_end_delay: 0\n"), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Zero(t, cfg.Game.RoundEndDelay)
	assert.NoError(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(c *Config)
		wantErr bool
	}{
		"defaults are valid": {
			mutate: func(*Config) {},
		},
		"port out of range": {
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		"no connections allowed": {
			mutate:  func(c *Config) { c.Server.MaxConnections = 0 },
			wantErr: true,
		},
		"no messages allowed": {
			mutate:  func(c *Config) { c.Server.MessageRate = -1 },
			wantErr: true,
		},
		"negative round end delay": {
			mutate:  func(c *Config) { c.Game.RoundEndDelay = -1 },
			wantErr: true,
		},
		"negative idle timeout": {
			mutate:  func(c *Config) { c.Game.RoomIdleTimeout = -5 },
			wantErr: true,
		},
		"empty questions path": {
			mutate:  func(c *Config) { c.Game.QuestionsPath = "" },
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
