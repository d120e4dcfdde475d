package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/palemoky/trivia-party/internal/config"
	"github.com/palemoky/trivia-party/internal/logger"
	"github.com/palemoky/trivia-party/internal/questions"
	"github.com/palemoky/trivia-party/internal/server"
)

// options 命令行参数，设置后覆盖配置文件
type options struct {
	configPath    string
	host          string
	port          int
	questions     string
	roundEndDelay int
	redis         bool
	redisAddr     string
	logLevel      string
	logFormat     string
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIVIA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "trivia-server",
		Short:   "Multiplayer trivia rooms over WebSocket.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.Flags(), opts)
		},
	}

	flags := cmd.Flags()
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "config file path (env: TRIVIA_CONFIG)")
	flags.StringVarP(&opts.host, "host", "b", "", "address to bind to (env: TRIVIA_HOST)")
	flags.IntVarP(&opts.port, "port", "p", 0, "port to listen on (env: TRIVIA_PORT)")
	flags.StringVarP(&opts.questions, "questions", "q", "", "question bank file, .json or .yaml (env: TRIVIA_QUESTIONS)")
	flags.IntVar(&opts.roundEndDelay, "round-end-delay", 0, "milliseconds between round end and next round (env: TRIVIA_ROUND_END_DELAY)")
	flags.BoolVar(&opts.redis, "redis", false, "archive finished games in redis (env: TRIVIA_REDIS)")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "redis address (env: TRIVIA_REDIS_ADDR)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (env: TRIVIA_LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", "", "text or json (env: TRIVIA_LOG_FORMAT)")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("trivia-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// loadConfig 读取配置文件并应用命令行覆盖，文件不存在时使用默认配置
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, bool, error) {
	cfg, err := config.Load(opts.configPath)
	missing := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		cfg = config.Default()
		missing = true
	}

	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("questions") {
		cfg.Game.QuestionsPath = opts.questions
	}
	if flags.Changed("round-end-delay") {
		cfg.Game.RoundEndDelay = opts.roundEndDelay
	}
	if flags.Changed("redis") {
		cfg.Redis.Enabled = opts.redis
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = opts.redisAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, missing, nil
}

func run(ctx context.Context, flags *pflag.FlagSet, opts *options) error {
	cfg, missing, err := loadConfig(flags, opts)
	if err != nil {
		return err
	}

	if _, err := logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: os.Stdout}); err != nil {
		return err
	}
	if missing {
		slog.Warn("config file not found, using defaults", "path", opts.configPath)
	}

	bank, err := questions.Load(cfg.Game.QuestionsPath)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if len(bank.Categories()) == 0 {
		return fmt.Errorf("question bank %s has no categories", cfg.Game.QuestionsPath)
	}

	srv, err := server.NewServer(cfg, bank)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("trivia server starting", "version", releaseVersion)
	return srv.Start(ctx)
}
