package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/trivia-party/internal/config"
	"github.com/palemoky/trivia-party/internal/event"
	"github.com/palemoky/trivia-party/internal/game/room"
	"github.com/palemoky/trivia-party/internal/metrics"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/questions"
	"github.com/palemoky/trivia-party/internal/server/handler"
	"github.com/palemoky/trivia-party/internal/server/storage"
	"github.com/palemoky/trivia-party/internal/types"
)

// 关闭时等待进行中游戏结束的最长时间
const drainTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
	// 消息都很小，压缩没有收益
	EnableCompression: false,
}

// messageHandler 处理单条客户端消息
type messageHandler interface {
	Handle(client types.ClientInterface, msg *protocol.Message)
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client // 未启用 Redis 时为 nil
	archive     storage.Archive
	bus         *event.Bus
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	roomManager *room.RoomManager
	handler     messageHandler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	messageLimiter *messageLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer   *http.Server
	shutdownOnce sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, bank *questions.Bank) (*Server, error) {
	if bank == nil || len(bank.Categories()) == 0 {
		return nil, errors.New("question bank is empty")
	}

	s := &Server{
		config:         cfg,
		archive:        storage.NoopArchive{},
		bus:            event.NewBus(),
		registry:       prometheus.NewRegistry(),
		clients:        make(map[string]*Client),
		messageLimiter: newMessageLimiter(cfg.Server.MessageRate),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		s.redis = rdb
		s.archive = storage.NewRedisStore(rdb, cfg.Redis.Prefix)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = metrics.New(s.registry)
	s.metrics.Subscribe(s.bus)
	storage.Subscribe(s.bus, s.archive)

	s.roomManager = room.NewRoomManager(bank, s.bus, s.metrics, room.Options{
		RoundEndDelay:   cfg.Game.RoundEndDelayDuration(),
		IdleTimeout:     cfg.Game.RoomIdleTimeoutDuration(),
		FinishedTTL:     cfg.Game.FinishedRoomTTLDuration(),
		CleanupInterval: cfg.Game.CleanupIntervalDuration(),
	})

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
		Archive:     s.archive,
	})

	slog.Info("server configured",
		"categories", len(bank.Categories()),
		"questions", bank.Size(),
		"redis", cfg.Redis.Enabled,
		"max_connections", cfg.Server.MaxConnections,
		"message_rate", cfg.Server.MessageRate)

	return s, nil
}

// routes 注册 HTTP 路由
func (s *Server) routes() http.Handler {
	router := httprouter.New()
	router.GET("/ws", s.handleWebSocket)
	router.GET("/health", s.handleHealth)
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return router
}

// Start 启动服务器，阻塞直到 ctx 取消或监听失败
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", "ws://"+addr+"/ws", "cpus", runtime.NumCPU())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})

	g.Go(func() error {
		return s.roomManager.Run(gctx)
	})

	g.Go(func() error {
		s.monitorStats(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return s.GracefulShutdown(drainCtx)
	})

	return g.Wait()
}
