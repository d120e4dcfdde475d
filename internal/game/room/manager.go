package room

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-party/internal/apperrors"
	"github.com/palemoky/trivia-party/internal/event"
	"github.com/palemoky/trivia-party/internal/metrics"
	"github.com/palemoky/trivia-party/internal/questions"
)

const roomCodeLength = 6 // 房间号长度

// 房间关闭原因
const (
	ReasonIdle     = "idle"
	ReasonFinished = "finished"
	ReasonClosed   = "closed"
	ReasonShutdown = "shutdown"
)

// Options 房间管理参数
type Options struct {
	RoundEndDelay   time.Duration // 所有人作答后到下一轮开始的间隔
	IdleTimeout     time.Duration // 无操作多久后清理
	FinishedTTL     time.Duration // 游戏结束后保留多久
	CleanupInterval time.Duration // 清理周期
}

// RoomManager 房间管理器
type RoomManager struct {
	bank    *questions.Bank
	bus     *event.Bus
	metrics *metrics.Metrics
	opts    Options

	newCode func() string
	newRand func() *rand.Rand

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRoomManager 创建房间管理器。清理循环需调用 Run 启动
func NewRoomManager(bank *questions.Bank, bus *event.Bus, m *metrics.Metrics, opts Options) *RoomManager {
	if bus == nil {
		bus = event.NewBus()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}

	return &RoomManager{
		bank:    bank,
		bus:     bus,
		metrics: m,
		opts:    opts,
		newCode: generateRoomCode,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个处于大厅阶段的空房间
func (rm *RoomManager) CreateRoom() *Room {
	rm.mu.Lock()
	code := rm.uniqueCode()
	room := newRoom(code, rm.bank, rm.newRand(), rm)
	rm.rooms[code] = room
	rm.mu.Unlock()

	slog.Info("room created", "room", code)
	room.publish(event.RoomCreated{Room: code})

	return room
}

// GetRoom 获取房间，房间号不区分大小写
func (rm *RoomManager) GetRoom(code string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, ok := rm.rooms[normalizeCode(code)]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return room, nil
}

// CloseRoom 从注册表移除房间并通知成员
func (rm *RoomManager) CloseRoom(code, reason string) error {
	rm.mu.Lock()
	room, ok := rm.rooms[normalizeCode(code)]
	if ok {
		delete(rm.rooms, room.Code)
	}
	rm.mu.Unlock()

	if !ok {
		return apperrors.ErrRoomNotFound
	}

	rm.retire(room, reason)
	return nil
}

// retire 关闭已从注册表移除的房间
func (rm *RoomManager) retire(room *Room, reason string) {
	if room.close(reason) {
		slog.Info("room closed", "room", room.Code, "reason", reason)
		room.publish(event.RoomClosed{Room: room.Code, Reason: reason})
	}
}

// Count 房间总数
func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// ActiveGames 正在进行回合的房间数
func (rm *RoomManager) ActiveGames() int {
	count := 0
	for _, room := range rm.snapshotRooms() {
		if room.inGame() {
			count++
		}
	}
	return count
}

// DetachClient 连接断开时从所有房间的推送列表中移除
func (rm *RoomManager) DetachClient(clientID string) {
	for _, room := range rm.snapshotRooms() {
		if room.Detach(clientID) {
			slog.Debug("client detached", "room", room.Code, "client", clientID)
		}
	}
}

// snapshotRooms 复制房间列表，避免持有注册表锁时再获取房间锁
func (rm *RoomManager) snapshotRooms() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// uniqueCode 生成未被占用的房间号，调用方需持有写锁
func (rm *RoomManager) uniqueCode() string {
	for {
		code := rm.newCode()
		if _, exists := rm.rooms[code]; !exists {
			return code
		}
	}
}

// generateRoomCode 取 UUID 前 6 位并转为大写
func generateRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:roomCodeLength])
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
