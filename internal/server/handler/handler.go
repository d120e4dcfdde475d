package handler

import (
	"log/slog"

	"github.com/palemoky/trivia-party/internal/game/room"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/server/storage"
	"github.com/palemoky/trivia-party/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
	Archive     storage.Archive
}

// Handler 消息处理器，把客户端动作转换为房间操作
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	archive     storage.Archive
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器，Archive 为空时排行榜始终为空
func NewHandler(deps HandlerDeps) *Handler {
	archive := deps.Archive
	if archive == nil {
		archive = storage.NoopArchive{}
	}
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
		archive:     archive,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: func(c types.ClientInterface, _ *protocol.Message) { h.handleCreateRoom(c) },
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgStartGame:  h.handleStartGame,
		protocol.MsgCloseRoom:  h.handleCloseRoom,

		// 游戏操作
		protocol.MsgChooseCategory:   h.handleChooseCategory,
		protocol.MsgChooseDifficulty: h.handleChooseDifficulty,
		protocol.MsgSubmitAnswer:     h.handleSubmitAnswer,

		// 信息查询
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
		protocol.MsgGetStats:       h.handleGetStats,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	slog.Warn("unknown message type", "type", msg.Type, "client", client.GetID(), "payload_bytes", len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}
