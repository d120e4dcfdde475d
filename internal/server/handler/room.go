package handler

import (
	"errors"
	"log/slog"

	"github.com/palemoky/trivia-party/internal/apperrors"
	"github.com/palemoky/trivia-party/internal/game/room"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/types"
)

// handleCreateRoom 处理创建房间，创建者不会自动加入
func (h *Handler) handleCreateRoom(client types.ClientInterface) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}

	r := h.roomManager.CreateRoom()
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		Room: r.Code,
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	r, err := h.roomManager.GetRoom(payload.Room)
	if err == nil {
		err = r.Join(client, payload.Name)
	}
	if err != nil {
		// 房间不存在与房间刚被关闭对客户端来说是同一种结果
		if errors.Is(err, apperrors.ErrRoomNotFound) || errors.Is(err, apperrors.ErrRoomClosed) {
			client.SendMessage(codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
				Error: apperrors.ErrRoomNotFound.Message,
			}))
			return
		}
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
	}
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withRoom(client, msg.Type, payload.Room, func(r *room.Room) error {
		return r.Start()
	})
}

// handleCloseRoom 处理关闭房间，只有房间成员可以关闭
func (h *Handler) handleCloseRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withRoom(client, msg.Type, payload.Room, func(r *room.Room) error {
		if !r.HasMember(client.GetID()) {
			slog.Debug("close_room ignored", "room", r.Code, "client", client.GetID(), "reason", "not a member")
			return nil
		}
		return h.roomManager.CloseRoom(r.Code, room.ReasonClosed)
	})
}

// withRoom 查找房间并执行操作。房间不存在或已关闭时静默忽略
func (h *Handler) withRoom(client types.ClientInterface, action protocol.MessageType, code string, op func(*room.Room) error) {
	r, err := h.roomManager.GetRoom(code)
	if err == nil {
		err = op(r)
	}
	if err == nil {
		return
	}

	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		slog.Debug("action ignored", "action", action, "room", code, "client", client.GetID(), "reason", gameErr.Message)
		return
	}
	slog.Error("action failed", "action", action, "room", code, "client", client.GetID(), "error", err)
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
