package handler

import (
	"log/slog"

	"github.com/palemoky/trivia-party/internal/game/room"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/questions"
	"github.com/palemoky/trivia-party/internal/types"
)

// handleChooseCategory 出题人选择分类
func (h *Handler) handleChooseCategory(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChooseCategoryPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withRoom(client, msg.Type, payload.Room, func(r *room.Room) error {
		return r.ChooseCategory(client.GetID(), payload.Category)
	})
}

// handleChooseDifficulty 玩家选择难度并领取题目
func (h *Handler) handleChooseDifficulty(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChooseDifficultyPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withRoom(client, msg.Type, payload.Room, func(r *room.Room) error {
		return r.ChooseDifficulty(client.GetID(), questions.Difficulty(payload.Difficulty))
	})
}

// handleSubmitAnswer 提交答案
func (h *Handler) handleSubmitAnswer(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.SubmitAnswerPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	// 没有答案的提交不记录
	if payload.Answer == nil {
		slog.Debug("answer missing, ignored", "room", payload.Room, "client", client.GetID())
		return
	}

	h.withRoom(client, msg.Type, payload.Room, func(r *room.Room) error {
		return r.SubmitAnswer(client.GetID(), *payload.Answer)
	})
}
