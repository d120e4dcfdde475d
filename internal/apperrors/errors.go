package apperrors

import (
	"github.com/palemoky/trivia-party/internal/protocol"
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: protocol.ErrorMessages[protocol.ErrCodeRoomNotFound]}
	ErrRoomClosed   = &GameError{Code: protocol.ErrCodeRoomClosed, Message: protocol.ErrorMessages[protocol.ErrCodeRoomClosed]}
)
