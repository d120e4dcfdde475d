package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomClosed        = 2005
	ErrCodeLeaderboard       = 4001 // 排行榜不可用
	ErrCodeStats             = 4002 // 玩家统计不可用
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "Unknown error",
	ErrCodeInvalidMsg:        "Invalid message",
	ErrCodeRateLimit:         "Too many requests",
	ErrCodeRoomNotFound:      "Room not found",
	ErrCodeRoomClosed:        "Room closed",
	ErrCodeLeaderboard:       "Leaderboard unavailable",
	ErrCodeStats:             "Stats unavailable",
	ErrCodeServerMaintenance: "Server under maintenance",
}
