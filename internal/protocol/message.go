package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgStartGame  MessageType = "start_game"  // 开始游戏
	MsgCloseRoom  MessageType = "close_room"  // 关闭房间

	// 游戏操作
	MsgChooseCategory   MessageType = "choose_category"   // 选择题目分类
	MsgChooseDifficulty MessageType = "choose_difficulty" // 选择难度
	MsgSubmitAnswer     MessageType = "submit_answer"     // 提交答案

	// 排行榜
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
	MsgGetStats       MessageType = "get_stats"       // 获取玩家统计
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomCreated MessageType = "room_created" // 房间创建成功（仅创建者）
	MsgJoined      MessageType = "joined"       // 加入结果（仅加入者）
	MsgPlayerList  MessageType = "player_list"  // 玩家列表（全房间）
	MsgRoomClosed  MessageType = "room_closed"  // 房间已关闭（全房间）

	// 游戏流程
	MsgRoundStart     MessageType = "round_start"     // 回合开始（全房间）
	MsgCategoryChosen MessageType = "category_chosen" // 分类已选（全房间）
	MsgQuestion       MessageType = "question"        // 题目（仅本人）
	MsgAnswerFeedback MessageType = "answer_feedback" // 答题反馈（仅本人）
	MsgRoundEnd       MessageType = "round_end"       // 回合结束（全房间）
	MsgGameOver       MessageType = "game_over"       // 游戏结束（全房间）

	// 排行榜
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果
	MsgStatsResult       MessageType = "stats_result"       // 玩家统计结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
