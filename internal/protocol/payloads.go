package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// RoomPayload 只携带房间号的请求（start_game / close_room）
type RoomPayload struct {
	Room string `json:"room"`
}

// ChooseCategoryPayload 选择分类请求
type ChooseCategoryPayload struct {
	Room     string `json:"room"`
	Category string `json:"category"`
}

// ChooseDifficultyPayload 选择难度请求
type ChooseDifficultyPayload struct {
	Room       string `json:"room"`
	Difficulty string `json:"difficulty"` // easy/medium/hard
}

// SubmitAnswerPayload 提交答案请求
type SubmitAnswerPayload struct {
	Room   string `json:"room"`
	Answer *int   `json:"answer"` // 选项下标 0-3，缺失时为 nil
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Type  string `json:"type,omitempty"` // total 或 daily，默认 total
	Limit int    `json:"limit"`
}

// GetStatsPayload 获取玩家统计请求（按显示名）
type GetStatsPayload struct {
	Name string `json:"name"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"sid"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	Room string `json:"room"`
}

// JoinedPayload 加入结果，失败时只有 Error
type JoinedPayload struct {
	Room     string `json:"room,omitempty"`
	PlayerID string `json:"sid,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PlayerListPayload 玩家列表
type PlayerListPayload struct {
	Players []string `json:"players"`
}

// RoomClosedPayload 房间关闭通知
type RoomClosedPayload struct {
	Room   string `json:"room"`
	Reason string `json:"reason"`
}

// RoundStartPayload 回合开始通知
type RoundStartPayload struct {
	RoundID    int      `json:"roundId"`
	Picker     string   `json:"picker"`
	PickerID   string   `json:"pickerSid"`
	Categories []string `json:"categories"`
}

// CategoryChosenPayload 分类已选通知
type CategoryChosenPayload struct {
	Category string `json:"category"`
	RoundID  int    `json:"roundId"`
}

// QuestionPayload 题目（只发给请求者）
type QuestionPayload struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	RoundID  int      `json:"roundId"`
}

// AnswerFeedbackPayload 答题反馈（只发给答题者）
type AnswerFeedbackPayload struct {
	Correct      bool `json:"correct"`
	CorrectIndex int  `json:"correctIndex"` // 占位题为 -1
}

// RoundEndPayload 回合结束通知
type RoundEndPayload struct{}

// GameOverPayload 游戏结束通知
type GameOverPayload struct {
	Results []PlayerResult `json:"results"` // 按分数降序
	Winner  string         `json:"winner"`
}

// PlayerResult 玩家最终得分
type PlayerResult struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Type    string             `json:"type"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"` // 累计得分
	Games int    `json:"games"`
	Wins  int    `json:"wins"`
}

// StatsResultPayload 玩家统计结果，没有记录时各项为 0
type StatsResultPayload struct {
	Name       string  `json:"name"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	TotalScore int     `json:"total_score"`
	WinRate    float64 `json:"win_rate"` // 百分比
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
