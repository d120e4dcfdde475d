package event

import "time"

const (
	NameRoomCreated  = "room.created"
	NameGameStarted  = "game.started"
	NameGameFinished = "game.finished"
	NameRoomClosed   = "room.closed"
)

// PlayerScore 玩家最终得分
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoomCreated struct {
	Room string
}

func (RoomCreated) Name() string { return NameRoomCreated }

type GameStarted struct {
	Room    string
	Players int
}

func (GameStarted) Name() string { return NameGameStarted }

// GameFinished 游戏结束，Results 已按名次排序
type GameFinished struct {
	Room       string
	Rounds     int
	Results    []PlayerScore
	Winner     string
	FinishedAt time.Time
}

func (GameFinished) Name() string { return NameGameFinished }

type RoomClosed struct {
	Room   string
	Reason string
}

func (RoomClosed) Name() string { return NameRoomClosed }
