// Package trivia 实现单个房间的答题状态机：玩家名单、出题人轮换、按玩家发题、
// 作答屏障与计分。Session 不是并发安全的，由外层 Room 串行调用
package trivia

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/questions"
)

// Phase 游戏阶段
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseRoundInProgress
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRoundInProgress:
		return "round_in_progress"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

const (
	maxPicks    = 2 // 每位玩家最多当两次出题人
	optionCount = 3 // 每轮候选分类数量
)

// Player 玩家
type Player struct {
	ID    string
	Name  string
	Score int
}

// Notice 待推送的通知，To 为空表示发给整个房间
type Notice struct {
	To      string
	Type    protocol.MessageType
	Payload any
}

// Private 是否为单播通知
func (n Notice) Private() bool {
	return n.To != ""
}

// Message 转换为协议消息
func (n Notice) Message() *protocol.Message {
	return codec.MustNewMessage(n.Type, n.Payload)
}

// Rejection 操作被静默拒绝的原因，为空表示已接受
type Rejection string

const (
	RejectWrongPhase         Rejection = "wrong phase"
	RejectUnknownPlayer      Rejection = "unknown player"
	RejectNotPicker          Rejection = "not the picker"
	RejectCategoryNotOffered Rejection = "category not offered"
	RejectNoCategory         Rejection = "category not chosen"
	RejectInvalidDifficulty  Rejection = "invalid difficulty"
	RejectAlreadyAssigned    Rejection = "question already assigned"
	RejectNoQuestion         Rejection = "no open question"
	RejectAlreadyAnswered    Rejection = "already answered"
	RejectRoundClosed        Rejection = "round closed"
	RejectRoundNotFinished   Rejection = "round not finished"
)

// Outcome 一次操作的结果
type Outcome struct {
	Notices  []Notice
	Rejected Rejection
	Round    int  // 操作完成后的回合号
	Advance  bool // 所有玩家已作答，调用方应延迟后调用 Advance(Round)
	Correct  bool // SubmitAnswer 是否答对
	GameOver bool // 本次操作使游戏结束
}

// OK 操作是否被接受
func (o Outcome) OK() bool {
	return o.Rejected == ""
}

// roundState 回合内状态，每次换轮整体替换
type roundState struct {
	picker   string
	options  []string
	category string
	assigned map[string]*assignment
	closed   bool // 作答屏障已触发，等待 Advance
}

// assignment 某位玩家本轮拿到的题目
type assignment struct {
	question    questions.Question
	placeholder bool
	difficulty  questions.Difficulty
	answered    bool
	answer      int
}

// Session 房间游戏状态机
type Session struct {
	code string
	bank *questions.Bank
	rng  *rand.Rand

	players      map[string]*Player
	joinOrder    []string
	order        []string
	pickerCounts map[string]int
	round        int
	phase        Phase
	cur          *roundState
	results      []Standing
}

// NewSession 创建处于大厅阶段的空会话
func NewSession(code string, bank *questions.Bank, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Session{
		code:         code,
		bank:         bank,
		rng:          rng,
		players:      make(map[string]*Player),
		pickerCounts: make(map[string]int),
		phase:        PhaseLobby,
	}
}

// Code 房间号
func (s *Session) Code() string { return s.code }

// Phase 当前阶段
func (s *Session) Phase() Phase { return s.phase }

// Round 当前回合号
func (s *Session) Round() int { return s.round }

// HasPlayer 玩家是否在会话中
func (s *Session) HasPlayer(id string) bool {
	_, ok := s.players[id]
	return ok
}

// Join 玩家加入，仅大厅阶段有效。同一身份重复加入会覆盖原记录
func (s *Session) Join(id, name string) Outcome {
	if s.phase != PhaseLobby {
		return s.reject(RejectWrongPhase)
	}

	if _, exists := s.players[id]; !exists {
		s.joinOrder = append(s.joinOrder, id)
	}
	s.players[id] = &Player{ID: id, Name: name}
	s.pickerCounts[id] = 0

	return s.accept(
		Notice{To: id, Type: protocol.MsgJoined, Payload: protocol.JoinedPayload{Room: s.code, PlayerID: id}},
		Notice{Type: protocol.MsgPlayerList, Payload: protocol.PlayerListPayload{Players: s.names()}},
	)
}

// Start 开始游戏：随机打乱出题顺序并进入第一轮
func (s *Session) Start() Outcome {
	if s.phase != PhaseLobby {
		return s.reject(RejectWrongPhase)
	}

	order := slices.Clone(s.joinOrder)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return s.begin(order)
}

// begin 以给定顺序开始游戏
func (s *Session) begin(order []string) Outcome {
	s.order = order
	s.phase = PhaseRoundInProgress
	return s.nextRound()
}

// End 结束游戏并广播排名，大厅和回合中均可调用
func (s *Session) End() Outcome {
	if s.phase == PhaseGameOver {
		return s.reject(RejectWrongPhase)
	}
	return s.finish()
}

// Results 游戏结束后的排名，未结束时为空
func (s *Session) Results() []Standing {
	return slices.Clone(s.results)
}

func (s *Session) finish() Outcome {
	s.phase = PhaseGameOver
	s.cur = nil
	s.results = Rank(s.standings())

	results := make([]protocol.PlayerResult, 0, len(s.results))
	for _, st := range s.results {
		results = append(results, protocol.PlayerResult{Name: st.Name, Score: st.Score})
	}

	out := s.accept(Notice{Type: protocol.MsgGameOver, Payload: protocol.GameOverPayload{
		Results: results,
		Winner:  Winner(s.results),
	}})
	out.GameOver = true
	return out
}

// standings 按加入顺序列出所有玩家的分数
func (s *Session) standings() []Standing {
	list := make([]Standing, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		p := s.players[id]
		list = append(list, Standing{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return list
}

func (s *Session) names() []string {
	names := make([]string, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		names = append(names, s.players[id].Name)
	}
	return names
}

func (s *Session) accept(notices ...Notice) Outcome {
	return Outcome{Notices: notices, Round: s.round}
}

func (s *Session) reject(r Rejection) Outcome {
	return Outcome{Rejected: r, Round: s.round}
}
