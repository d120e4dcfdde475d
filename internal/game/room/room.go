package room

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/trivia-party/internal/apperrors"
	"github.com/palemoky/trivia-party/internal/event"
	"github.com/palemoky/trivia-party/internal/game/trivia"
	"github.com/palemoky/trivia-party/internal/metrics"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/questions"
	"github.com/palemoky/trivia-party/internal/types"
)

// Room 游戏房间：一个答题会话加上房间成员的连接。
// 所有会话操作都在房间锁内执行，通知也在锁内按顺序推送
type Room struct {
	Code      string    // 房间号
	CreatedAt time.Time // 创建时间

	session    *trivia.Session
	members    map[string]types.ClientInterface // 玩家 ID -> 连接
	lastActive time.Time
	finishedAt time.Time
	timer      *time.Timer // 回合结束后的延迟推进
	closed     bool

	roundEndDelay time.Duration
	bus           *event.Bus
	metrics       *metrics.Metrics
	log           *slog.Logger

	mu sync.Mutex
}

func newRoom(code string, bank *questions.Bank, rng *rand.Rand, rm *RoomManager) *Room {
	now := time.Now()
	return &Room{
		Code:          code,
		CreatedAt:     now,
		session:       trivia.NewSession(code, bank, rng),
		members:       make(map[string]types.ClientInterface),
		lastActive:    now,
		roundEndDelay: rm.opts.RoundEndDelay,
		bus:           rm.bus,
		metrics:       rm.metrics,
		log:           slog.With("room", code),
	}
}

// Join 玩家加入房间，仅大厅阶段有效
func (r *Room) Join(client types.ClientInterface, name string) error {
	id := client.GetID()
	_, err := r.do(protocol.MsgJoinRoom, id, func(s *trivia.Session) trivia.Outcome {
		out := s.Join(id, name)
		if out.OK() {
			r.members[id] = client
		}
		return out
	})
	return err
}

// Start 开始游戏，没有玩家时直接结束且不计为开局
func (r *Room) Start() error {
	out, err := r.do(protocol.MsgStartGame, "", (*trivia.Session).Start)
	if err == nil && out.OK() && !out.GameOver {
		r.publish(event.GameStarted{Room: r.Code, Players: len(r.Snapshot().Players)})
	}
	return err
}

// ChooseCategory 出题人选择分类
func (r *Room) ChooseCategory(playerID, category string) error {
	_, err := r.do(protocol.MsgChooseCategory, playerID, func(s *trivia.Session) trivia.Outcome {
		return s.ChooseCategory(playerID, category)
	})
	return err
}

// ChooseDifficulty 玩家选择难度并领题
func (r *Room) ChooseDifficulty(playerID string, d questions.Difficulty) error {
	_, err := r.do(protocol.MsgChooseDifficulty, playerID, func(s *trivia.Session) trivia.Outcome {
		return s.ChooseDifficulty(playerID, d)
	})
	return err
}

// SubmitAnswer 玩家提交答案
func (r *Room) SubmitAnswer(playerID string, answer int) error {
	out, err := r.do(protocol.MsgSubmitAnswer, playerID, func(s *trivia.Session) trivia.Outcome {
		return s.SubmitAnswer(playerID, answer)
	})
	if err == nil && out.OK() {
		r.metrics.ObserveAnswer(out.Correct)
	}
	return err
}

// End 立即结束游戏并公布排名
func (r *Room) End() error {
	_, err := r.do("end_game", "", (*trivia.Session).End)
	return err
}

// advance 延迟推进到下一轮，由定时器触发
func (r *Room) advance(round int) {
	_, _ = r.do("advance", "", func(s *trivia.Session) trivia.Outcome {
		return s.Advance(round)
	})
}

// do 在房间锁内执行会话操作并推送通知，房间已关闭时返回 ErrRoomClosed
func (r *Room) do(action protocol.MessageType, actor string, op func(*trivia.Session) trivia.Outcome) (trivia.Outcome, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return trivia.Outcome{}, apperrors.ErrRoomClosed
	}

	out := op(r.session)
	r.lastActive = time.Now()

	if !out.OK() {
		r.mu.Unlock()
		r.log.Debug("action rejected", "action", action, "player", actor, "reason", out.Rejected)
		r.metrics.ObserveRejected(string(action))
		return out, nil
	}

	r.deliver(out.Notices)

	var finished *event.GameFinished
	if out.Advance {
		r.scheduleAdvance(out.Round)
	}
	if out.GameOver {
		r.finishedAt = r.lastActive
		finished = r.gameFinished()
	}
	r.mu.Unlock()

	if finished != nil {
		r.log.Info("game finished", "rounds", finished.Rounds, "winner", finished.Winner)
		r.publish(*finished)
	}
	return out, nil
}

// deliver 单播通知只发给目标成员，房间通知发给所有成员。调用方需持有锁
func (r *Room) deliver(notices []trivia.Notice) {
	for _, n := range notices {
		msg := n.Message()
		if n.Private() {
			if c, ok := r.members[n.To]; ok {
				c.SendMessage(msg)
			}
			continue
		}
		for _, c := range r.members {
			c.SendMessage(msg)
		}
	}
}

func (r *Room) scheduleAdvance(round int) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.roundEndDelay, func() {
		r.advance(round)
	})
}

func (r *Room) gameFinished() *event.GameFinished {
	results := r.session.Results()
	scores := make([]event.PlayerScore, 0, len(results))
	for _, st := range results {
		scores = append(scores, event.PlayerScore{Name: st.Name, Score: st.Score})
	}
	return &event.GameFinished{
		Room:       r.Code,
		Rounds:     r.session.Round(),
		Results:    scores,
		Winner:     trivia.Winner(results),
		FinishedAt: r.finishedAt,
	}
}

func (r *Room) publish(e event.Event) {
	r.bus.Publish(context.Background(), e)
}

// Detach 连接断开时移出推送列表，玩家仍保留在会话中
func (r *Room) Detach(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[clientID]; !ok {
		return false
	}
	delete(r.members, clientID)
	return true
}

// HasMember 连接是否在房间推送列表中
func (r *Room) HasMember(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[clientID]
	return ok
}

// Snapshot 返回会话状态的副本
func (r *Room) Snapshot() trivia.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Snapshot()
}

// close 关闭房间：停止定时器并通知所有成员。返回 false 表示已关闭过
func (r *Room) close(reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}

	msg := codec.MustNewMessage(protocol.MsgRoomClosed, protocol.RoomClosedPayload{Room: r.Code, Reason: reason})
	for _, c := range r.members {
		c.SendMessage(msg)
	}
	clear(r.members)
	return true
}

// expired 判断房间是否应被清理，返回清理原因
func (r *Room) expired(now time.Time, idleTimeout, finishedTTL time.Duration) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session.Phase() == trivia.PhaseGameOver && finishedTTL > 0 && now.Sub(r.finishedAt) > finishedTTL {
		return ReasonFinished, true
	}
	if idleTimeout > 0 && now.Sub(r.lastActive) > idleTimeout {
		return ReasonIdle, true
	}
	return "", false
}

// inGame 是否正在进行回合
func (r *Room) inGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Phase() == trivia.PhaseRoundInProgress
}
