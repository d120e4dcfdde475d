package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-party/internal/game/room"
	"github.com/palemoky/trivia-party/internal/game/trivia"
	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/questions"
	"github.com/palemoky/trivia-party/internal/server/storage"
	"github.com/palemoky/trivia-party/internal/testutil"
)

func testBank() *questions.Bank {
	q := func(text string, correct int) questions.Question {
		return questions.Question{Text: text, Answers: [4]string{"a", "b", "c", "d"}, Correct: correct}
	}
	return questions.NewBank(map[string]map[questions.Difficulty][]questions.Question{
		"NBA":     {questions.Easy: {q("nba-easy", 1)}},
		"Movies":  {questions.Easy: {q("movies-easy", 0)}},
		"History": {questions.Easy: {q("history-easy", 3)}},
	})
}

type fixture struct {
	h       *Handler
	rm      *room.RoomManager
	server  *testutil.MockServer
	archive *testutil.MockArchive
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(false).Maybe()
	archive := new(testutil.MockArchive)
	rm := room.NewRoomManager(testBank(), nil, nil, room.Options{RoundEndDelay: time.Millisecond})
	t.Cleanup(rm.Shutdown)

	return &fixture{
		h:       NewHandler(HandlerDeps{Server: srv, RoomManager: rm, Archive: archive}),
		rm:      rm,
		server:  srv,
		archive: archive,
	}
}

func msgOf(typ protocol.MessageType, payload any) *protocol.Message {
	return codec.MustNewMessage(typ, payload)
}

func badMsg(typ protocol.MessageType) *protocol.Message {
	return &protocol.Message{Type: typ, Payload: json.RawMessage(`"not an object"`)}
}

func answerOf(i int) *int {
	return &i
}

func errorCodes(c *testutil.SimpleClient) []int {
	var codes []int
	for _, p := range testutil.Payloads[protocol.ErrorPayload](c, protocol.MsgError) {
		codes = append(codes, p.Code)
	}
	return codes
}

// createRoom 通过处理器创建房间并返回房间号
func (f *fixture) createRoom(t *testing.T) string {
	t.Helper()
	creator := testutil.NewSimpleClient("creator")
	f.h.Handle(creator, msgOf(protocol.MsgCreateRoom, nil))
	created := testutil.Payloads[protocol.RoomCreatedPayload](creator, protocol.MsgRoomCreated)
	require.Len(t, created, 1)
	return created[0].Room
}

func (f *fixture) join(t *testing.T, code string, ids ...string) map[string]*testutil.SimpleClient {
	t.Helper()
	clients := make(map[string]*testutil.SimpleClient, len(ids))
	for _, id := range ids {
		c := testutil.NewSimpleClient(id)
		f.h.Handle(c, msgOf(protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: code, Name: "name-" + id}))
		clients[id] = c
	}
	return clients
}

func TestHandler_UnknownMessageType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := testutil.NewSimpleClient("a")
	f.h.Handle(c, &protocol.Message{Type: "play_cards"})

	assert.Equal(t, []int{protocol.ErrCodeInvalidMsg}, errorCodes(c))
}

func TestHandler_Ping(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := testutil.NewSimpleClient("a")
	f.h.Handle(c, msgOf(protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))

	pongs := testutil.Payloads[protocol.PongPayload](c, protocol.MsgPong)
	require.Len(t, pongs, 1)
	assert.Equal(t, int64(42), pongs[0].ClientTimestamp)
	assert.Positive(t, pongs[0].ServerTimestamp)
}

func TestHandler_CreateRoom(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code := f.createRoom(t)

	assert.Regexp(t, `^[0-9A-F]{6}$`, code)
	assert.Equal(t, 1, f.rm.Count())

	r, err := f.rm.GetRoom(code)
	require.NoError(t, err)
	assert.Equal(t, trivia.PhaseLobby, r.Snapshot().Phase)
	assert.Empty(t, r.Snapshot().Players)
}

func TestHandler_CreateRoomInMaintenance(t *testing.T) {
	t.Parallel()

	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(true)
	rm := room.NewRoomManager(testBank(), nil, nil, room.Options{})
	h := NewHandler(HandlerDeps{Server: srv, RoomManager: rm})

	c := testutil.NewSimpleClient("a")
	h.Handle(c, msgOf(protocol.MsgCreateRoom, nil))

	assert.Equal(t, []int{protocol.ErrCodeServerMaintenance}, errorCodes(c))
	assert.Equal(t, 0, rm.Count())
	srv.AssertExpectations(t)
}

func TestHandler_JoinRoom(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code := f.createRoom(t)

	tests := map[string]struct {
		msg        *protocol.Message
		wantJoined *protocol.JoinedPayload
		wantErrs   []int
	}{
		"existing room": {
			msg:        msgOf(protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: code, Name: "Alice"}),
			wantJoined: &protocol.JoinedPayload{Room: code, PlayerID: "client"},
		},
		"padded lower case code": {
			msg:        msgOf(protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "  " + strings.ToLower(code) + " ", Name: "Alice"}),
			wantJoined: &protocol.JoinedPayload{Room: code, PlayerID: "client"},
		},
		"missing room": {
			msg:        msgOf(protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "NOPE00", Name: "Alice"}),
			wantJoined: &protocol.JoinedPayload{Error: "Room not found"},
		},
		"invalid payload": {
			msg:      badMsg(protocol.MsgJoinRoom),
			wantErrs: []int{protocol.ErrCodeInvalidMsg},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := testutil.NewSimpleClient("client")
			f.h.Handle(c, tc.msg)

			joined := testutil.Payloads[protocol.JoinedPayload](c, protocol.MsgJoined)
			if tc.wantJoined == nil {
				assert.Empty(t, joined)
			} else {
				require.Len(t, joined, 1)
				assert.Equal(t, *tc.wantJoined, joined[0])
			}
			assert.Equal(t, tc.wantErrs, errorCodes(c))
		})
	}
}

func TestHandler_FullRound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code := f.createRoom(t)
	clients := f.join(t, code, "a", "b")
	r, err := f.rm.GetRoom(code)
	require.NoError(t, err)

	f.h.Handle(clients["a"], msgOf(protocol.MsgStartGame, protocol.RoomPayload{Room: code}))
	snap := r.Snapshot()
	require.Equal(t, trivia.PhaseRoundInProgress, snap.Phase)
	require.Equal(t, 1, snap.Round)

	picker := clients[snap.Picker]
	f.h.Handle(picker, msgOf(protocol.MsgChooseCategory, protocol.ChooseCategoryPayload{Room: code, Category: "NBA"}))
	for _, c := range clients {
		chosen := testutil.Payloads[protocol.CategoryChosenPayload](c, protocol.MsgCategoryChosen)
		require.Len(t, chosen, 1)
		assert.Equal(t, protocol.CategoryChosenPayload{Category: "NBA", RoundID: 1}, chosen[0])
	}

	for _, c := range clients {
		f.h.Handle(c, msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: code, Difficulty: "easy"}))
		qs := testutil.Payloads[protocol.QuestionPayload](c, protocol.MsgQuestion)
		require.Len(t, qs, 1)
		assert.Equal(t, "nba-easy", qs[0].Question)
	}

	for id, c := range clients {
		f.h.Handle(c, msgOf(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{Room: code, Answer: answerOf(r.CorrectIndexForTest(id))}))
		feedback := testutil.Payloads[protocol.AnswerFeedbackPayload](c, protocol.MsgAnswerFeedback)
		require.Len(t, feedback, 1)
		assert.True(t, feedback[0].Correct)
		assert.Equal(t, 1, feedback[0].CorrectIndex)
	}

	require.Eventually(t, func() bool {
		return r.Snapshot().Round == 2
	}, time.Second, time.Millisecond)

	for _, p := range r.Snapshot().Players {
		assert.Equal(t, 10, p.Score)
	}
	for _, c := range clients {
		assert.Len(t, c.OfType(protocol.MsgRoundEnd), 1)
		assert.Empty(t, errorCodes(c))
	}
}

// startWithCategory 单人房间开局并选好分类
func (f *fixture) startWithCategory(t *testing.T, category string) (string, *room.Room, *testutil.SimpleClient) {
	t.Helper()
	code := f.createRoom(t)
	c := f.join(t, code, "a")["a"]
	r, err := f.rm.GetRoom(code)
	require.NoError(t, err)

	f.h.Handle(c, msgOf(protocol.MsgStartGame, protocol.RoomPayload{Room: code}))
	f.h.Handle(c, msgOf(protocol.MsgChooseCategory, protocol.ChooseCategoryPayload{Room: code, Category: category}))
	require.Equal(t, category, r.Snapshot().Category)
	c.Reset()
	return code, r, c
}

func TestHandler_DifficultyMustMatchExactly(t *testing.T) {
	t.Parallel()

	for _, d := range []string{"HARD ", " Easy", "Medium", "extreme", ""} {
		t.Run(d, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			code, _, c := f.startWithCategory(t, "Movies")

			f.h.Handle(c, msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: code, Difficulty: d}))
			assert.Empty(t, c.Messages())

			// 之后仍可正常选择
			f.h.Handle(c, msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: code, Difficulty: "easy"}))
			qs := testutil.Payloads[protocol.QuestionPayload](c, protocol.MsgQuestion)
			require.Len(t, qs, 1)
			assert.Equal(t, "movies-easy", qs[0].Question)
		})
	}
}

func TestHandler_SubmitWithoutAnswerIgnored(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing answer": `{"room":%q}`,
		"null answer":    `{"room":%q,"answer":null}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			code, r, c := f.startWithCategory(t, "Movies")
			f.h.Handle(c, msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: code, Difficulty: "easy"}))
			c.Reset()

			f.h.Handle(c, &protocol.Message{Type: protocol.MsgSubmitAnswer, Payload: json.RawMessage(fmt.Sprintf(body, code))})
			assert.Empty(t, c.Messages())
			assert.Equal(t, 0, r.Snapshot().Players[0].Score)

			// 名额未被占用，正确答案仍然计分
			f.h.Handle(c, msgOf(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{Room: code, Answer: answerOf(0)}))
			feedback := testutil.Payloads[protocol.AnswerFeedbackPayload](c, protocol.MsgAnswerFeedback)
			require.Len(t, feedback, 1)
			assert.True(t, feedback[0].Correct)
			assert.Len(t, c.OfType(protocol.MsgRoundEnd), 1)
			assert.Equal(t, 10, r.Snapshot().Players[0].Score)
		})
	}
}

func TestHandler_GameActionsOnMissingRoomIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	msgs := []*protocol.Message{
		msgOf(protocol.MsgStartGame, protocol.RoomPayload{Room: "NOPE00"}),
		msgOf(protocol.MsgChooseCategory, protocol.ChooseCategoryPayload{Room: "NOPE00", Category: "NBA"}),
		msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: "NOPE00", Difficulty: "easy"}),
		msgOf(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{Room: "NOPE00", Answer: answerOf(1)}),
		msgOf(protocol.MsgCloseRoom, protocol.RoomPayload{Room: "NOPE00"}),
	}

	c := testutil.NewSimpleClient("a")
	for _, m := range msgs {
		f.h.Handle(c, m)
	}
	assert.Empty(t, c.Messages())
}

func TestHandler_InvalidGamePayloads(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	types := []protocol.MessageType{
		protocol.MsgStartGame,
		protocol.MsgCloseRoom,
		protocol.MsgChooseCategory,
		protocol.MsgChooseDifficulty,
		protocol.MsgSubmitAnswer,
	}

	for _, typ := range types {
		t.Run(string(typ), func(t *testing.T) {
			c := testutil.NewSimpleClient("a")
			f.h.Handle(c, badMsg(typ))
			assert.Equal(t, []int{protocol.ErrCodeInvalidMsg}, errorCodes(c))
		})
	}
}

func TestHandler_OutOfTurnActionsAreSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code := f.createRoom(t)
	clients := f.join(t, code, "a", "b")
	r, err := f.rm.GetRoom(code)
	require.NoError(t, err)
	r.BeginWithOrderForTest([]string{"a", "b"})

	for _, c := range clients {
		c.Reset()
	}

	// 非出题人选择分类、未选分类时选择难度、没有题目时作答
	f.h.Handle(clients["b"], msgOf(protocol.MsgChooseCategory, protocol.ChooseCategoryPayload{Room: code, Category: "NBA"}))
	f.h.Handle(clients["a"], msgOf(protocol.MsgChooseDifficulty, protocol.ChooseDifficultyPayload{Room: code, Difficulty: "easy"}))
	f.h.Handle(clients["a"], msgOf(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{Room: code, Answer: answerOf(1)}))
	f.h.Handle(clients["b"], msgOf(protocol.MsgStartGame, protocol.RoomPayload{Room: code}))

	for _, c := range clients {
		assert.Empty(t, c.Messages())
	}
	assert.Empty(t, r.Snapshot().Category)
}

func TestHandler_CloseRoom(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code := f.createRoom(t)
	clients := f.join(t, code, "a")

	// 非成员不能关闭房间
	outsider := testutil.NewSimpleClient("outsider")
	f.h.Handle(outsider, msgOf(protocol.MsgCloseRoom, protocol.RoomPayload{Room: code}))
	assert.Equal(t, 1, f.rm.Count())
	assert.Empty(t, outsider.Messages())

	f.h.Handle(clients["a"], msgOf(protocol.MsgCloseRoom, protocol.RoomPayload{Room: code}))
	assert.Equal(t, 0, f.rm.Count())

	closed := testutil.Payloads[protocol.RoomClosedPayload](clients["a"], protocol.MsgRoomClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, protocol.RoomClosedPayload{Room: code, Reason: room.ReasonClosed}, closed[0])
}

func TestHandler_GetLeaderboard(t *testing.T) {
	t.Parallel()

	entries := []*storage.LeaderboardEntry{
		{Rank: 1, Name: "Alice", Score: 120, Games: 3, Wins: 2},
		{Rank: 2, Name: "Bob", Score: 45, Games: 2, Wins: 0},
	}

	tests := map[string]struct {
		msg       *protocol.Message
		wantType  storage.LeaderboardType
		wantLimit int
		err       error
	}{
		"explicit limit": {
			msg:       msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 5}),
			wantType:  storage.LeaderboardTotal,
			wantLimit: 5,
		},
		"zero limit uses default": {
			msg:       msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{}),
			wantType:  storage.LeaderboardTotal,
			wantLimit: defaultLeaderboardLimit,
		},
		"limit above maximum": {
			msg:       msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 500}),
			wantType:  storage.LeaderboardTotal,
			wantLimit: defaultLeaderboardLimit,
		},
		"daily board": {
			msg:       msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Type: "daily", Limit: 3}),
			wantType:  storage.LeaderboardDaily,
			wantLimit: 3,
		},
		"unparseable payload falls back": {
			msg:       badMsg(protocol.MsgGetLeaderboard),
			wantType:  storage.LeaderboardTotal,
			wantLimit: defaultLeaderboardLimit,
		},
		"archive failure": {
			msg:       msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 5}),
			wantType:  storage.LeaderboardTotal,
			wantLimit: 5,
			err:       errors.New("connection refused"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if tc.err != nil {
				f.archive.On("GetLeaderboard", mock.Anything, tc.wantType, tc.wantLimit).Return(nil, tc.err)
			} else {
				f.archive.On("GetLeaderboard", mock.Anything, tc.wantType, tc.wantLimit).Return(entries, nil)
			}

			c := testutil.NewSimpleClient("a")
			f.h.Handle(c, tc.msg)
			f.archive.AssertExpectations(t)

			if tc.err != nil {
				assert.Equal(t, []int{protocol.ErrCodeLeaderboard}, errorCodes(c))
				return
			}

			results := testutil.Payloads[protocol.LeaderboardResultPayload](c, protocol.MsgLeaderboardResult)
			require.Len(t, results, 1)
			assert.Equal(t, string(tc.wantType), results[0].Type)
			assert.Equal(t, []protocol.LeaderboardEntry{
				{Rank: 1, Name: "Alice", Score: 120, Games: 3, Wins: 2},
				{Rank: 2, Name: "Bob", Score: 45, Games: 2, Wins: 0},
			}, results[0].Entries)
		})
	}
}

func TestHandler_NilArchiveServesEmptyLeaderboard(t *testing.T) {
	t.Parallel()

	rm := room.NewRoomManager(testBank(), nil, nil, room.Options{})
	h := NewHandler(HandlerDeps{Server: new(testutil.MockServer), RoomManager: rm})

	c := testutil.NewSimpleClient("a")
	h.Handle(c, msgOf(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{}))

	results := testutil.Payloads[protocol.LeaderboardResultPayload](c, protocol.MsgLeaderboardResult)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Entries)
}

func TestHandler_GetStats(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg      *protocol.Message
		stats    *storage.PlayerStats
		err      error
		lookup   string
		want     *protocol.StatsResultPayload
		wantErrs []int
	}{
		"known player": {
			msg:    msgOf(protocol.MsgGetStats, protocol.GetStatsPayload{Name: " Alice "}),
			stats:  &storage.PlayerStats{Name: "Alice", Games: 4, Wins: 1, TotalScore: 135},
			lookup: "Alice",
			want:   &protocol.StatsResultPayload{Name: "Alice", Games: 4, Wins: 1, TotalScore: 135, WinRate: 25},
		},
		"no record": {
			msg:    msgOf(protocol.MsgGetStats, protocol.GetStatsPayload{Name: "Carol"}),
			lookup: "Carol",
			want:   &protocol.StatsResultPayload{Name: "Carol"},
		},
		"archive failure": {
			msg:      msgOf(protocol.MsgGetStats, protocol.GetStatsPayload{Name: "Alice"}),
			err:      errors.New("connection refused"),
			lookup:   "Alice",
			wantErrs: []int{protocol.ErrCodeStats},
		},
		"empty name": {
			msg:      msgOf(protocol.MsgGetStats, protocol.GetStatsPayload{Name: "  "}),
			wantErrs: []int{protocol.ErrCodeInvalidMsg},
		},
		"invalid payload": {
			msg:      badMsg(protocol.MsgGetStats),
			wantErrs: []int{protocol.ErrCodeInvalidMsg},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if tc.lookup != "" {
				f.archive.On("GetPlayerStats", mock.Anything, tc.lookup).Return(tc.stats, tc.err)
			}

			c := testutil.NewSimpleClient("a")
			f.h.Handle(c, tc.msg)
			f.archive.AssertExpectations(t)

			assert.Equal(t, tc.wantErrs, errorCodes(c))
			results := testutil.Payloads[protocol.StatsResultPayload](c, protocol.MsgStatsResult)
			if tc.want == nil {
				assert.Empty(t, results)
				return
			}
			require.Len(t, results, 1)
			assert.Equal(t, *tc.want, results[0])
		})
	}
}
