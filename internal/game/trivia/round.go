package trivia

import (
	"slices"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/questions"
)

const (
	placeholderText   = "No questions available for this category/difficulty."
	placeholderAnswer = "OK"
)

// placeholder 题池为空时发给玩家的占位题，永远不计为答对
var placeholder = questions.Question{
	Text:    placeholderText,
	Answers: [questions.AnswerCount]string{placeholderAnswer, placeholderAnswer, placeholderAnswer, placeholderAnswer},
	Correct: -1,
}

// nextRound 按固定顺序找到第一个出题次数不足两次的玩家开始新一轮，找不到则结束游戏
func (s *Session) nextRound() Outcome {
	for _, id := range s.order {
		if s.pickerCounts[id] >= maxPicks {
			continue
		}

		s.round++
		s.pickerCounts[id]++
		s.cur = &roundState{
			picker:   id,
			options:  s.drawOptions(),
			assigned: make(map[string]*assignment),
		}

		return s.accept(Notice{Type: protocol.MsgRoundStart, Payload: protocol.RoundStartPayload{
			RoundID:    s.round,
			Picker:     s.players[id].Name,
			PickerID:   id,
			Categories: slices.Clone(s.cur.options),
		}})
	}

	return s.finish()
}

// drawOptions 从题库中等概率抽取 3 个不同分类，不足 3 个时全部提供
func (s *Session) drawOptions() []string {
	all := s.bank.Categories()
	if len(all) <= optionCount {
		return all
	}

	options := make([]string, 0, optionCount)
	for _, i := range s.rng.Perm(len(all))[:optionCount] {
		options = append(options, all[i])
	}
	return options
}

// ChooseCategory 出题人从本轮候选中选择分类，可在本轮结束前改选
func (s *Session) ChooseCategory(id, category string) Outcome {
	if s.phase != PhaseRoundInProgress {
		return s.reject(RejectWrongPhase)
	}
	if s.cur.closed {
		return s.reject(RejectRoundClosed)
	}
	if id != s.cur.picker {
		return s.reject(RejectNotPicker)
	}
	if !slices.Contains(s.cur.options, category) || !s.bank.HasCategory(category) {
		return s.reject(RejectCategoryNotOffered)
	}

	s.cur.category = category

	return s.accept(Notice{Type: protocol.MsgCategoryChosen, Payload: protocol.CategoryChosenPayload{
		Category: category,
		RoundID:  s.round,
	}})
}

// ChooseDifficulty 玩家声明本轮难度并私下收到一道题。每轮每人只能领一道题
func (s *Session) ChooseDifficulty(id string, d questions.Difficulty) Outcome {
	if s.phase != PhaseRoundInProgress {
		return s.reject(RejectWrongPhase)
	}
	if s.cur.closed {
		return s.reject(RejectRoundClosed)
	}
	if s.cur.category == "" {
		return s.reject(RejectNoCategory)
	}
	if !d.Valid() {
		return s.reject(RejectInvalidDifficulty)
	}
	if !s.HasPlayer(id) {
		return s.reject(RejectUnknownPlayer)
	}
	if _, exists := s.cur.assigned[id]; exists {
		return s.reject(RejectAlreadyAssigned)
	}

	a := &assignment{difficulty: d}
	if pool := s.bank.Pool(s.cur.category, d); len(pool) > 0 {
		a.question = pool[s.rng.IntN(len(pool))]
	} else {
		a.question = placeholder
		a.placeholder = true
	}
	s.cur.assigned[id] = a

	return s.accept(Notice{To: id, Type: protocol.MsgQuestion, Payload: protocol.QuestionPayload{
		Question: a.question.Text,
		Answers:  slices.Clone(a.question.Answers[:]),
		RoundID:  s.round,
	}})
}

// SubmitAnswer 记录玩家答案并计分，只有第一次提交有效。
// 所有玩家都作答后广播 round_end，并通过 Outcome.Advance 通知调用方推进下一轮
func (s *Session) SubmitAnswer(id string, answer int) Outcome {
	if s.phase != PhaseRoundInProgress {
		return s.reject(RejectWrongPhase)
	}
	a, ok := s.cur.assigned[id]
	if !ok {
		return s.reject(RejectNoQuestion)
	}
	if a.answered {
		return s.reject(RejectAlreadyAnswered)
	}

	a.answered = true
	a.answer = answer

	correct := !a.placeholder && answer == a.question.Correct
	if correct {
		s.players[id].Score += PointsFor(a.difficulty)
	}

	out := s.accept(Notice{To: id, Type: protocol.MsgAnswerFeedback, Payload: protocol.AnswerFeedbackPayload{
		Correct:      correct,
		CorrectIndex: a.question.Correct,
	}})
	out.Correct = correct

	if s.allAnswered() {
		s.cur.closed = true
		out.Notices = append(out.Notices, Notice{Type: protocol.MsgRoundEnd, Payload: protocol.RoundEndPayload{}})
		out.Advance = true
	}
	return out
}

// allAnswered 作答屏障：每位已加入的玩家本轮都已提交答案
func (s *Session) allAnswered() bool {
	for _, id := range s.joinOrder {
		a, ok := s.cur.assigned[id]
		if !ok || !a.answered {
			return false
		}
	}
	return true
}

// Advance 在作答屏障触发后进入下一轮。round 必须是触发屏障的回合号，重复调用无效
func (s *Session) Advance(round int) Outcome {
	if s.phase != PhaseRoundInProgress {
		return s.reject(RejectWrongPhase)
	}
	if round != s.round || !s.cur.closed {
		return s.reject(RejectRoundNotFinished)
	}
	return s.nextRound()
}
