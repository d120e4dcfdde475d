//go:build !production

package trivia

import "slices"

// BeginForTest 以固定出题顺序开始游戏
func (s *Session) BeginForTest(order []string) Outcome {
	if s.phase != PhaseLobby {
		return s.reject(RejectWrongPhase)
	}
	return s.begin(slices.Clone(order))
}

// CorrectIndexForTest 返回玩家本轮题目的正确选项，未领题时返回 -1
func (s *Session) CorrectIndexForTest(id string) int {
	if s.cur == nil {
		return -1
	}
	a, ok := s.cur.assigned[id]
	if !ok {
		return -1
	}
	return a.question.Correct
}
