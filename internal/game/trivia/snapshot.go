package trivia

import (
	"maps"
	"slices"
)

// Snapshot 会话的只读视图
type Snapshot struct {
	Code         string
	Phase        Phase
	Round        int
	Picker       string
	Category     string
	Options      []string
	Order        []string
	PickerCounts map[string]int
	Players      []Standing // 按加入顺序
	Assigned     int        // 本轮已领题人数
	Answered     int        // 本轮已作答人数
}

// Snapshot 返回当前状态的副本
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Code:         s.code,
		Phase:        s.phase,
		Round:        s.round,
		Order:        slices.Clone(s.order),
		PickerCounts: maps.Clone(s.pickerCounts),
		Players:      s.standings(),
	}

	if s.cur != nil {
		snap.Picker = s.cur.picker
		snap.Category = s.cur.category
		snap.Options = slices.Clone(s.cur.options)
		snap.Assigned = len(s.cur.assigned)
		for _, a := range s.cur.assigned {
			if a.answered {
				snap.Answered++
			}
		}
	}

	return snap
}
