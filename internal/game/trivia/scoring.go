package trivia

import (
	"cmp"
	"slices"

	"github.com/palemoky/trivia-party/internal/questions"
)

// points 答对时按玩家声明的难度计分
var points = map[questions.Difficulty]int{
	questions.Easy:   10,
	questions.Medium: 25,
	questions.Hard:   50,
}

// PointsFor 返回难度对应的分值，未知难度不得分
func PointsFor(d questions.Difficulty) int {
	return points[d]
}

// NoWinner 空房间结束时的获胜者占位
const NoWinner = "Nobody"

// Standing 排名中的一项
type Standing struct {
	ID    string
	Name  string
	Score int
}

// Rank 按分数降序排名，同分保持加入顺序
func Rank(players []Standing) []Standing {
	ranked := slices.Clone(players)
	slices.SortStableFunc(ranked, func(a, b Standing) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Winner 排名第一的玩家名，没有玩家时返回 NoWinner
func Winner(ranked []Standing) string {
	if len(ranked) == 0 {
		return NoWinner
	}
	return ranked[0].Name
}
