// Package questions 提供只读题库：分类 → 难度 → 题目列表
package questions

import (
	"slices"
	"sort"
)

// Difficulty 难度
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties 所有合法难度，按从易到难排列
var Difficulties = []Difficulty{Easy, Medium, Hard}

// Valid 是否为合法难度
func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

// AnswerCount 每道题的选项数量
const AnswerCount = 4

// Question 一道题目，载入后不可变
type Question struct {
	Text    string
	Answers [AnswerCount]string
	Correct int // 正确选项下标 0-3
}

// Bank 题库，载入后只读，可被多个房间并发读取
type Bank struct {
	pools      map[string]map[Difficulty][]Question
	categories []string
}

// NewBank 从内存数据创建题库，缺失的难度视为空题池
func NewBank(data map[string]map[Difficulty][]Question) *Bank {
	b := &Bank{
		pools:      make(map[string]map[Difficulty][]Question, len(data)),
		categories: make([]string, 0, len(data)),
	}

	for category, levels := range data {
		pools := make(map[Difficulty][]Question, len(Difficulties))
		for _, d := range Difficulties {
			pools[d] = slices.Clone(levels[d])
		}
		b.pools[category] = pools
		b.categories = append(b.categories, category)
	}
	sort.Strings(b.categories)

	return b
}

// Categories 返回所有分类（已排序的副本）
func (b *Bank) Categories() []string {
	return slices.Clone(b.categories)
}

// HasCategory 分类是否存在
func (b *Bank) HasCategory(category string) bool {
	_, ok := b.pools[category]
	return ok
}

// Pool 返回指定分类和难度的题池（调用方不可修改），分类或难度不存在时返回空
func (b *Bank) Pool(category string, d Difficulty) []Question {
	levels, ok := b.pools[category]
	if !ok {
		return nil
	}
	return levels[d]
}

// Size 题目总数
func (b *Bank) Size() int {
	n := 0
	for _, levels := range b.pools {
		for _, pool := range levels {
			n += len(pool)
		}
	}
	return n
}
