package questions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format 题库文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// rawBank 题库原始结构：{分类: {难度: [题目...]}}
type rawBank map[string]map[string]any

// Load 从文件载入题库，按扩展名选择 JSON 或 YAML
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	b, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	return b, nil
}

// Parse 解析题库数据。格式错误的题目会被静默丢弃，只有整体结构无法解析时才返回错误
func Parse(data []byte, format Format) (*Bank, error) {
	raw := rawBank{}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	converted := make(map[string]map[Difficulty][]Question, len(raw))
	for category, levels := range raw {
		pools := make(map[Difficulty][]Question, len(Difficulties))
		for _, d := range Difficulties {
			items, _ := levels[string(d)].([]any)
			pool := make([]Question, 0, len(items))
			for _, v := range items {
				item, ok := v.(map[string]any)
				if !ok {
					continue
				}
				if q, ok := normalize(item); ok {
					pool = append(pool, q)
				}
			}
			pools[d] = pool
		}
		converted[category] = pools
	}

	return NewBank(converted), nil
}

// normalize 同时接受旧字段 q/a 和新字段 question/answers
func normalize(item map[string]any) (Question, bool) {
	var q Question

	text, ok := pick(item, "q", "question").(string)
	if !ok {
		return q, false
	}

	answers, ok := pick(item, "a", "answers").([]any)
	if !ok || len(answers) != AnswerCount {
		return q, false
	}

	correct, ok := toIndex(item["correct"])
	if !ok || correct < 0 || correct >= AnswerCount {
		return q, false
	}

	for i, a := range answers {
		s, ok := scalarString(a)
		if !ok {
			return q, false
		}
		q.Answers[i] = s
	}
	q.Text = text
	q.Correct = correct

	return q, true
}

// pick 返回第一个非空字段的值：旧字段缺失或为空时回退到新字段
func pick(item map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := item[k]; !isEmpty(v) {
			return v
		}
	}
	return nil
}

// isEmpty 空值、零、空列表和空对象都视为未填写
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case uint64:
		return x == 0
	case float64:
		return x == 0
	default:
		return false
	}
}

// toIndex 只接受整数，拒绝小数和布尔值
func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if strings.ContainsAny(n.String(), ".eE") {
			return 0, false
		}
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number, int, int64, uint64, float64, bool:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}
