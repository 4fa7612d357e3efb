package normalizer

import (
	"fmt"
	"strings"
)

// SynonymTable 技能词同义词表：canonical形式 -> 表面变体集合
// 进程启动时构造一次，之后只读，可被并发读取而无需加锁
// canonicals切片固定了canonical的迭代顺序，使子串匹配的
// "首个命中获胜"策略具有确定性（该顺序仅保证确定，不承载语义）
type SynonymTable struct {
	canonicals []string
	variants   map[string][]string
}

// NewSynonymTable 根据 canonical -> 变体 的映射构造同义词表
// 为保证查找对称性，每个canonical自身也会被并入其变体集合
func NewSynonymTable(entries map[string][]string, order []string) *SynonymTable {
	t := &SynonymTable{
		canonicals: make([]string, 0, len(entries)),
		variants:   make(map[string][]string, len(entries)),
	}
	for _, canonical := range order {
		vs, ok := entries[canonical]
		if !ok {
			continue
		}
		c := strings.ToLower(strings.TrimSpace(canonical))
		set := make([]string, 0, len(vs)+1)
		set = append(set, c)
		for _, v := range vs {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" && v != c {
				set = append(set, v)
			}
		}
		t.canonicals = append(t.canonicals, c)
		t.variants[c] = set
	}
	return t
}

// DefaultSynonymTable 返回内置的同义词表
func DefaultSynonymTable() *SynonymTable {
	order := []string{"peoplesoft", "javascript", "node.js", "react", "aws", "azure", "postgresql"}
	return NewSynonymTable(map[string][]string{
		"peoplesoft": {"people soft", "oracle peoplesoft", "psft", "people-soft"},
		"javascript": {"js", "java script"},
		"node.js":    {"nodejs", "node js", "node"},
		"react":      {"reactjs", "react.js"},
		"aws":        {"amazon web services"},
		"azure":      {"microsoft azure"},
		"postgresql": {"postgres", "postgre sql"},
	}, order)
}

// Canonicals 按固定迭代顺序返回所有canonical形式
func (t *SynonymTable) Canonicals() []string {
	return t.canonicals
}

// Variants 返回某canonical的全部表面形式（含其自身），未知canonical返回nil
func (t *SynonymTable) Variants(canonical string) []string {
	return t.variants[canonical]
}

// Validate 检查不同canonical的变体集合是否存在交叠
// 交叠属于配置缺陷：子串匹配的迭代顺序会悄悄决定归属，
// 运行时不做防护，仅供构造后自检使用
func (t *SynonymTable) Validate() error {
	seen := make(map[string]string)
	for _, c := range t.canonicals {
		for _, v := range t.variants[c] {
			if owner, ok := seen[v]; ok && owner != c {
				return fmt.Errorf("变体 %q 同时属于 %q 和 %q", v, owner, c)
			}
			seen[v] = c
		}
	}
	return nil
}
