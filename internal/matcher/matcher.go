// Package matcher 实现招聘方技能查询与候选人结构化数据的加权匹配打分
package matcher

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"cv-screener-go/internal/normalizer"
	"cv-screener-go/internal/types"
)

// maxTermScore 单个查询词的满分：技能精确命中3分，技能子串2分，语料子串1分
const maxTermScore = 3

// Matcher 匹配打分器，持有只读同义词表，可被并发使用
type Matcher struct {
	table *normalizer.SynonymTable
}

// NewMatcher 创建匹配打分器
func NewMatcher(table *normalizer.SynonymTable) *Matcher {
	return &Matcher{table: table}
}

// ParseQuery 将逗号分隔的查询串解析为扩展且规范化后的查询词集合
// 空白查询返回nil，表示跳过打分
func (m *Matcher) ParseQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string
	for _, part := range strings.Split(strings.ToLower(raw), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// 每个输入词扩展为全部表面形式，再逐一规范化
		for _, surface := range m.table.Expand(part) {
			canonical := m.table.Normalize(surface)
			if _, ok := seen[canonical]; ok {
				continue
			}
			seen[canonical] = struct{}{}
			terms = append(terms, canonical)
		}
	}
	return terms
}

// Score 计算候选人对查询词集合的匹配百分比（0-100）
// 每个查询词取各命中层级的最大值，层级互斥，高层级优先：
//
//	3 = 候选人技能与词完全相等
//	2 = 技能与词互为子串
//	1 = 文本语料（summary+experience+education）包含该词
//	0 = 未命中
func (m *Matcher) Score(record *types.CandidateRecord, terms []string) int {
	if len(terms) == 0 {
		return 0
	}

	skills := make([]string, len(record.Detail.Skills))
	for i, s := range record.Detail.Skills {
		skills[i] = strings.ToLower(s)
	}
	corpus := buildCorpus(&record.Detail)

	achieved := 0
	for _, term := range terms {
		achieved += termScore(term, skills, corpus)
	}

	maxPossible := len(terms) * maxTermScore
	return int(math.Round(float64(achieved) / float64(maxPossible) * 100))
}

func termScore(term string, skills []string, corpus string) int {
	exact := false
	partial := false
	for _, s := range skills {
		if s == term {
			exact = true
			break
		}
		if strings.Contains(s, term) || strings.Contains(term, s) {
			partial = true
		}
	}
	switch {
	case exact:
		return 3
	case partial:
		return 2
	case corpus != "" && strings.Contains(corpus, term):
		return 1
	default:
		return 0
	}
}

// buildCorpus 拼接summary与经历/教育的序列化文本形式，整体小写
func buildCorpus(detail *types.ParsedCandidate) string {
	var parts []string
	if detail.Summary != "" {
		parts = append(parts, detail.Summary)
	}
	if len(detail.Experience) > 0 {
		if b, err := json.Marshal(detail.Experience); err == nil {
			parts = append(parts, string(b))
		}
	}
	if len(detail.Education) > 0 {
		if b, err := json.Marshal(detail.Education); err == nil {
			parts = append(parts, string(b))
		}
	}
	return strings.ToLower(strings.Join(parts, " \n "))
}

// Rank 对候选人集合执行查询打分并排序
// 查询为空白时返回全量候选人（不打分，MatchScore为0），按创建时间倒序；
// 否则过滤掉0分候选人（相关性过滤，而非错误），按分数倒序、
// 同分按创建时间倒序
func (m *Matcher) Rank(records []types.CandidateRecord, rawQuery string) []types.ScoredCandidate {
	terms := m.ParseQuery(rawQuery)

	out := make([]types.ScoredCandidate, 0, len(records))
	if terms == nil {
		for _, r := range records {
			out = append(out, types.ScoredCandidate{CandidateRecord: r})
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return out
	}

	for i := range records {
		score := m.Score(&records[i], terms)
		if score == 0 {
			continue
		}
		out = append(out, types.ScoredCandidate{CandidateRecord: records[i], MatchScore: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
