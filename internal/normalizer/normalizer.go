package normalizer

import "strings"

// Normalize 将原始技能字符串映射为canonical形式
// 匹配优先级：
//  1. 小写去空白后与某canonical完全相等
//  2. 与某canonical的任一变体完全相等
//  3. 包含某canonical或其变体作为子串（按表的迭代顺序，首个命中获胜）
//  4. 以上均未命中时原样返回，输入自身成为canonical形式
//
// canonical形式是Normalize的不动点：Normalize(Normalize(x)) == Normalize(x)
func (t *SynonymTable) Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	if _, ok := t.variants[s]; ok {
		return s
	}

	for _, canonical := range t.canonicals {
		for _, v := range t.variants[canonical] {
			if v == s {
				return canonical
			}
		}
	}

	// 宽松的子串匹配（例如输入"oracle peoplesoft consultant"）
	for _, canonical := range t.canonicals {
		for _, v := range t.variants[canonical] {
			if strings.Contains(s, v) {
				return canonical
			}
		}
	}

	return s
}

// Expand 将单个查询词扩展为所有值得检索的表面形式：
// {canonical, 小写去空白后的原词} ∪ canonical的变体集合
func (t *SynonymTable) Expand(term string) []string {
	s := strings.ToLower(strings.TrimSpace(term))
	canonical := t.Normalize(s)

	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(canonical)
	add(s)
	for _, v := range t.variants[canonical] {
		add(v)
	}
	return out
}

// NormalizeList 对技能列表逐项Normalize，丢弃空项并按canonical身份去重
// 保留首次出现顺序，保证结果可复现
func (t *SynonymTable) NormalizeList(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		s := strings.TrimSpace(t.Normalize(term))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
