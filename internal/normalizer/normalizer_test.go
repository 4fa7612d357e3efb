package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	table := DefaultSynonymTable()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"canonical自身", "javascript", "javascript"},
		{"大小写与空白", "  JavaScript ", "javascript"},
		{"精确变体", "js", "javascript"},
		{"变体映射到canonical", "amazon web services", "aws"},
		{"子串包含canonical", "oracle peoplesoft consultant", "peoplesoft"},
		{"子串包含变体", "senior react developer", "react"},
		// "reactjs"同时包含javascript的变体"js"，迭代顺序中javascript
		// 在react之前，首个命中获胜——变体互为子串时顺序决定归属
		{"变体子串交叠按顺序归属", "senior reactjs developer", "javascript"},
		{"未知词原样返回", "kubernetes", "kubernetes"},
		{"未知词小写去空白", "  Kubernetes  ", "kubernetes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Normalize(tt.in))
		})
	}
}

// Normalize是投影：canonical形式是不动点
func TestNormalizeIsProjection(t *testing.T) {
	table := DefaultSynonymTable()

	inputs := []string{
		"js", "JavaScript", "nodejs", "people soft", "postgres",
		"golang", "microsoft azure", "ReactJS", "random skill",
	}
	for _, in := range inputs {
		once := table.Normalize(in)
		assert.Equal(t, once, table.Normalize(once), "Normalize(%q)应当是不动点", in)
	}
}

func TestExpand(t *testing.T) {
	table := DefaultSynonymTable()

	// Expand结果必然包含Normalize(term)
	for _, term := range []string{"js", "react", "unknown-tool", "Node JS"} {
		expanded := table.Expand(term)
		assert.Contains(t, expanded, table.Normalize(term))
	}

	// 变体查询应展开出canonical的全部表面形式
	expanded := table.Expand("js")
	assert.Contains(t, expanded, "javascript")
	assert.Contains(t, expanded, "js")
	assert.Contains(t, expanded, "java script")
}

func TestNormalizeList(t *testing.T) {
	table := DefaultSynonymTable()

	// 按canonical身份去重："JS"/"js"/"javascript"折叠为一项
	got := table.NormalizeList([]string{"JS", "js", "javascript"})
	require.Len(t, got, 1)
	assert.Equal(t, "javascript", got[0])

	// 保留首次出现顺序，丢弃空项
	got = table.NormalizeList([]string{"React", "", "  ", "Postgres", "reactjs", "AWS"})
	assert.Equal(t, []string{"react", "postgresql", "aws"}, got)
}

func TestSynonymTableValidate(t *testing.T) {
	require.NoError(t, DefaultSynonymTable().Validate())

	// 变体交叠是配置缺陷，Validate应当发现
	bad := NewSynonymTable(map[string][]string{
		"javascript": {"js"},
		"java":       {"js"},
	}, []string{"javascript", "java"})
	assert.Error(t, bad.Validate())
}

func TestInferSkills(t *testing.T) {
	table := DefaultSynonymTable()
	inf := NewSkillInferrer(table, nil)

	// 种子词跨变体表面形式合计出现3次 -> 被推断
	text := "Worked with PeopleSoft HCM. Led the Oracle PeopleSoft upgrade. " +
		"Maintained people-soft payroll customizations."
	inferred := inf.Infer(text, nil)
	assert.Contains(t, inferred, "peoplesoft")

	// 已存在的技能（按canonical身份）不会重复推断
	inferred = inf.Infer(text, []string{"PSFT"})
	assert.NotContains(t, inferred, "peoplesoft")

	// 仅出现一次视为噪声
	inferred = inf.Infer("Mentioned MongoDB once in a job description quote.", nil)
	assert.NotContains(t, inferred, "mongodb")
}

func TestInferSkillsWordBoundary(t *testing.T) {
	table := DefaultSynonymTable()
	inf := NewSkillInferrer(table, []string{"java"})

	// "javascript"中的"java"不应命中词边界模式
	text := strings.Repeat("javascript developer ", 3)
	assert.Empty(t, inf.Infer(text, nil))

	text = "Java backend services. Java 17 migration."
	assert.Equal(t, []string{"java"}, inf.Infer(text, nil))
}
