package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screener-go/internal/normalizer"
	"cv-screener-go/internal/types"
)

func newTestMatcher() *Matcher {
	return NewMatcher(normalizer.DefaultSynonymTable())
}

func record(id string, createdAt time.Time, detail types.ParsedCandidate) types.CandidateRecord {
	return types.CandidateRecord{
		CandidateID: id,
		Status:      "new",
		CreatedAt:   createdAt,
		Detail:      detail,
	}
}

func TestParseQuery(t *testing.T) {
	m := newTestMatcher()

	// 空白查询跳过打分
	assert.Nil(t, m.ParseQuery(""))
	assert.Nil(t, m.ParseQuery("   "))

	// 逗号拆分 + 同义词扩展 + canonical去重
	terms := m.ParseQuery("react, js")
	assert.Equal(t, []string{"react", "javascript"}, terms)

	// 同一canonical的多个表面形式折叠为一项
	terms = m.ParseQuery("js, javascript, JAVA SCRIPT")
	assert.Equal(t, []string{"javascript"}, terms)
}

func TestScoreAllTermsExact(t *testing.T) {
	m := newTestMatcher()

	// 全部查询词精确命中技能时得满分
	r := record("c1", time.Now(), types.ParsedCandidate{
		Skills: []string{"react", "aws", "python"},
	})
	terms := m.ParseQuery("react, aws, python")
	assert.Equal(t, 100, m.Score(&r, terms))
}

func TestScoreTiers(t *testing.T) {
	m := newTestMatcher()

	// 场景：查询"react, js"，技能["React","Node.js"]，无语料
	// react精确命中=3，javascript未命中=0 -> 3/6 -> 50
	r := record("c1", time.Now(), types.ParsedCandidate{
		Skills: []string{"React", "Node.js"},
	})
	terms := m.ParseQuery("react, js")
	require.Len(t, terms, 2)
	assert.Equal(t, 50, m.Score(&r, terms))

	// 技能子串命中得2分：查询"java"，技能"javascript"包含它
	r = record("c2", time.Now(), types.ParsedCandidate{
		Skills: []string{"javascript"},
	})
	assert.Equal(t, 67, m.Score(&r, m.ParseQuery("java")))

	// 仅语料命中得1分
	r = record("c3", time.Now(), types.ParsedCandidate{
		Summary: "Led Terraform rollout across three teams",
	})
	assert.Equal(t, 33, m.Score(&r, m.ParseQuery("terraform")))
}

func TestScoreCorpusFromExperienceAndEducation(t *testing.T) {
	m := newTestMatcher()

	r := record("c1", time.Now(), types.ParsedCandidate{
		Experience: []types.ExperienceEntry{
			{Company: "Acme", Position: "Data Engineer with Airflow pipelines"},
		},
		Education: []types.EducationEntry{
			{Degree: "Bachelor of Science", Institution: "State University"},
		},
	})
	// 经历与教育的序列化文本都参与语料匹配
	assert.Equal(t, 33, m.Score(&r, m.ParseQuery("airflow")))
	assert.Equal(t, 33, m.Score(&r, m.ParseQuery("state university")))
}

func TestRankFiltersZeroScores(t *testing.T) {
	m := newTestMatcher()
	now := time.Now()

	records := []types.CandidateRecord{
		record("hit", now, types.ParsedCandidate{Skills: []string{"react"}}),
		record("miss", now, types.ParsedCandidate{Skills: []string{"cobol"}}),
	}

	ranked := m.Rank(records, "react")
	require.Len(t, ranked, 1)
	assert.Equal(t, "hit", ranked[0].CandidateID)
	assert.Equal(t, 100, ranked[0].MatchScore)
}

func TestRankOrdering(t *testing.T) {
	m := newTestMatcher()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	records := []types.CandidateRecord{
		record("partial", base.Add(2*time.Hour), types.ParsedCandidate{
			Summary: "Shipped a react migration",
		}),
		record("exact-old", base, types.ParsedCandidate{Skills: []string{"react"}}),
		record("exact-new", base.Add(time.Hour), types.ParsedCandidate{Skills: []string{"react"}}),
	}

	ranked := m.Rank(records, "react")
	require.Len(t, ranked, 3)
	// 分数倒序，同分按创建时间倒序
	assert.Equal(t, "exact-new", ranked[0].CandidateID)
	assert.Equal(t, "exact-old", ranked[1].CandidateID)
	assert.Equal(t, "partial", ranked[2].CandidateID)
}

func TestRankEmptyQueryReturnsAllUnscored(t *testing.T) {
	m := newTestMatcher()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	records := []types.CandidateRecord{
		record("old", base, types.ParsedCandidate{}),
		record("new", base.Add(time.Hour), types.ParsedCandidate{}),
	}

	ranked := m.Rank(records, "   ")
	require.Len(t, ranked, 2)
	assert.Equal(t, "new", ranked[0].CandidateID)
	assert.Equal(t, "old", ranked[1].CandidateID)
	assert.Zero(t, ranked[0].MatchScore)
	assert.Zero(t, ranked[1].MatchScore)
}
