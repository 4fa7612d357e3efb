package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 注意章节顺序：skills只在experience/education/certification锚点处退出，
// 因此languages章节必须排在skills之前，否则其内容会被并入技能
const sampleResume = `Jane A. Doe
jane.doe@example.com
(555) 123-4567
Summary
Seasoned platform engineer with ten years building ingestion pipelines.
Focused on reliability and internal platform tooling for three product lines.
Short line
Experience
Senior Software Engineer
Acme Corporation
Education
Bachelor of Science in Computer Science
State University
Languages
English, Spanish
Skills
Python, React, AWS
Kubernetes
Certifications
AWS Certified Solutions Architect`

func TestParseFullResume(t *testing.T) {
	p := NewCandidateParser()
	got := p.Parse(sampleResume)

	assert.Equal(t, "Jane A. Doe", got.Name)
	assert.Equal(t, "jane.doe@example.com", got.Email)
	assert.Equal(t, "(555) 123-4567", got.Phone)

	// summary收集锚点后的长行，遇到短行停止
	assert.Equal(t,
		"Seasoned platform engineer with ten years building ingestion pipelines. "+
			"Focused on reliability and internal platform tooling for three product lines.",
		got.Summary)

	require.Len(t, got.Experience, 1)
	assert.Equal(t, "Senior Software Engineer", got.Experience[0].Position)
	assert.Equal(t, "Acme Corporation", got.Experience[0].Company)
	assert.False(t, got.Experience[0].Current)

	require.Len(t, got.Education, 1)
	assert.Equal(t, "Bachelor of Science in Computer Science", got.Education[0].Degree)
	assert.Equal(t, "State University", got.Education[0].Institution)
	assert.Empty(t, got.Education[0].Field)

	// 分隔符行拆分 + 整行回退
	assert.ElementsMatch(t, []string{"Python", "React", "AWS", "Kubernetes"}, got.Skills)
	assert.ElementsMatch(t, []string{"English", "Spanish"}, got.Languages)
	assert.Equal(t, []string{"AWS Certified Solutions Architect"}, got.Certifications)
}

// 提取是纯函数：同一输入重复解析得到逐字段相等的结果
func TestParseIsDeterministic(t *testing.T) {
	p := NewCandidateParser()
	first := p.Parse(sampleResume)
	second := p.Parse(sampleResume)
	assert.Equal(t, first, second)
}

func TestExtractName(t *testing.T) {
	p := NewCandidateParser()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"两词姓名", "John Smith\nEngineer", "John Smith"},
		{"三词姓名", "Mary Jane Watson\n", "Mary Jane Watson"},
		{"中间名缩写", "Jane A. Doe\n", "Jane A. Doe"},
		{"全大写不匹配", "JOHN SMITH\nResume", ""},
		{"单词不匹配", "Resume\nof someone", ""},
		{"第6行之后不再扫描", "a\nb\nc\nd\ne\nJohn Smith", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestExtractContactAnywhereInText(t *testing.T) {
	p := NewCandidateParser()

	// email与phone不受章节约束，取全篇首个匹配
	text := "Resume\nExperience\nReach me at first@example.com or second@example.com\nCall 555.123.4567"
	got := p.Parse(text)
	assert.Equal(t, "first@example.com", got.Email)
	assert.Equal(t, "555.123.4567", got.Phone)
}

func TestHeuristicMissesProduceEmptyFields(t *testing.T) {
	p := NewCandidateParser()

	// 缺失的模式只产生空字段，绝不报错
	got := p.Parse("just some unstructured text without any structure")
	assert.Empty(t, got.Name)
	assert.Empty(t, got.Email)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.Summary)
	assert.Empty(t, got.Education)
	assert.Empty(t, got.Experience)
	assert.Empty(t, got.Skills)

	got = p.Parse("")
	assert.Empty(t, got.Skills)
}

func TestSummaryLineLimit(t *testing.T) {
	p := NewCandidateParser()

	long := "This line is definitely longer than twenty characters."
	text := "Profile\n" + strings.Join([]string{long, long, long, long, long, long}, "\n")
	got := p.Parse(text)

	// 最多收集4行
	assert.Equal(t, strings.Join([]string{long, long, long, long}, " "), got.Summary)
}

func TestSkillsSectionExitsOnOtherSectionAnchor(t *testing.T) {
	p := NewCandidateParser()

	text := `Skills
Python, Go
Education
Master of Science
Tech Institute`
	got := p.Parse(text)

	// 技能收集在education锚点处停止
	assert.ElementsMatch(t, []string{"Python", "Go"}, got.Skills)
	require.Len(t, got.Education, 1)
	assert.Equal(t, "Master of Science", got.Education[0].Degree)
}

func TestSkillsDeduplicated(t *testing.T) {
	p := NewCandidateParser()

	text := "Skills\nPython, Python, Go\nPython"
	got := p.Parse(text)
	assert.ElementsMatch(t, []string{"Python", "Go"}, got.Skills)
}

func TestSectionKindAnchors(t *testing.T) {
	// 转换表：进入/退出锚点按章节区分，自身关键词不触发退出
	assert.True(t, SectionSkills.MatchesEntry("Technical Skills"))
	assert.True(t, SectionSkills.MatchesExit("Work Experience"))
	assert.False(t, SectionSkills.MatchesExit("More skills below"))

	assert.True(t, SectionEducation.MatchesEntry("EDUCATION"))
	assert.True(t, SectionEducation.MatchesExit("Skills"))
	assert.False(t, SectionEducation.MatchesExit("University of Somewhere"))

	assert.True(t, SectionCertifications.MatchesEntry("Licenses and Certifications"))
	assert.True(t, SectionLanguages.MatchesEntry("Language Proficiency"))

	// summary由长度规则终止，没有退出锚点
	assert.Empty(t, SectionSummary.ExitAnchors())
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("  a  \n\n\t\nb\r\nc ")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}
