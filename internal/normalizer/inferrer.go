package normalizer

import (
	"regexp"
	"strings"
)

// defaultSeedVocabulary 技能推断使用的种子词汇：常见的领域/技术产品词
// 与同义词表一样在进程启动时固定，只读共享
var defaultSeedVocabulary = []string{
	"peoplesoft", "oracle", "workday", "sap", "hcm", "hrms",
	"javascript", "typescript", "react", "node.js", "java", "spring",
	"aws", "azure", "gcp", "postgresql", "mongodb", "airflow",
}

// minInferOccurrences 推断阈值：单次提及视为噪声（例如引用的职位描述），
// 重复提及才认为与候选人真实相关
const minInferOccurrences = 2

// SkillInferrer 在全文中重新扫描种子词汇，把达到出现次数阈值的词
// 提升为候选人技能。表面形式的匹配模式在构造时一次性编译
type SkillInferrer struct {
	table *SynonymTable
	seeds []seedPatterns
}

type seedPatterns struct {
	canonical string
	patterns  []*regexp.Regexp
}

// NewSkillInferrer 基于同义词表和种子词汇构造技能推断器
// seeds为nil时使用内置种子词汇
func NewSkillInferrer(table *SynonymTable, seeds []string) *SkillInferrer {
	if seeds == nil {
		seeds = defaultSeedVocabulary
	}
	inf := &SkillInferrer{
		table: table,
		seeds: make([]seedPatterns, 0, len(seeds)),
	}
	for _, seed := range seeds {
		sp := seedPatterns{canonical: table.Normalize(seed)}
		for _, surface := range table.Expand(seed) {
			sp.patterns = append(sp.patterns, compileSurfacePattern(surface))
		}
		inf.seeds = append(inf.seeds, sp)
	}
	return inf
}

// compileSurfacePattern 为单个表面形式构造大小写不敏感的词边界模式
// 表面形式中的正则特殊字符（. - / \）需要转义
func compileSurfacePattern(surface string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(surface)
	return regexp.MustCompile(`(?i)\b` + escaped + `\b`)
}

// Infer 统计每个种子词全部表面形式在全文中的总出现次数，
// 返回满足阈值且不在现有技能集（按canonical身份）中的canonical技能
// 调用方负责把返回值并入候选人的技能集合
func (inf *SkillInferrer) Infer(fullText string, existingSkills []string) []string {
	corpus := strings.ToLower(fullText)

	existing := make(map[string]struct{}, len(existingSkills))
	for _, s := range existingSkills {
		existing[inf.table.Normalize(s)] = struct{}{}
	}

	var inferred []string
	for _, sp := range inf.seeds {
		if _, ok := existing[sp.canonical]; ok {
			continue
		}
		count := 0
		for _, re := range sp.patterns {
			count += len(re.FindAllStringIndex(corpus, -1))
		}
		if count >= minInferOccurrences {
			inferred = append(inferred, sp.canonical)
		}
	}
	return inferred
}
