package parser

import "strings"

// SectionKind 简历中可识别的启发式章节类型
type SectionKind int

const (
	// SectionSummary 个人概述/求职目标章节
	SectionSummary SectionKind = iota
	// SectionEducation 教育经历章节
	SectionEducation
	// SectionExperience 工作经历章节
	SectionExperience
	// SectionSkills 技能章节
	SectionSkills
	// SectionLanguages 语言能力章节
	SectionLanguages
	// SectionCertifications 证书章节
	SectionCertifications
)

// sectionAnchors 每个章节的进入/退出锚点关键词
// 进入：行内出现任一进入锚点（大小写不敏感子串）即视为章节开始
// 退出：行内出现任一退出锚点（属于其他章节的锚点）即视为章节结束；
// 本章节自身的关键词再次出现不会导致退出
type sectionAnchors struct {
	entry []string
	exit  []string
}

var anchorTable = map[SectionKind]sectionAnchors{
	SectionSummary: {
		entry: []string{"summary", "profile", "objective", "about"},
		// summary不靠锚点退出，由行长度规则终止收集
	},
	SectionEducation: {
		entry: []string{"education", "academic", "university", "college", "degree"},
		exit:  []string{"experience", "work", "skills"},
	},
	SectionExperience: {
		entry: []string{"experience", "work", "employment", "career"},
		exit:  []string{"education", "skills", "certification"},
	},
	SectionSkills: {
		entry: []string{"skills", "technical", "technologies", "tools"},
		exit:  []string{"experience", "education", "certification"},
	},
	SectionLanguages: {
		entry: []string{"languages", "language"},
		exit:  []string{"skills", "experience", "education"},
	},
	SectionCertifications: {
		entry: []string{"certification", "certificate", "certified", "license"},
		exit:  []string{"skills", "experience", "education"},
	},
}

func (k SectionKind) String() string {
	switch k {
	case SectionSummary:
		return "summary"
	case SectionEducation:
		return "education"
	case SectionExperience:
		return "experience"
	case SectionSkills:
		return "skills"
	case SectionLanguages:
		return "languages"
	case SectionCertifications:
		return "certifications"
	default:
		return "unknown"
	}
}

// EntryAnchors 返回章节的进入锚点关键词
func (k SectionKind) EntryAnchors() []string {
	return anchorTable[k].entry
}

// ExitAnchors 返回章节的退出锚点关键词
func (k SectionKind) ExitAnchors() []string {
	return anchorTable[k].exit
}

// MatchesEntry 判断某行是否触发章节进入
func (k SectionKind) MatchesEntry(line string) bool {
	return containsAny(strings.ToLower(line), anchorTable[k].entry)
}

// MatchesExit 判断某行是否触发章节退出
func (k SectionKind) MatchesExit(line string) bool {
	return containsAny(strings.ToLower(line), anchorTable[k].exit)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sectionLines 自上而下单遍扫描：定位首个进入锚点行，
// 收集其后的行直到出现退出锚点行或输入结束
// 未找到锚点时返回nil（章节缺失不是错误）
func sectionLines(lines []string, kind SectionKind) []string {
	start := -1
	for i, line := range lines {
		if kind.MatchesEntry(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	var collected []string
	for _, line := range lines[start+1:] {
		if kind.MatchesExit(line) {
			break
		}
		collected = append(collected, line)
	}
	return collected
}

// SplitLines 把提取出的全文切分为去除首尾空白的非空行序列
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
