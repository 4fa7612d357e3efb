// Package parser 将简历纯文本切分为启发式章节并提取结构化候选人字段
// 所有提取规则都是尽力而为：模式未命中只产生空字段，从不报错——
// 简历排版千差万别，严格解析会拒绝大多数真实输入
package parser

import (
	"regexp"
	"strings"

	"cv-screener-go/internal/types"
)

const (
	// nameScanLimit 姓名只在前若干行中寻找
	nameScanLimit = 5
	// summaryMaxLines summary最多收集的行数
	summaryMaxLines = 4
	// summaryMinLineLen 低于该长度的行终止summary收集
	summaryMinLineLen = 20
)

// CandidateParser 候选人字段提取器，持有预编译的正则，可并发复用
type CandidateParser struct {
	nameRe   *regexp.Regexp
	emailRe  *regexp.Regexp
	phoneRe  *regexp.Regexp
	degreeRe *regexp.Regexp
	titleRe  *regexp.Regexp
	delimRe  *regexp.Regexp
}

// NewCandidateParser 创建字段提取器
func NewCandidateParser() *CandidateParser {
	return &CandidateParser{
		// 严格的两词或三词title-case模式，允许中间名缩写（Jane A. Doe）
		nameRe: regexp.MustCompile(`^[A-Z][a-z]+ (?:[A-Z][a-z]+|[A-Z]\.)(?: [A-Z][a-z]+)?$`),
		// RFC-5322的宽松子集
		emailRe: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		// 北美风格电话：可选国家码+区号+局号+线号，分隔符灵活
		phoneRe:  regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
		degreeRe: regexp.MustCompile(`(?i)(bachelor|master|phd|doctorate|associate|diploma|certificate)`),
		titleRe:  regexp.MustCompile(`(?i)(manager|director|engineer|developer|analyst|coordinator|specialist|assistant)`),
		// 逗号/项目符号/连字符分隔的列表项
		delimRe: regexp.MustCompile(`[,•-]`),
	}
}

// Parse 从简历全文提取结构化候选人数据（单文档单遍，纯函数，无副作用）
// 返回的Skills是原始token，规范化与推断由上层流水线完成
func (p *CandidateParser) Parse(text string) *types.ParsedCandidate {
	lines := SplitLines(text)

	return &types.ParsedCandidate{
		Name:           p.extractName(lines),
		Email:          p.emailRe.FindString(text),
		Phone:          p.phoneRe.FindString(text),
		Summary:        p.extractSummary(lines),
		Education:      p.extractEducation(lines),
		Experience:     p.extractExperience(lines),
		Skills:         p.extractSkills(lines),
		Languages:      p.extractLanguages(lines),
		Certifications: p.extractCertifications(lines),
	}
}

// extractName 在前5行中寻找首个形如姓名的行，不向后越界扫描
func (p *CandidateParser) extractName(lines []string) string {
	limit := nameScanLimit
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if p.nameRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// extractSummary 收集summary锚点之后的行，
// 遇到长度不足20的行或收满4行即停止，用单个空格连接
func (p *CandidateParser) extractSummary(lines []string) string {
	start := -1
	for i, line := range lines {
		if SectionSummary.MatchesEntry(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}

	var collected []string
	for _, line := range lines[start+1:] {
		if len(line) < summaryMinLineLen || len(collected) == summaryMaxLines {
			break
		}
		collected = append(collected, line)
	}
	return strings.Join(collected, " ")
}

// extractEducation 在教育章节内寻找学位级别行，其下一行作为院校
// 专业与日期无可用启发式，留空
func (p *CandidateParser) extractEducation(lines []string) []types.EducationEntry {
	section := sectionLines(lines, SectionEducation)

	var entries []types.EducationEntry
	for i, line := range section {
		if !p.degreeRe.MatchString(line) {
			continue
		}
		institution := ""
		if i+1 < len(section) {
			institution = section[i+1]
		}
		entries = append(entries, types.EducationEntry{
			Degree:      line,
			Institution: institution,
		})
	}
	return entries
}

// extractExperience 在经历章节内寻找职位头衔行，其下一行作为公司
func (p *CandidateParser) extractExperience(lines []string) []types.ExperienceEntry {
	section := sectionLines(lines, SectionExperience)

	var entries []types.ExperienceEntry
	for i, line := range section {
		if !p.titleRe.MatchString(line) {
			continue
		}
		company := ""
		if i+1 < len(section) {
			company = section[i+1]
		}
		entries = append(entries, types.ExperienceEntry{
			Position: line,
			Company:  company,
			Current:  false,
		})
	}
	return entries
}

// extractSkills 技能章节：分隔符行拆分为多个token；
// 无分隔符且长度在(2,50)内的行整行作为一个技能
func (p *CandidateParser) extractSkills(lines []string) []string {
	var skills []string
	for _, line := range sectionLines(lines, SectionSkills) {
		if p.delimRe.MatchString(line) {
			skills = append(skills, p.splitTokens(line)...)
		} else if len(line) > 2 && len(line) < 50 {
			skills = append(skills, line)
		}
	}
	return dedupe(skills)
}

// extractLanguages 语言章节只接受分隔符行，不做整行回退
func (p *CandidateParser) extractLanguages(lines []string) []string {
	var languages []string
	for _, line := range sectionLines(lines, SectionLanguages) {
		if p.delimRe.MatchString(line) {
			languages = append(languages, p.splitTokens(line)...)
		}
	}
	return dedupe(languages)
}

// extractCertifications 证书章节：分隔符行拆分，
// 整行回退的长度界限为(5,100)
func (p *CandidateParser) extractCertifications(lines []string) []string {
	var certs []string
	for _, line := range sectionLines(lines, SectionCertifications) {
		if p.delimRe.MatchString(line) {
			certs = append(certs, p.splitTokens(line)...)
		} else if len(line) > 5 && len(line) < 100 {
			certs = append(certs, line)
		}
	}
	return dedupe(certs)
}

// splitTokens 按逗号/项目符号/连字符拆分，逐项去空白并丢弃空项
func (p *CandidateParser) splitTokens(line string) []string {
	parts := p.delimRe.Split(line, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
