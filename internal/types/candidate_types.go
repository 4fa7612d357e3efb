package types

import "time"

// DocumentKind 上传文档的类型（由调用方声明的MIME种类）
type DocumentKind string

const (
	// KindPDF PDF文档
	KindPDF DocumentKind = "pdf"
	// KindDocxXML OOXML格式的Word文档 (.docx)
	KindDocxXML DocumentKind = "docx-xml"
	// KindLegacyDoc 旧版二进制Word文档 (.doc)
	KindLegacyDoc DocumentKind = "legacy-doc"
)

// KindFromMIME 将HTTP MIME类型映射为DocumentKind，未知类型返回空串
func KindFromMIME(mime string) DocumentKind {
	switch mime {
	case "application/pdf":
		return KindPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return KindDocxXML
	case "application/msword":
		return KindLegacyDoc
	default:
		return ""
	}
}

// EducationEntry 教育经历条目
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// ExperienceEntry 工作经历条目
type ExperienceEntry struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Current     bool   `json:"current"`
}

// ParsedCandidate 从单份简历文档中提取出的结构化候选人数据
// 所有字段均为尽力提取：模式未命中时字段为空，不构成错误
// 不变量：Skills 中只包含规范化后的canonical形式，且按canonical身份去重
type ParsedCandidate struct {
	Name           string            `json:"name,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Education      []EducationEntry  `json:"education,omitempty"`
	Experience     []ExperienceEntry `json:"experience,omitempty"`
	Skills         []string          `json:"skills,omitempty"`
	Languages      []string          `json:"languages,omitempty"`
	Certifications []string          `json:"certifications,omitempty"`
}

// CandidateRecord 查询时参与打分的已持久化候选人视图
// 由存储层加载，ParsedCandidate部分来自candidate_details行
type CandidateRecord struct {
	CandidateID     string          `json:"candidate_id"`
	Status          string          `json:"status"`
	PositionApplied string          `json:"position_applied,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Detail          ParsedCandidate `json:"detail"`
}

// ScoredCandidate 附带匹配分数的候选人，仅在提供技能查询时产生，从不落库
type ScoredCandidate struct {
	CandidateRecord
	MatchScore int `json:"match_score"`
}
