package constants

// 候选人招聘状态
const (
	CandidateStatusNew       = "new"
	CandidateStatusScreening = "screening"
	CandidateStatusInterview = "interview"
	CandidateStatusRejected  = "rejected"
	CandidateStatusHired     = "hired"
)

// ValidCandidateStatuses 状态更新接口允许的取值集合
var ValidCandidateStatuses = map[string]bool{
	CandidateStatusNew:       true,
	CandidateStatusScreening: true,
	CandidateStatusInterview: true,
	CandidateStatusRejected:  true,
	CandidateStatusHired:     true,
}

// 简历文件处理状态
const (
	UploadStatusPending    = "pending"
	UploadStatusProcessing = "processing"
	UploadStatusCompleted  = "completed"
	UploadStatusFailed     = "failed"
)

// 允许上传的MIME类型
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeDoc  = "application/msword"
)

// Redis键
const (
	// RawFileMD5SetKey 已上传原始文件MD5集合，用于秒级去重
	RawFileMD5SetKey = "cv_screener:raw_file_md5_set"
)

// ParserVersion 解析器版本号，随抽取/解析启发式规则变更递增
// 写入candidate_details.parser_version，便于识别需要重新解析的存量数据
const ParserVersion = "heuristic-v1"

// MinIO对象键布局
const (
	// OriginalObjectKeyFormat 原始简历对象键: {candidate_id}/{file_id}{ext}
	OriginalObjectKeyFormat = "%s/%s%s"
	// ParsedTextObjectKeyFormat 解析文本对象键: {candidate_id}/{file_id}.txt
	ParsedTextObjectKeyFormat = "%s/%s.txt"
)
