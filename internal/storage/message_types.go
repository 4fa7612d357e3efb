package storage

import "time"

// CandidateUploadedMessage 简历上传完成消息，触发异步解析
type CandidateUploadedMessage struct {
	CandidateID      string    `json:"candidate_id"`
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	OriginalPathOSS  string    `json:"original_path_oss"`
	RawFileMD5       string    `json:"raw_file_md5,omitempty"` // 解析失败时用于回滚去重记录
	UploadedAt       time.Time `json:"uploaded_at"`
}

// CandidateReprocessMessage 重新解析消息
// FileID为空表示对候选人最近一次上传的文件重新解析
type CandidateReprocessMessage struct {
	CandidateID string    `json:"candidate_id"`
	FileID      string    `json:"file_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
