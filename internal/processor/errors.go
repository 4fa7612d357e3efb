package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrCVDownloadFailed    = errors.New("下载简历文件失败")
	ErrExtractTextFailed   = errors.New("提取简历文本失败")
	ErrStoreTextFailed     = errors.New("上传解析文本失败")
	ErrPersistDetailFailed = errors.New("写入解析结果失败")
	ErrUpdateStatusFailed  = errors.New("更新文件状态失败")
)

// CandidateProcessError 包含详细错误信息的自定义错误
type CandidateProcessError struct {
	FileID  string
	Op      string
	BaseErr error
	Detail  string
}

func (e *CandidateProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.FileID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.FileID)
}

func (e *CandidateProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *CandidateProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewDownloadError(fileID, detail string) error {
	return &CandidateProcessError{
		FileID:  fileID,
		Op:      "download",
		BaseErr: ErrCVDownloadFailed,
		Detail:  detail,
	}
}

func NewExtractError(fileID, detail string) error {
	return &CandidateProcessError{
		FileID:  fileID,
		Op:      "extract",
		BaseErr: ErrExtractTextFailed,
		Detail:  detail,
	}
}

func NewStoreError(fileID, detail string) error {
	return &CandidateProcessError{
		FileID:  fileID,
		Op:      "store",
		BaseErr: ErrStoreTextFailed,
		Detail:  detail,
	}
}

func NewPersistError(fileID, detail string) error {
	return &CandidateProcessError{
		FileID:  fileID,
		Op:      "persist",
		BaseErr: ErrPersistDetailFailed,
		Detail:  detail,
	}
}

func NewUpdateError(fileID, detail string) error {
	return &CandidateProcessError{
		FileID:  fileID,
		Op:      "update",
		BaseErr: ErrUpdateStatusFailed,
		Detail:  detail,
	}
}
