package handler

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/constants"
	"cv-screener-go/internal/storage"
)

// newTestHandler 构造一个存储组件全部缺失的处理器，
// 用于覆盖不依赖外部服务的校验与降级路径
func newTestHandler() *CandidateHandler {
	cfg := &config.Config{}
	cfg.Upload.MaxFileSizeMB = 10
	return NewCandidateHandler(cfg, &storage.Storage{}, nil)
}

func TestHandleUploadRejectsUnsupportedType(t *testing.T) {
	h := newTestHandler()

	_, err := h.HandleUpload(context.Background(), bytes.NewReader([]byte("plain text")),
		10, "cv.txt", "text/plain", "")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestHandleUploadRejectsOversizedFile(t *testing.T) {
	h := newTestHandler()

	_, err := h.HandleUpload(context.Background(), bytes.NewReader(nil),
		11*1024*1024, "cv.pdf", constants.MIMETypePDF, "")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestCheckDuplicateUploadWithoutRedis(t *testing.T) {
	// Redis未初始化时去重退化为"不重复"，上传流程继续而不是panic
	h := newTestHandler()

	dup, err := h.checkDuplicateUpload(context.Background(), "d41d8cd98f00b204e9800998ecf8427e")
	require.NoError(t, err)
	assert.False(t, dup)
}
