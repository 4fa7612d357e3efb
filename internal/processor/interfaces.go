package processor

import (
	"context"

	"cv-screener-go/internal/types"
)

// TextExtractor 文档文本抽取接口
// 由extractor.TextExtractor实现，抽象出来便于在测试中替换
type TextExtractor interface {
	// Extract 从文件字节中提取纯文本
	Extract(ctx context.Context, data []byte, kind types.DocumentKind) (string, error)
}
