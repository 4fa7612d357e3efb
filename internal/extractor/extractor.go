// Package extractor 将原始文档字节（PDF/Word）转换为纯文本
// 纯转换，无副作用；仅有的两类错误是格式不支持与文档不可读，
// 其余一切内容问题都留给下游启发式处理
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"cv-screener-go/internal/types"
)

var (
	// ErrUnsupportedFormat MIME种类不在支持范围内，在任何解码尝试之前返回
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	// ErrUnreadableDocument 字节无法解码为文本（容器损坏或无文本层）
	ErrUnreadableDocument = errors.New("文档不可读")
)

// TextExtractor 文本提取器
type TextExtractor struct {
	pdf    *PDFExtractor
	logger *log.Logger
}

// Option 文本提取器的配置选项
type Option func(*TextExtractor)

// WithLogger 配置自定义日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(e *TextExtractor) {
		e.logger = logger
	}
}

// NewTextExtractor 创建文本提取器，PDF解析器在此一次性初始化
func NewTextExtractor(ctx context.Context, options ...Option) (*TextExtractor, error) {
	p, err := NewPDFExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化PDF解析器失败: %w", err)
	}

	e := &TextExtractor{
		pdf:    p,
		logger: log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// Extract 按声明的文档种类把字节解码为纯文本
// 不支持的种类返回ErrUnsupportedFormat；解码失败返回ErrUnreadableDocument
func (e *TextExtractor) Extract(ctx context.Context, data []byte, kind types.DocumentKind) (string, error) {
	switch kind {
	case types.KindPDF:
		return e.pdf.ExtractFromBytes(ctx, data)
	case types.KindDocxXML:
		return extractDocx(data)
	case types.KindLegacyDoc:
		return extractLegacyDoc(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}
