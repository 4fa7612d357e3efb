package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// pdfParseTimeout 单份PDF的解析超时
const pdfParseTimeout = 30 * time.Second

// PDFExtractor 使用Eino PDF Parser提取PDF文本层内容
type PDFExtractor struct {
	parser *pdf.PDFParser
}

// NewPDFExtractor 初始化PDF文本提取器
// ToPages设为false：需要整个文档的连续文本而不是按页分割
func NewPDFExtractor(ctx context.Context) (*PDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	return &PDFExtractor{parser: p}, nil
}

// ExtractFromBytes 从PDF字节提取完整纯文本
// 格式损坏或没有可提取文本层时返回ErrUnreadableDocument
func (e *PDFExtractor) ExtractFromBytes(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfParseTimeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), einoParser.WithURI("resume.pdf"))
	if err != nil {
		return "", fmt.Errorf("%w: PDF解码失败: %v", ErrUnreadableDocument, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: PDF无文本层内容", ErrUnreadableDocument)
	}

	// 合并所有返回文档的内容（ToPages=false时通常只有一个）
	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.Content)
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: PDF无文本层内容", ErrUnreadableDocument)
	}
	return text, nil
}
