package extractor

import (
	"bytes"
	"fmt"
	"strings"
)

// oleSignature 复合文件二进制格式（旧版.doc容器）的魔数
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// minRunLength 短于该长度的可打印字符序列视为二进制噪声丢弃
const minRunLength = 4

// extractLegacyDoc 从旧版二进制Word文档中尽力提取段落文本
// 不解析完整的OLE流结构：验证容器魔数后，从字节流中打捞
// 可打印字符序列（兼容单字节与UTF-16LE存储的ASCII文本）
func extractLegacyDoc(data []byte) (string, error) {
	if len(data) < 512 || !bytes.HasPrefix(data, oleSignature) {
		return "", fmt.Errorf("%w: 不是有效的旧版Word容器", ErrUnreadableDocument)
	}

	text := salvageText(data[512:])
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: 旧版Word文档无可提取文本", ErrUnreadableDocument)
	}
	return text, nil
}

// salvageText 扫描字节流，收集可打印字符连续段
// \r是Word的段落标记，连同\n/垂直制表符一并转为换行；
// UTF-16LE编码的ASCII文本中穿插的NUL字节被跳过
func salvageText(data []byte) string {
	var sb strings.Builder
	var run []byte

	flush := func(paragraphEnd bool) {
		if len(run) >= minRunLength {
			sb.Write(run)
			sb.WriteByte('\n')
		} else if paragraphEnd && len(run) > 0 {
			sb.Write(run)
			sb.WriteByte('\n')
		}
		run = run[:0]
	}

	for i := 0; i < len(data); i++ {
		b := data[i]
		switch {
		case b == 0 && i+1 < len(data) && isPrintable(data[i+1]):
			// UTF-16LE低字节文本的高位NUL
			continue
		case isPrintable(b):
			run = append(run, b)
		case b == '\r' || b == '\n' || b == 0x0B:
			flush(true)
		default:
			flush(false)
		}
	}
	flush(false)
	return sb.String()
}

func isPrintable(b byte) bool {
	return (b >= 0x20 && b < 0x7F) || b == '\t'
}
