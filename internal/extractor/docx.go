package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx 从OOXML Word文档中提取段落文本，丢弃全部样式
// .docx是一个zip容器，正文位于word/document.xml；
// 逐token扫描<w:t>文本节点，段落结束(</w:p>)换行，<w:tab>/<w:br>转为空白
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: 无效的docx容器: %v", ErrUnreadableDocument, err)
	}

	var docEntry *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docEntry = f
			break
		}
	}
	if docEntry == nil {
		return "", fmt.Errorf("%w: docx容器缺少word/document.xml", ErrUnreadableDocument)
	}

	rc, err := docEntry.Open()
	if err != nil {
		return "", fmt.Errorf("%w: 打开word/document.xml失败: %v", ErrUnreadableDocument, err)
	}
	defer rc.Close()

	text, err := decodeDocumentXML(rc)
	if err != nil {
		return "", fmt.Errorf("%w: 解析word/document.xml失败: %v", ErrUnreadableDocument, err)
	}
	return text, nil
}

func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inTextNode := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inTextNode = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inTextNode {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inTextNode = false
			case "p":
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String(), nil
}
