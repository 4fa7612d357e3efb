package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screener-go/internal/types"
)

// buildDocx 在内存中构造一个最小的docx容器
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if documentXML != "" {
		w, err := zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const minimalDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills</w:t></w:r></w:p>
    <w:p><w:r><w:t>Python, React</w:t><w:tab/><w:t>AWS</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDocx(t *testing.T) {
	text, err := extractDocx(buildDocx(t, minimalDocumentXML))
	require.NoError(t, err)

	// 段落转行，样式丢弃
	assert.Contains(t, text, "Jane Doe\n")
	assert.Contains(t, text, "Skills\n")
	assert.Contains(t, text, "Python, React\tAWS\n")
}

func TestExtractDocxMalformed(t *testing.T) {
	// 不是zip容器
	_, err := extractDocx([]byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrUnreadableDocument)

	// zip容器但缺少word/document.xml
	_, err = extractDocx(buildDocx(t, ""))
	assert.ErrorIs(t, err, ErrUnreadableDocument)

	// document.xml不是合法XML
	_, err = extractDocx(buildDocx(t, "<w:document><unclosed"))
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestExtractLegacyDoc(t *testing.T) {
	// 构造带OLE魔数的伪.doc：512字节头 + 文本负载
	payload := append([]byte{}, oleSignature...)
	payload = append(payload, make([]byte, 512-len(oleSignature))...)
	payload = append(payload, []byte("John Smith\rSoftware Engineer\r")...)

	text, err := extractLegacyDoc(payload)
	require.NoError(t, err)
	assert.Contains(t, text, "John Smith")
	assert.Contains(t, text, "Software Engineer")
}

func TestExtractLegacyDocUTF16(t *testing.T) {
	payload := append([]byte{}, oleSignature...)
	payload = append(payload, make([]byte, 512-len(oleSignature))...)
	// UTF-16LE存储的ASCII文本
	for _, r := range "Data Analyst" {
		payload = append(payload, byte(r), 0x00)
	}

	text, err := extractLegacyDoc(payload)
	require.NoError(t, err)
	assert.Contains(t, text, "Data Analyst")
}

func TestExtractLegacyDocMalformed(t *testing.T) {
	// 魔数缺失
	_, err := extractLegacyDoc(bytes.Repeat([]byte{0xFF}, 1024))
	assert.ErrorIs(t, err, ErrUnreadableDocument)

	// 容器太短
	_, err = extractLegacyDoc(oleSignature)
	assert.ErrorIs(t, err, ErrUnreadableDocument)

	// 魔数有效但没有任何可打捞文本
	empty := append([]byte{}, oleSignature...)
	empty = append(empty, make([]byte, 1024)...)
	_, err = extractLegacyDoc(empty)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestExtractDispatch(t *testing.T) {
	ctx := context.Background()
	e, err := NewTextExtractor(ctx)
	require.NoError(t, err)

	// 不支持的种类在任何解码尝试前失败
	_, err = e.Extract(ctx, []byte("anything"), types.DocumentKind("rtf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// 损坏的PDF字节
	_, err = e.Extract(ctx, []byte("definitely not a pdf"), types.KindPDF)
	assert.ErrorIs(t, err, ErrUnreadableDocument)

	// docx走zip解码路径
	text, err := e.Extract(ctx, buildDocx(t, minimalDocumentXML), types.KindDocxXML)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
}

func TestKindFromMIME(t *testing.T) {
	assert.Equal(t, types.KindPDF, types.KindFromMIME("application/pdf"))
	assert.Equal(t, types.KindDocxXML,
		types.KindFromMIME("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, types.KindLegacyDoc, types.KindFromMIME("application/msword"))
	assert.Empty(t, types.KindFromMIME("text/plain"))
}
