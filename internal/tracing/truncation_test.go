package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeAttributeValueMasksPIIKeys(t *testing.T) {
	// 属性名包含敏感关键字时值被掩码
	masked := SafeAttributeValue("candidate.email", "myemail@example.com", DefaultMaxLength)
	assert.Equal(t, "my***************om", masked)
	assert.NotContains(t, masked, "example")

	// 非敏感属性名只做截断
	long := strings.Repeat("x", DefaultMaxLength+50)
	safe := SafeAttributeValue("parse_error", long, DefaultMaxLength)
	assert.LessOrEqual(t, len([]rune(safe)), DefaultMaxLength)
	assert.Contains(t, safe, "...")
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("A"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	// 长值保留首尾各两位
	assert.Equal(t, "13*******90", MaskPII("13812345690"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))

	truncated := TruncateString(strings.Repeat("a", 100)+strings.Repeat("b", 100), 21)
	assert.Equal(t, "aaaaaaaaa...bbbbbbbbb", truncated)
}

func TestSafeHelperLengthBounds(t *testing.T) {
	longSQL := "SELECT * FROM candidates WHERE " + strings.Repeat("status = ? AND ", 100) + "1=1"
	assert.LessOrEqual(t, len([]rune(SafeSQL(longSQL))), MaxSQLLength)

	longKey := strings.Repeat("k", 300)
	assert.LessOrEqual(t, len([]rune(SafeRedisKey(longKey))), MaxRedisLength)

	longDoc := strings.Repeat("resume text ", 100)
	assert.LessOrEqual(t, len([]rune(SafeDocumentContent(longDoc))), MaxDocumentLength)
	assert.Equal(t, "short resume", SafeDocumentContent("short resume"))
}
