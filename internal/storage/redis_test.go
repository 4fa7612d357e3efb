package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Redis初始化失败时Storage.Redis保持nil，调用方的告警路径
// 仍会触达这些方法，nil接收者必须返回错误而不是panic
func TestRedisNilReceiverSafety(t *testing.T) {
	var r *Redis
	ctx := context.Background()

	assert.NoError(t, r.Close())
	assert.Error(t, r.Ping(ctx))
	assert.Error(t, r.AddRawFileMD5(ctx, "d41d8cd98f00b204e9800998ecf8427e"))

	_, err := r.CheckRawFileMD5Exists(ctx, "d41d8cd98f00b204e9800998ecf8427e")
	assert.Error(t, err)
	assert.Error(t, r.RemoveRawFileMD5(ctx, "d41d8cd98f00b204e9800998ecf8427e"))
}
