package storage

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/storage/models"
)

// newTestMySQL 连接测试数据库，环境不可用时跳过
func newTestMySQL(t *testing.T) *MySQL {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	m, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		t.Skipf("无法连接到MySQL，跳过测试: %v", err)
	}
	return m
}

// 写入与当前值相同的字段时MySQL报告0行受影响，
// 只要记录存在就不能误报为未找到
func TestUpdateCandidateFieldsNoopUpdate(t *testing.T) {
	m := newTestMySQL(t)
	ctx := context.Background()

	id, err := uuid.NewV7()
	require.NoError(t, err)
	candidateID := id.String()

	candidate := &models.Candidate{
		CandidateID: candidateID,
		Status:      "new",
		Notes:       "initial note",
	}
	require.NoError(t, m.db.WithContext(ctx).Create(candidate).Error)
	t.Cleanup(func() {
		m.db.Where("candidate_id = ?", candidateID).Delete(&models.Candidate{})
	})

	// no-op更新：值未变化但记录存在
	err = m.UpdateCandidateFields(ctx, candidateID, map[string]interface{}{
		"status": "new",
		"notes":  "initial note",
	})
	assert.NoError(t, err)

	// 真正不存在的记录仍然报告未找到
	missing, err := uuid.NewV7()
	require.NoError(t, err)
	err = m.UpdateCandidateFields(ctx, missing.String(), map[string]interface{}{"status": "new"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
