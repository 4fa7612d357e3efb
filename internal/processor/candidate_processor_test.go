package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/types"
)

// mockExtractor 返回固定文本，跳过真实的文档解码
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte, _ types.DocumentKind) (string, error) {
	return m.text, m.err
}

func newTestProcessor(text string) *CandidateProcessor {
	return NewCandidateProcessor(&mockExtractor{text: text}, nil, nil, nil)
}

func TestParseDocumentNormalizesSkills(t *testing.T) {
	p := newTestProcessor(`Jane Doe
jane@example.com

Skills
Python, React, AWS
`)

	parsed, text, err := p.ParseDocument(context.Background(), []byte("ignored"), types.KindPDF)
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	assert.Equal(t, []string{"python", "react", "aws"}, parsed.Skills)
	assert.Equal(t, "jane@example.com", parsed.Email)
}

func TestParseDocumentCollapsesSynonyms(t *testing.T) {
	p := newTestProcessor(`Skills
JS, js, JavaScript, ReactJS
`)

	parsed, _, err := p.ParseDocument(context.Background(), nil, types.KindPDF)
	require.NoError(t, err)

	// 同一canonical只保留首个出现
	assert.Equal(t, []string{"javascript", "react"}, parsed.Skills)
}

func TestParseDocumentInfersRepeatedSkills(t *testing.T) {
	// peoplesoft在全文出现两次但不在技能区，应被推断补入
	p := newTestProcessor(`John Smith

Summary
Maintained PeopleSoft HR modules across two business units.
Led the PeopleSoft payroll migration for the retail division.

Skills
Python
`)

	parsed, _, err := p.ParseDocument(context.Background(), nil, types.KindPDF)
	require.NoError(t, err)

	assert.Contains(t, parsed.Skills, "python")
	assert.Contains(t, parsed.Skills, "peoplesoft")
}

func TestParseDocumentInferenceSkipsExistingVariant(t *testing.T) {
	// 技能区已有PSFT（peoplesoft的变体），推断不重复加入
	p := newTestProcessor(`Summary
Ran PeopleSoft upgrades for years, deep PeopleSoft expertise.

Skills
PSFT
`)

	parsed, _, err := p.ParseDocument(context.Background(), nil, types.KindPDF)
	require.NoError(t, err)

	count := 0
	for _, s := range parsed.Skills {
		if s == "peoplesoft" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseDocumentDeterministic(t *testing.T) {
	text := `Jane Doe
jane@example.com

Skills
JavaScript, Node, AWS
`
	p := newTestProcessor(text)

	first, _, err := p.ParseDocument(context.Background(), nil, types.KindPDF)
	require.NoError(t, err)
	second, _, err := p.ParseDocument(context.Background(), nil, types.KindPDF)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConsumerBindingsWorkerCount(t *testing.T) {
	rcfg := &config.RabbitMQConfig{
		UploadQueue:         "q.candidate_uploaded",
		ReprocessQueue:      "q.candidate_reprocess",
		UploadedRoutingKey:  "candidate.uploaded",
		ReprocessRoutingKey: "candidate.reprocess",
		ConsumerWorkers:     3,
	}

	bindings := consumerBindings(rcfg)
	require.Len(t, bindings, 2)
	assert.Equal(t, "q.candidate_uploaded", bindings[0].queue)
	assert.Equal(t, "candidate.uploaded", bindings[0].routingKey)
	assert.Equal(t, "q.candidate_reprocess", bindings[1].queue)
	assert.Equal(t, "candidate.reprocess", bindings[1].routingKey)
	// 每个队列都按配置的并发数启动消费者
	for _, b := range bindings {
		assert.Equal(t, 3, b.workers)
	}

	// 未配置或非法的并发数回退为单消费者
	rcfg.ConsumerWorkers = 0
	for _, b := range consumerBindings(rcfg) {
		assert.Equal(t, 1, b.workers)
	}
}

func TestProcessErrorFamily(t *testing.T) {
	err := NewExtractError("file-1", "坏的字节流")
	assert.ErrorIs(t, err, ErrExtractTextFailed)
	assert.NotErrorIs(t, err, ErrCVDownloadFailed)
	assert.Contains(t, err.Error(), "file-1")
	assert.Contains(t, err.Error(), "坏的字节流")
}
