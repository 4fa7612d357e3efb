package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/constants"
	"cv-screener-go/internal/extractor"
	"cv-screener-go/internal/logger"
	"cv-screener-go/internal/normalizer"
	"cv-screener-go/internal/parser"
	"cv-screener-go/internal/storage"
	"cv-screener-go/internal/storage/models"
	"cv-screener-go/internal/tracing"
	"cv-screener-go/internal/types"
)

var processorTracer = otel.Tracer("cv-screener-go/processor")

// CandidateProcessor 简历处理器：抽取文本、解析结构、归一化技能并持久化
type CandidateProcessor struct {
	extractor TextExtractor
	parser    *parser.CandidateParser
	table     *normalizer.SynonymTable
	inferrer  *normalizer.SkillInferrer
	storage   *storage.Storage
	cfg       *config.Config
}

// NewCandidateProcessor 创建简历处理器
// table为nil时使用内置同义词表
func NewCandidateProcessor(ext TextExtractor, store *storage.Storage, cfg *config.Config, table *normalizer.SynonymTable) *CandidateProcessor {
	if table == nil {
		table = normalizer.DefaultSynonymTable()
	}
	return &CandidateProcessor{
		extractor: ext,
		parser:    parser.NewCandidateParser(),
		table:     table,
		inferrer:  normalizer.NewSkillInferrer(table, nil),
		storage:   store,
		cfg:       cfg,
	}
}

// ParseDocument 从文件字节解析出结构化候选人信息
// 返回解析结果和抽取出的全文，两次调用同一输入结果一致
func (p *CandidateProcessor) ParseDocument(ctx context.Context, data []byte, kind types.DocumentKind) (*types.ParsedCandidate, string, error) {
	text, err := p.extractor.Extract(ctx, data, kind)
	if err != nil {
		return nil, "", err
	}

	parsed := p.parser.Parse(text)

	// 先归一化显式技能，再用种子词汇从全文补充隐含技能
	parsed.Skills = p.table.NormalizeList(parsed.Skills)
	inferred := p.inferrer.Infer(text, parsed.Skills)
	parsed.Skills = append(parsed.Skills, inferred...)

	return parsed, text, nil
}

// ProcessUploadedMessage 消费上传消息，执行完整的解析管线
// 返回error表示基础设施故障，消息应重新入队；
// 文档本身不可解析属于终态，标记失败后返回nil让消息被确认
func (p *CandidateProcessor) ProcessUploadedMessage(ctx context.Context, msg *storage.CandidateUploadedMessage) error {
	return p.processFile(ctx, msg.CandidateID, msg.FileID, msg.OriginalPathOSS, msg.ContentType, msg.RawFileMD5)
}

// ProcessReprocessMessage 消费重新解析消息
// FileID为空时取候选人最近一次上传的文件
func (p *CandidateProcessor) ProcessReprocessMessage(ctx context.Context, msg *storage.CandidateReprocessMessage) error {
	var file *models.CVFile
	var err error
	if msg.FileID != "" {
		file, err = p.storage.MySQL.GetCVFileByID(ctx, msg.FileID)
	} else {
		file, err = p.storage.MySQL.GetLatestCVFile(ctx, msg.CandidateID)
	}
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("candidate_id", msg.CandidateID).
			Str("file_id", msg.FileID).
			Msg("重新解析: 找不到文件记录，跳过")
		return nil
	}
	// 重新解析失败不回滚去重记录，文件本身仍然有效
	return p.processFile(ctx, file.CandidateID, file.FileID, file.OriginalPathOSS, file.ContentType, "")
}

// processFile 单个文件的解析管线
func (p *CandidateProcessor) processFile(ctx context.Context, candidateID, fileID, objectKey, contentType, rawMD5 string) error {
	ctx, span := processorTracer.Start(ctx, "CandidateProcessor.processFile",
		trace.WithAttributes(
			attribute.String("candidate.id", candidateID),
			attribute.String("cv_file.id", fileID),
		))
	defer span.End()

	log := logger.Ctx(ctx).With().
		Str("candidate_id", candidateID).
		Str("file_id", fileID).
		Logger()

	if err := p.storage.MySQL.UpdateCVFileStatus(ctx, fileID, constants.UploadStatusProcessing, ""); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewUpdateError(fileID, err.Error())
	}

	data, err := p.storage.MinIO.GetOriginal(ctx, objectKey)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return NewDownloadError(fileID, err.Error())
	}

	kind := types.KindFromMIME(contentType)
	parsed, text, err := p.ParseDocument(ctx, data, kind)
	if err != nil {
		// 文档损坏或格式不支持是终态，标记失败并确认消息
		if errors.Is(err, extractor.ErrUnreadableDocument) || errors.Is(err, extractor.ErrUnsupportedFormat) {
			log.Warn().Err(err).Msg("简历文本抽取失败，标记为failed")
			span.SetAttributes(attribute.String("parse.failure_detail",
				tracing.SafeAttributeValue("parse_error", err.Error(), tracing.DefaultMaxLength)))
			tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
			if updateErr := p.storage.MySQL.UpdateCVFileStatus(ctx, fileID, constants.UploadStatusFailed, err.Error()); updateErr != nil {
				return NewUpdateError(fileID, updateErr.Error())
			}
			// 回滚去重记录，允许修复后的同内容文件重新上传
			if rawMD5 != "" && p.storage.Redis != nil {
				if remErr := p.storage.Redis.RemoveRawFileMD5(ctx, rawMD5); remErr != nil {
					log.Warn().Err(remErr).Msg("回滚MD5去重记录失败")
				}
			}
			return nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return NewExtractError(fileID, err.Error())
	}

	// 文本预览截断后才能进span，简历正文整篇都是个人信息
	span.SetAttributes(attribute.String("document.preview", tracing.SafeDocumentContent(text)))

	parsedKey, err := p.storage.MinIO.UploadParsedText(ctx, candidateID, fileID, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return NewStoreError(fileID, err.Error())
	}
	if err := p.storage.MySQL.UpdateCVFileParsedPath(ctx, fileID, parsedKey); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewUpdateError(fileID, err.Error())
	}

	if err := p.persistParsed(ctx, candidateID, parsed); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewPersistError(fileID, err.Error())
	}

	if err := p.storage.MySQL.UpdateCVFileStatus(ctx, fileID, constants.UploadStatusCompleted, ""); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewUpdateError(fileID, err.Error())
	}

	log.Info().
		Int("skills", len(parsed.Skills)).
		Int("experience", len(parsed.Experience)).
		Int("education", len(parsed.Education)).
		Msg("简历解析完成")
	span.SetStatus(codes.Ok, "")
	return nil
}

// persistParsed 写入解析结果：详情整行覆盖，主表联系方式按解析值更新
func (p *CandidateProcessor) persistParsed(ctx context.Context, candidateID string, parsed *types.ParsedCandidate) error {
	detail := &models.CandidateDetail{
		CandidateID:   candidateID,
		Summary:       parsed.Summary,
		ParserVersion: constants.ParserVersion,
	}

	var err error
	if detail.EducationJSON, err = models.SliceToJSON(parsed.Education); err != nil {
		return fmt.Errorf("序列化教育经历失败: %w", err)
	}
	if detail.ExperienceJSON, err = models.SliceToJSON(parsed.Experience); err != nil {
		return fmt.Errorf("序列化工作经历失败: %w", err)
	}
	if detail.SkillsJSON, err = models.SliceToJSON(parsed.Skills); err != nil {
		return fmt.Errorf("序列化技能失败: %w", err)
	}
	if detail.LanguagesJSON, err = models.SliceToJSON(parsed.Languages); err != nil {
		return fmt.Errorf("序列化语言失败: %w", err)
	}
	if detail.CertificationsJSON, err = models.SliceToJSON(parsed.Certifications); err != nil {
		return fmt.Errorf("序列化证书失败: %w", err)
	}

	if err := p.storage.MySQL.UpsertCandidateDetail(ctx, detail); err != nil {
		return err
	}

	// 解析出的联系方式非空时同步到主表
	updates := map[string]interface{}{}
	if parsed.Name != "" {
		updates["name"] = parsed.Name
	}
	if parsed.Email != "" {
		updates["email"] = parsed.Email
	}
	if parsed.Phone != "" {
		updates["phone"] = parsed.Phone
	}
	if len(updates) > 0 {
		if err := p.storage.MySQL.UpdateCandidateFields(ctx, candidateID, updates); err != nil {
			return err
		}
	}
	return nil
}

// consumerBinding 单个队列的消费计划：绑定关系与并行消费者数量
type consumerBinding struct {
	queue      string
	routingKey string
	workers    int
}

// consumerBindings 根据配置生成两个队列的消费计划
// 每个队列启动ConsumerWorkers个并行消费者，至少为1
func consumerBindings(rcfg *config.RabbitMQConfig) []consumerBinding {
	workers := rcfg.ConsumerWorkers
	if workers < 1 {
		workers = 1
	}
	return []consumerBinding{
		{queue: rcfg.UploadQueue, routingKey: rcfg.UploadedRoutingKey, workers: workers},
		{queue: rcfg.ReprocessQueue, routingKey: rcfg.ReprocessRoutingKey, workers: workers},
	}
}

// uploadMessageHandler 上传队列的消息处理函数
// 返回true确认消息，false拒绝并重新入队
func (p *CandidateProcessor) uploadMessageHandler(ctx context.Context) func([]byte) bool {
	return func(body []byte) bool {
		var msg storage.CandidateUploadedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("上传消息格式错误，丢弃")
			return true
		}
		if err := p.ProcessUploadedMessage(ctx, &msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("file_id", msg.FileID).
				Msg("处理上传消息失败，消息重新入队")
			return false
		}
		return true
	}
}

// reprocessMessageHandler 重新解析队列的消息处理函数
func (p *CandidateProcessor) reprocessMessageHandler(ctx context.Context) func([]byte) bool {
	return func(body []byte) bool {
		var msg storage.CandidateReprocessMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("重新解析消息格式错误，丢弃")
			return true
		}
		if err := p.ProcessReprocessMessage(ctx, &msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("candidate_id", msg.CandidateID).
				Msg("处理重新解析消息失败，消息重新入队")
			return false
		}
		return true
	}
}

// StartConsumers 声明拓扑并启动两个队列的消费者池
// 返回全部消费者的停止通道
func (p *CandidateProcessor) StartConsumers(ctx context.Context) ([]<-chan struct{}, error) {
	mq := p.storage.RabbitMQ
	if mq == nil {
		return nil, fmt.Errorf("RabbitMQ未初始化")
	}
	rcfg := &p.cfg.RabbitMQ

	if err := mq.EnsureExchange(rcfg.CandidateExchange, "direct", true); err != nil {
		return nil, err
	}

	var stops []<-chan struct{}
	for _, binding := range consumerBindings(rcfg) {
		if err := mq.EnsureQueue(binding.queue, true); err != nil {
			return nil, err
		}
		if err := mq.BindQueue(binding.queue, rcfg.CandidateExchange, binding.routingKey); err != nil {
			return nil, err
		}

		handler := p.uploadMessageHandler(ctx)
		if binding.queue == rcfg.ReprocessQueue {
			handler = p.reprocessMessageHandler(ctx)
		}
		for w := 0; w < binding.workers; w++ {
			stop, err := mq.StartConsumer(binding.queue, rcfg.PrefetchCount, handler)
			if err != nil {
				return nil, fmt.Errorf("启动队列 %s 的消费者失败: %w", binding.queue, err)
			}
			stops = append(stops, stop)
		}
	}

	return stops, nil
}
