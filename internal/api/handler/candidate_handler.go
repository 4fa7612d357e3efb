package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/constants"
	"cv-screener-go/internal/logger"
	"cv-screener-go/internal/matcher"
	"cv-screener-go/internal/storage"
	"cv-screener-go/internal/storage/models"
	"cv-screener-go/internal/types"
)

// 对外暴露的业务错误，由路由层映射到HTTP状态码
var (
	ErrUnsupportedFileType = errors.New("不支持的文件类型，仅接受PDF/DOC/DOCX")
	ErrFileTooLarge        = errors.New("文件超过大小限制")
	ErrCandidateNotFound   = errors.New("候选人不存在")
	ErrInvalidStatus       = errors.New("非法的候选人状态")
	ErrNoCVFile            = errors.New("候选人没有简历文件")
)

// allowedMIMETypes 上传接口接受的MIME类型
var allowedMIMETypes = map[string]bool{
	constants.MIMETypePDF:  true,
	constants.MIMETypeDocx: true,
	constants.MIMETypeDoc:  true,
}

// CandidateHandler 候选人接口处理器
type CandidateHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	matcher *matcher.Matcher
}

// NewCandidateHandler 创建候选人接口处理器
func NewCandidateHandler(cfg *config.Config, store *storage.Storage, m *matcher.Matcher) *CandidateHandler {
	return &CandidateHandler{
		cfg:     cfg,
		storage: store,
		matcher: m,
	}
}

// UploadResponse 简历上传响应
type UploadResponse struct {
	CandidateID string `json:"candidate_id"`
	FileID      string `json:"file_id"`
	Status      string `json:"status"`
}

// HandleUpload 处理简历上传
// 同内容文件（按MD5）直接跳过，不创建任何记录
func (h *CandidateHandler) HandleUpload(ctx context.Context, reader io.Reader, fileSize int64,
	filename, contentType, positionApplied string) (*UploadResponse, error) {

	if !allowedMIMETypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
	if fileSize > h.cfg.Upload.MaxFileSizeBytes() {
		return nil, fmt.Errorf("%w: %d字节, 上限%dMB", ErrFileTooLarge, fileSize, h.cfg.Upload.MaxFileSizeMB)
	}

	// reader只能读一次，去重检查需要MD5先行
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	sum := md5.Sum(fileBytes)
	fileMD5Hex := hex.EncodeToString(sum[:])

	exists, err := h.checkDuplicateUpload(ctx, fileMD5Hex)
	if err != nil {
		logger.Error().Err(err).Str("md5", fileMD5Hex).Msg("查询文件MD5去重集合失败")
		return nil, fmt.Errorf("检查文件重复性失败: %w", err)
	}
	if exists {
		logger.Info().Str("md5", fileMD5Hex).Str("filename", filename).
			Msg("检测到重复的文件MD5，跳过处理")
		return &UploadResponse{Status: "DUPLICATE_FILE_SKIPPED"}, nil
	}

	candidateUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	fileUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	candidateID := candidateUUID.String()
	fileID := fileUUID.String()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}

	objectKey, _, err := h.storage.MinIO.UploadOriginal(ctx, candidateID, fileID, ext,
		bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("上传简历到MinIO失败: %w", err)
	}

	// MinIO成功后再写去重集合；写失败只告警，不中断流程
	if h.storage.Redis != nil {
		if err := h.storage.Redis.AddRawFileMD5(ctx, fileMD5Hex); err != nil {
			logger.Warn().Err(err).Str("md5", fileMD5Hex).Str("object_key", objectKey).
				Msg("写入文件MD5去重集合失败，文件已上传到MinIO")
		}
	}

	candidate := &models.Candidate{
		CandidateID:     candidateID,
		PositionApplied: positionApplied,
		Status:          constants.CandidateStatusNew,
	}
	file := &models.CVFile{
		FileID:           fileID,
		CandidateID:      candidateID,
		OriginalFilename: filename,
		ContentType:      contentType,
		SizeBytes:        int64(len(fileBytes)),
		RawFileMD5:       fileMD5Hex,
		OriginalPathOSS:  objectKey,
		UploadStatus:     constants.UploadStatusPending,
	}
	if err := h.storage.MySQL.CreateCandidateWithFile(ctx, candidate, file); err != nil {
		return nil, fmt.Errorf("创建候选人记录失败: %w", err)
	}

	message := storage.CandidateUploadedMessage{
		CandidateID:      candidateID,
		FileID:           fileID,
		OriginalFilename: filename,
		ContentType:      contentType,
		OriginalPathOSS:  objectKey,
		RawFileMD5:       fileMD5Hex,
		UploadedAt:       time.Now(),
	}
	err = h.storage.RabbitMQ.PublishJSON(ctx,
		h.cfg.RabbitMQ.CandidateExchange,
		h.cfg.RabbitMQ.UploadedRoutingKey,
		message,
		true, // 持久化
	)
	if err != nil {
		return nil, fmt.Errorf("发布上传消息到RabbitMQ失败: %w", err)
	}

	return &UploadResponse{
		CandidateID: candidateID,
		FileID:      fileID,
		Status:      "SUBMITTED_FOR_PROCESSING",
	}, nil
}

// ListRequest 候选人列表请求参数
type ListRequest struct {
	Status string // 按招聘状态过滤
	Search string // 按姓名/邮箱模糊匹配
	Skills string // 逗号分隔的技能查询，触发匹配打分
}

// CandidateListItem 列表响应中的单个候选人
type CandidateListItem struct {
	CandidateID     string                `json:"candidate_id"`
	Status          string                `json:"status"`
	PositionApplied string                `json:"position_applied,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	MatchScore      *int                  `json:"match_score,omitempty"` // 仅技能查询时返回
	Detail          types.ParsedCandidate `json:"detail"`
}

// ListResponse 候选人列表响应
type ListResponse struct {
	Total int                 `json:"total"`
	Items []CandidateListItem `json:"items"`
}

// HandleList 列出候选人，技能查询非空时按匹配度打分排序
func (h *CandidateHandler) HandleList(ctx context.Context, req ListRequest) (*ListResponse, error) {
	records, err := h.storage.MySQL.ListCandidateRecords(ctx, storage.CandidateFilter{
		Status: req.Status,
		Search: req.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("查询候选人列表失败: %w", err)
	}

	scored := h.matcher.Rank(records, req.Skills)

	withScore := req.Skills != "" && len(h.matcher.ParseQuery(req.Skills)) > 0
	items := make([]CandidateListItem, 0, len(scored))
	for _, s := range scored {
		item := CandidateListItem{
			CandidateID:     s.CandidateID,
			Status:          s.Status,
			PositionApplied: s.PositionApplied,
			Notes:           s.Notes,
			CreatedAt:       s.CreatedAt,
			Detail:          s.Detail,
		}
		if withScore {
			score := s.MatchScore
			item.MatchScore = &score
		}
		items = append(items, item)
	}

	return &ListResponse{Total: len(items), Items: items}, nil
}

// UpdateRequest 候选人更新请求
// nil字段表示不更新
type UpdateRequest struct {
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
	PositionApplied *string `json:"position_applied"`
}

// HandleUpdate 更新候选人的招聘状态、备注或应聘岗位
func (h *CandidateHandler) HandleUpdate(ctx context.Context, candidateID string, req UpdateRequest) error {
	updates := map[string]interface{}{}
	if req.Status != nil {
		if !constants.ValidCandidateStatuses[*req.Status] {
			return fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.PositionApplied != nil {
		updates["position_applied"] = *req.PositionApplied
	}
	if len(updates) == 0 {
		return nil
	}

	err := h.storage.MySQL.UpdateCandidateFields(ctx, candidateID, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCandidateNotFound
	}
	return err
}

// HandleDelete 删除候选人：数据库记录、对象存储文件和去重记录一并清理
func (h *CandidateHandler) HandleDelete(ctx context.Context, candidateID string) error {
	// 先取文件MD5，删完数据库就拿不到了
	var md5s []string
	if file, err := h.storage.MySQL.GetLatestCVFile(ctx, candidateID); err == nil && file.RawFileMD5 != "" {
		md5s = append(md5s, file.RawFileMD5)
	}

	err := h.storage.MySQL.DeleteCandidate(ctx, candidateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCandidateNotFound
	}
	if err != nil {
		return fmt.Errorf("删除候选人记录失败: %w", err)
	}

	if err := h.storage.MinIO.DeleteCandidateObjects(ctx, candidateID); err != nil {
		logger.Warn().Err(err).Str("candidate_id", candidateID).
			Msg("清理候选人对象存储文件失败")
	}
	if h.storage.Redis != nil {
		for _, m := range md5s {
			if err := h.storage.Redis.RemoveRawFileMD5(ctx, m); err != nil {
				logger.Warn().Err(err).Str("md5", m).Msg("清理MD5去重记录失败")
			}
		}
	}
	return nil
}

// checkDuplicateUpload 查询上传内容是否重复
// Redis未初始化时放弃去重能力，视为不重复，不阻断上传
func (h *CandidateHandler) checkDuplicateUpload(ctx context.Context, md5Hex string) (bool, error) {
	if h.storage.Redis == nil {
		logger.Warn().Msg("Redis未初始化，跳过文件去重检查")
		return false, nil
	}
	return h.storage.Redis.CheckRawFileMD5Exists(ctx, md5Hex)
}

// ReprocessResponse 重新解析响应
type ReprocessResponse struct {
	Requested int `json:"requested"` // 已投递的重新解析任务数
}

// HandleReprocess 请求重新解析
// candidateID为空时对全部候选人的最新文件重新解析
func (h *CandidateHandler) HandleReprocess(ctx context.Context, candidateID string) (*ReprocessResponse, error) {
	var messages []storage.CandidateReprocessMessage

	if candidateID != "" {
		if _, err := h.storage.MySQL.GetCandidateByID(ctx, candidateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCandidateNotFound
			}
			return nil, fmt.Errorf("查询候选人失败: %w", err)
		}
		messages = append(messages, storage.CandidateReprocessMessage{
			CandidateID: candidateID,
			RequestedAt: time.Now(),
		})
	} else {
		files, err := h.storage.MySQL.ListAllLatestCVFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("查询待重新解析文件失败: %w", err)
		}
		for _, f := range files {
			messages = append(messages, storage.CandidateReprocessMessage{
				CandidateID: f.CandidateID,
				FileID:      f.FileID,
				RequestedAt: time.Now(),
			})
		}
	}

	for _, msg := range messages {
		err := h.storage.RabbitMQ.PublishJSON(ctx,
			h.cfg.RabbitMQ.CandidateExchange,
			h.cfg.RabbitMQ.ReprocessRoutingKey,
			msg,
			true,
		)
		if err != nil {
			return nil, fmt.Errorf("发布重新解析消息失败: %w", err)
		}
	}

	return &ReprocessResponse{Requested: len(messages)}, nil
}

// DownloadURLResponse 简历下载链接响应
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleDownloadURL 为候选人最近一次上传的简历生成限时下载链接
func (h *CandidateHandler) HandleDownloadURL(ctx context.Context, candidateID string) (*DownloadURLResponse, error) {
	file, err := h.storage.MySQL.GetLatestCVFile(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCVFile
		}
		return nil, fmt.Errorf("查询简历文件失败: %w", err)
	}

	const expiry = 15 * time.Minute
	url, err := h.storage.MinIO.PresignedOriginalURL(ctx, file.OriginalPathOSS, expiry)
	if err != nil {
		return nil, fmt.Errorf("生成下载链接失败: %w", err)
	}
	return &DownloadURLResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}
