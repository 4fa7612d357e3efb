package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/storage/models"
	"cv-screener-go/internal/tracing"
	"cv-screener-go/internal/types"
)

var mysqlTracer = otel.Tracer("cv-screener-go/storage/mysql")

// GormTracingPlugin GORM插件，向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

type gormSpanKey struct{}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}

		newCtx, span := p.tracer.Start(ctx, spanName, opts...)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		// 只上报占位符形式的语句并截断，参数值里全是候选人隐私
		if stmt := db.Statement.SQL.String(); stmt != "" {
			span.SetAttributes(attribute.String("db.statement", tracing.SafeSQL(stmt)))
		}

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 未找到记录是业务正常分支，不算错误
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	currentLogger := m.db.Logger

	// 迁移阶段关闭SQL日志
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.Candidate{},
		&models.CVFile{},
		&models.CandidateDetail{},
	)

	m.db = m.db.Session(&gorm.Session{Logger: currentLogger})

	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateCandidateWithFile 在一个事务中创建候选人主记录和文件记录
func (m *MySQL) CreateCandidateWithFile(ctx context.Context, candidate *models.Candidate, file *models.CVFile) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.CreateCandidateWithFile",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("candidate.id", candidate.CandidateID)))
	defer span.End()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(candidate).Error; err != nil {
			return fmt.Errorf("创建候选人失败: %w", err)
		}
		if err := tx.Create(file).Error; err != nil {
			return fmt.Errorf("创建简历文件记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// CreateCVFile 为已有候选人追加一条文件记录
func (m *MySQL) CreateCVFile(ctx context.Context, file *models.CVFile) error {
	return m.db.WithContext(ctx).Create(file).Error
}

// GetCandidateByID 通过ID获取候选人
func (m *MySQL) GetCandidateByID(ctx context.Context, candidateID string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&candidate).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// GetCVFileByID 通过ID获取文件记录
func (m *MySQL) GetCVFileByID(ctx context.Context, fileID string) (*models.CVFile, error) {
	var file models.CVFile
	err := m.db.WithContext(ctx).Where("file_id = ?", fileID).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetLatestCVFile 获取候选人最近一次上传的文件记录
func (m *MySQL) GetLatestCVFile(ctx context.Context, candidateID string) (*models.CVFile, error) {
	var file models.CVFile
	err := m.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListAllLatestCVFiles 列出每个候选人最近一次上传的文件记录，用于全量重新解析
func (m *MySQL) ListAllLatestCVFiles(ctx context.Context) ([]models.CVFile, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ListAllLatestCVFiles",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var files []models.CVFile
	// 每个候选人按created_at取最新一条
	subQuery := m.db.Model(&models.CVFile{}).
		Select("candidate_id, MAX(created_at) AS max_created_at").
		Group("candidate_id")
	err := m.db.WithContext(ctx).
		Joins("JOIN (?) latest ON cv_files.candidate_id = latest.candidate_id AND cv_files.created_at = latest.max_created_at", subQuery).
		Find(&files).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("db.result_count", len(files)))
	span.SetStatus(codes.Ok, "")
	return files, nil
}

// UpdateCVFileStatus 更新文件处理状态，失败时附带错误信息
func (m *MySQL) UpdateCVFileStatus(ctx context.Context, fileID string, status string, parseError string) error {
	updates := map[string]interface{}{
		"upload_status": status,
		"parse_error":   parseError,
	}
	return m.db.WithContext(ctx).Model(&models.CVFile{}).
		Where("file_id = ?", fileID).Updates(updates).Error
}

// UpdateCVFileParsedPath 记录解析文本在对象存储中的位置
func (m *MySQL) UpdateCVFileParsedPath(ctx context.Context, fileID string, parsedPath string) error {
	return m.db.WithContext(ctx).Model(&models.CVFile{}).
		Where("file_id = ?", fileID).Update("parsed_text_path_oss", parsedPath).Error
}

// UpsertCandidateDetail 写入解析结果，已存在则整行覆盖
func (m *MySQL) UpsertCandidateDetail(ctx context.Context, detail *models.CandidateDetail) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.UpsertCandidateDetail",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("candidate.id", detail.CandidateID)))
	defer span.End()

	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "education_json", "experience_json",
			"skills_json", "languages_json", "certifications_json",
			"parser_version", "updated_at",
		}),
	}).Create(detail).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateCandidateFields 更新候选人主表的若干字段
func (m *MySQL) UpdateCandidateFields(ctx context.Context, candidateID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ?", candidateID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 值未变化时MySQL同样报告0行受影响，需区分记录是否存在
		var count int64
		if err := m.db.WithContext(ctx).Model(&models.Candidate{}).
			Where("candidate_id = ?", candidateID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// DeleteCandidate 删除候选人及其全部关联记录
func (m *MySQL) DeleteCandidate(ctx context.Context, candidateID string) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.DeleteCandidate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("candidate.id", candidateID)))
	defer span.End()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&models.CandidateDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&models.CVFile{}).Error; err != nil {
			return err
		}
		result := tx.Where("candidate_id = ?", candidateID).Delete(&models.Candidate{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// CandidateFilter 候选人列表查询条件
type CandidateFilter struct {
	Status string // 按招聘状态过滤，空串不过滤
	Search string // 按姓名/邮箱模糊匹配，空串不过滤
}

// ListCandidateRecords 加载候选人及其解析结果，供匹配打分和列表接口使用
func (m *MySQL) ListCandidateRecords(ctx context.Context, filter CandidateFilter) ([]types.CandidateRecord, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ListCandidateRecords",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	query := m.db.WithContext(ctx).Model(&models.Candidate{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var candidates []models.Candidate
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if len(candidates) == 0 {
		span.SetAttributes(attribute.Int("db.result_count", 0))
		span.SetStatus(codes.Ok, "")
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.CandidateID
	}

	var details []models.CandidateDetail
	if err := m.db.WithContext(ctx).Where("candidate_id IN ?", ids).Find(&details).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	detailByID := make(map[string]*models.CandidateDetail, len(details))
	for i := range details {
		detailByID[details[i].CandidateID] = &details[i]
	}

	records := make([]types.CandidateRecord, 0, len(candidates))
	for _, c := range candidates {
		record := types.CandidateRecord{
			CandidateID:     c.CandidateID,
			Status:          c.Status,
			PositionApplied: c.PositionApplied,
			Notes:           c.Notes,
			CreatedAt:       c.CreatedAt,
			Detail: types.ParsedCandidate{
				Name:  c.Name,
				Email: c.Email,
				Phone: c.Phone,
			},
		}
		if d, ok := detailByID[c.CandidateID]; ok {
			record.Detail.Summary = d.Summary
			// 单条JSON损坏不让整个列表失败，留空即可
			_ = json.Unmarshal(d.EducationJSON, &record.Detail.Education)
			_ = json.Unmarshal(d.ExperienceJSON, &record.Detail.Experience)
			_ = json.Unmarshal(d.SkillsJSON, &record.Detail.Skills)
			_ = json.Unmarshal(d.LanguagesJSON, &record.Detail.Languages)
			_ = json.Unmarshal(d.CertificationsJSON, &record.Detail.Certifications)
		}
		records = append(records, record)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(records)))
	span.SetStatus(codes.Ok, "")
	return records, nil
}
