package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cv-screener-go/internal/config"
	"cv-screener-go/internal/constants"
	"cv-screener-go/internal/tracing"
)

// ErrNotFound Redis键不存在时返回，封装底层的redis.Nil
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("cv-screener-go/storage/redis")

// Redis 封装Redis客户端
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis注册OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r != nil && r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// AddRawFileMD5 把原始文件MD5加入去重集合并刷新过期时间
func (r *Redis) AddRawFileMD5(ctx context.Context, md5Hex string) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if md5Hex == "" {
		return fmt.Errorf("MD5不能为空")
	}

	pipe := r.Client.Pipeline()
	pipe.SAdd(ctx, constants.RawFileMD5SetKey, md5Hex)
	// 整个集合统一过期，避免逐成员管理TTL
	pipe.Expire(ctx, constants.RawFileMD5SetKey, r.GetMD5ExpireDuration())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入文件MD5去重集合失败: %w", err)
	}
	return nil
}

// CheckRawFileMD5Exists 检查原始文件MD5是否已存在
func (r *Redis) CheckRawFileMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	if r == nil || r.Client == nil {
		return false, fmt.Errorf("redis客户端未初始化")
	}
	if md5Hex == "" {
		return false, nil
	}

	ctx, span := redisTracer.Start(ctx, "Redis.CheckRawFileMD5Exists",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", "SISMEMBER"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(constants.RawFileMD5SetKey)),
		))
	defer span.End()

	exists, err := r.Client.SIsMember(ctx, constants.RawFileMD5SetKey, md5Hex).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("查询文件MD5去重集合失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("dedup.hit", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// RemoveRawFileMD5 从去重集合移除MD5，删除候选人时调用
func (r *Redis) RemoveRawFileMD5(ctx context.Context, md5Hex string) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if md5Hex == "" {
		return nil
	}
	if err := r.Client.SRem(ctx, constants.RawFileMD5SetKey, md5Hex).Err(); err != nil {
		return fmt.Errorf("从文件MD5去重集合移除失败: %w", err)
	}
	return nil
}
