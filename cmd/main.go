package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"cv-screener-go/internal/api/handler"
	"cv-screener-go/internal/api/router"
	"cv-screener-go/internal/config"
	"cv-screener-go/internal/extractor"
	"cv-screener-go/internal/logger"
	"cv-screener-go/internal/matcher"
	"cv-screener-go/internal/normalizer"
	"cv-screener-go/internal/processor"
	"cv-screener-go/internal/storage"
	"cv-screener-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(logger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			glog.Warnf("关闭链路追踪失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	textExtractor, err := extractor.NewTextExtractor(ctx)
	if err != nil {
		glog.Fatalf("初始化文本抽取器失败: %v", err)
	}

	synonymTable := normalizer.DefaultSynonymTable()
	if err := synonymTable.Validate(); err != nil {
		glog.Fatalf("同义词表配置错误: %v", err)
	}

	candidateProcessor := processor.NewCandidateProcessor(textExtractor, storageManager, cfg, synonymTable)
	go func() {
		// 消息队列可能晚于本服务就绪，按配置间隔重试
		retry := config.GetDuration(cfg.RabbitMQ.RetryInterval, 5*time.Second)
		for {
			if _, err := candidateProcessor.StartConsumers(ctx); err != nil {
				glog.Errorf("启动消费者失败，%s后重试: %v", retry, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retry):
				}
				continue
			}
			glog.Info("解析管线消费者已启动")
			return
		}
	}()

	candidateHandler := handler.NewCandidateHandler(cfg, storageManager, matcher.NewMatcher(synonymTable))

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, cfg, candidateHandler)
	glog.Info("HTTP路由注册成功")

	go func() {
		glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
