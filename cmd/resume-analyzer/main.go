package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-analyzer-go/internal/api/handler"
	"resume-analyzer-go/internal/api/router"
	appconfig "resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/tracing"
)

const version = "1.0.0"

func main() {
	configPath := pflag.StringP("config", "c", "", "配置文件路径，默认按约定位置查找")
	initConfig := pflag.String("init-config", "", "生成示例配置文件到指定路径后退出")
	pflag.Parse()

	if *initConfig != "" {
		if err := appconfig.CreateSampleConfig(*initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "生成示例配置失败: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 1. 加载配置文件
	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置文件失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志系统
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Logger = logger.Logger.With().
		Str("app", "resume-analyzer").
		Str("version", version).
		Logger()
	logger.BridgeHertz()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置校验失败")
	}

	ctx := context.Background()

	// 3. 链路追踪
	provider, err := tracing.SetupProvider(ctx, tracing.ProviderConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	// 4. 指标
	var recorder *metrics.Recorder
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		metricsServer = metrics.StartServer(cfg.Metrics.Address, recorder)
	}

	// 5. 初始化PDF解析器和推理客户端
	pdfExtractor, err := processor.BuildPDFExtractor(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化PDF解析器失败")
	}
	chatModel, err := processor.BuildChatModel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化模型客户端失败")
	}
	analyzer := processor.NewAnalyzerFromConfig(cfg, chatModel, recorder)
	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("extractor", cfg.PDF.Extractor).
		Int("max_words", cfg.Analyzer.MaxWords).
		Str("chunk_policy", cfg.Analyzer.ChunkPolicy).
		Msg("简历分析器初始化成功")

	// 6. 创建HTTP服务器
	opts := []config.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB << 20),
	}
	var tracingCfg *hertztracing.Config
	if provider.Enabled() {
		tracer, c := hertztracing.NewServerTracer()
		opts = append(opts, tracer)
		tracingCfg = c
	}
	h := server.Default(opts...)
	if tracingCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracingCfg))
	}

	router.RegisterRoutes(h, handler.NewResumeHandler(pdfExtractor, analyzer))

	// 7. 启动HTTP服务器
	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器已启动")

	// 8. 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	// 9. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("指标服务关闭失败")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("链路追踪关闭失败")
	}

	logger.Info().Msg("优雅退出完成")
}
