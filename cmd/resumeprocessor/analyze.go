package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/processor"
)

// 处理分析命令：提取、分块并调用模型，输出第一块的分析结果
func handleAnalyzeCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	// 多块时每块一次推理，超时需要留足
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	text, _, err := extractText(ctx, cfg, *pdfFilePath)
	if err != nil {
		return err
	}

	chatModel, err := processor.BuildChatModel(ctx, cfg)
	if err != nil {
		return err
	}
	analyzer := processor.NewAnalyzerFromConfig(cfg, chatModel, nil)

	fmt.Printf("使用 %s/%s 分析简历...\n", cfg.LLM.Provider, cfg.LLM.Model)
	startTime := time.Now()
	result, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return fmt.Errorf("简历分析失败: %w", err)
	}
	fmt.Printf("分析完成! 耗时: %v\n\n", time.Since(startTime))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化分析结果失败: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
