package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
)

// loadConfig 加载配置并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	if *extractor != "" {
		cfg.PDF.Extractor = *extractor
	}
	if *maxWords > 0 {
		cfg.Analyzer.MaxWords = *maxWords
	}
	return cfg, nil
}

// extractText 从PDF提取文本并做空白规范化
func extractText(ctx context.Context, cfg *config.Config, path string) (string, map[string]any, error) {
	if path == "" {
		return "", nil, errors.New("必须提供PDF文件路径，使用 --pdf 参数")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return "", nil, fmt.Errorf("无法访问文件 %s: %w", absPath, err)
	}

	pdfExtractor, err := processor.BuildPDFExtractor(ctx, cfg)
	if err != nil {
		return "", nil, fmt.Errorf("创建PDF提取器失败: %w", err)
	}

	text, metadata, err := pdfExtractor.ExtractFromFile(ctx, absPath)
	if err != nil {
		return "", nil, fmt.Errorf("提取PDF文本失败: %w", err)
	}
	return parser.NormalizeWhitespace(text), metadata, nil
}

// truncateForDisplay 按 --maxlen 截断显示内容
func truncateForDisplay(text string, limit int) string {
	runes := []rune(text)
	if limit < 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "...(已截断，使用 --maxlen 参数显示更多)"
}

// 处理提取文本命令
func handleExtractCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 创建上下文，添加超时以防止无限等待
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("开始从PDF提取文本...")
	startTime := time.Now()
	text, metadata, err := extractText(ctx, cfg, *pdfFilePath)
	if err != nil {
		return err
	}
	fmt.Printf("提取完成! 耗时: %v\n", time.Since(startTime))

	fmt.Printf("\n===== 提取的文本 (总计 %d 字符) =====\n", len([]rune(text)))
	fmt.Println(truncateForDisplay(text, *maxLen))

	fmt.Println("\n===== 元数据 =====")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, metadata[k])
	}
	return nil
}
