package main

import (
	"context"
	"fmt"
	"time"

	"resume-analyzer-go/internal/parser"
)

// 处理分块子命令：只分块不调用模型，用于估算一次分析会产生多少次推理
func handleChunkCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, _, err := extractText(ctx, cfg, *pdfFilePath)
	if err != nil {
		return err
	}

	chunks := parser.ChunkText(text, cfg.Analyzer.MaxWords)
	stats := parser.ComputeChunkStats(text, cfg.Analyzer.MaxWords)

	fmt.Println("===== 分块统计 =====")
	fmt.Printf("总词数: %d\n", stats.TotalWords)
	fmt.Printf("每块最大词数: %d\n", stats.MaxWords)
	fmt.Printf("分块数: %d\n", stats.ChunkCount)
	for i, chunk := range chunks {
		fmt.Printf("\n--- 分块 %d (%d 词) ---\n", i+1, stats.ChunkSizes[i])
		fmt.Println(truncateForDisplay(chunk, *maxLen))
	}
	if stats.ChunkCount > 1 {
		fmt.Printf("\n注意: 将产生 %d 次推理调用，只有第一块的结果会被返回\n", stats.ChunkCount)
	}
	return nil
}
