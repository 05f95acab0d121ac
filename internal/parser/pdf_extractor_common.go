package parser

import (
	"context"
	"fmt"
	"os"
	"time"
)

// bytesExtractFunc 各提取器共用的按字节提取函数签名
type bytesExtractFunc func(ctx context.Context, data []byte, uri string, extraMeta map[string]any) (string, map[string]any, error)

// extractFromFile 读取本地PDF文件并交给具体提取器处理，CLI使用
func extractFromFile(ctx context.Context, filePath string, extract bytesExtractFunc) (string, map[string]any, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("打开PDF文件 %s 失败: %w", filePath, err)
	}
	return extract(ctx, data, filePath, map[string]any{
		"source_file_path": filePath,
	})
}

// baseMetadata 所有提取器都会返回的基础元数据
func baseMetadata(uri string, extraMeta map[string]any) map[string]any {
	meta := map[string]any{
		"source_uri":      uri,
		"extraction_time": time.Now().Format(time.RFC3339),
	}
	for k, v := range extraMeta {
		meta[k] = v
	}
	return meta
}
