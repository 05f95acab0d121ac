package processor

import (
	"context"
	"io"

	"resume-analyzer-go/internal/types"
)

//
// PDF解析相关接口
//

// PDFExtractor PDF提取器接口
type PDFExtractor interface {
	// ExtractFromFile 从PDF文件提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]any, error)

	// ExtractTextFromReader 从io.Reader提取文本和元数据
	// 参数：
	// - reader: PDF文件内容的读取器
	// - uri: 资源标识符（用于日志或元数据）
	// - extraMeta: 附加到结果元数据中的字段
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, extraMeta map[string]any) (string, map[string]any, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]any) (string, map[string]any, error)
}

//
// 推理与分析相关接口
//

// InferenceClient 一次远程推理调用：系统指令 + 分块内容 -> 模型原始回复
type InferenceClient interface {
	Infer(ctx context.Context, systemInstruction, chunkContent string) (string, error)
}

// Analyzer 简历分析器
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*types.AnalysisResult, error)
}
