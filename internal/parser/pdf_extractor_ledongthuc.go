package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
)

// LedongthucPDFExtractor 基于 ledongthuc/pdf 的纯Go提取器，逐页读取纯文本
type LedongthucPDFExtractor struct {
	logger zerolog.Logger
}

// LedongthucOption 配置选项
type LedongthucOption func(*LedongthucPDFExtractor)

// WithLedongthucLogger 配置自定义日志记录器
func WithLedongthucLogger(l zerolog.Logger) LedongthucOption {
	return func(e *LedongthucPDFExtractor) {
		e.logger = l
	}
}

// NewLedongthucPDFExtractor 创建提取器
func NewLedongthucPDFExtractor(options ...LedongthucOption) *LedongthucPDFExtractor {
	extractor := &LedongthucPDFExtractor{
		logger: logger.Logger.With().Str("component", "ledongthuc_pdf").Logger(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractFromFile 从本地PDF文件提取文本
func (e *LedongthucPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]any, error) {
	return extractFromFile(ctx, filePath, e.ExtractTextFromBytes)
}

// ExtractTextFromReader 读入内存后按字节提取
func (e *LedongthucPDFExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取PDF内容失败: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, extraMeta)
}

// ExtractTextFromBytes 从字节数组提取文本内容
func (e *LedongthucPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]any) (text string, meta map[string]any, err error) {
	startTime := time.Now()
	meta = baseMetadata(uri, extraMeta)

	// 损坏的文件可能让底层库panic
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("解析PDF时发生panic (URI: %s): %v", uri, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", meta, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", meta, fmt.Errorf("读取PDF失败 (URI: %s): %w", uri, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", meta, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", i).Str("uri", uri).Msg("读取页面文本失败，跳过")
			continue
		}
		pages = append(pages, pageText)
	}

	text = strings.Join(pages, "\n")
	meta["page_count"] = numPages
	meta["text_length"] = len(text)
	meta["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	e.logger.Debug().Int("pages", numPages).Int("chars", len(text)).Msg("PDF提取完成")
	return text, meta, nil
}
