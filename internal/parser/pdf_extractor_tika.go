package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
)

// TikaPDFExtractor 是基于Apache Tika服务器的PDF解析器
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否额外请求 /meta 获取元数据
	extractMetadata bool
	logger          zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithTikaMetadata 配置是否提取关键元数据
func WithTikaMetadata(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractMetadata = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.logger = l
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.Client.Timeout = timeout
	}
}

// NewTikaPDFExtractor 创建一个新的Tika PDF解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	extractor := &TikaPDFExtractor{
		ServerURL: strings.TrimRight(serverURL, "/"),
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.Logger.With().Str("component", "tika_pdf").Logger(),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// ExtractFromFile 从本地PDF文件提取文本
func (e *TikaPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]any, error) {
	return extractFromFile(ctx, filePath, e.ExtractTextFromBytes)
}

// ExtractTextFromReader 从io.Reader提取文本内容
func (e *TikaPDFExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取PDF内容失败: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, extraMeta)
}

// ExtractTextFromBytes 从字节数组提取文本内容
func (e *TikaPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	startTime := time.Now()
	meta := baseMetadata(uri, extraMeta)

	body, err := e.put(ctx, "/tika", "text/plain", data, uri)
	if err != nil {
		return "", meta, err
	}
	text := string(body)

	meta["text_length"] = len(text)
	meta["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	if e.extractMetadata {
		raw, err := e.fetchMetadata(ctx, data, uri)
		if err != nil {
			e.logger.Warn().Err(err).Str("uri", uri).Msg("元数据提取失败, 继续使用基本元数据")
		} else {
			for k, v := range raw {
				if isImportantMetadata(k) {
					meta[k] = v
				}
			}
		}
	}

	e.logger.Debug().Int("chars", len(text)).Dur("duration", time.Since(startTime)).Msg("Tika提取完成")
	return text, meta, nil
}

// put 向Tika发送PUT请求并返回响应体
func (e *TikaPDFExtractor) put(ctx context.Context, path, accept string, data []byte, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", accept)
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}

// fetchMetadata 提取文档元数据
func (e *TikaPDFExtractor) fetchMetadata(ctx context.Context, data []byte, uri string) (map[string]any, error) {
	body, err := e.put(ctx, "/meta", "application/json", data, uri)
	if err != nil {
		return nil, err
	}
	var metadata map[string]any
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	switch key {
	case "pdf:PDFVersion", "xmpTPg:NPages", "dcterms:created", "language",
		"dc:title", "Content-Type", "pdf:docinfo:title", "pdf:docinfo:created":
		return true
	}
	return false
}
