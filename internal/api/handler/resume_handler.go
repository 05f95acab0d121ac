package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/tracing"
)

// 返回给调用方的错误信息，内部错误细节只写日志
const (
	MsgNoFilePart        = "No file part"
	MsgNoSelectedFile    = "No selected file"
	MsgFileTypeNotAllow  = "File type not allowed"
	MsgExtractFailed     = "Could not extract text from PDF"
	MsgNoTextProvided    = "No text provided"
	MsgInvalidJSON       = "Model did not return valid JSON"
	MsgSchemaViolation   = "Model response did not match the expected schema"
	MsgUpstreamFailed    = "Upstream inference service failed"
	MsgInternalServerErr = "Internal server error"
)

// ResumeHandler 简历分析接口，负责上传解析和错误到状态码的映射
type ResumeHandler struct {
	extractor processor.PDFExtractor
	analyzer  processor.Analyzer
}

// NewResumeHandler 创建一个新的简历分析处理器
func NewResumeHandler(extractor processor.PDFExtractor, analyzer processor.Analyzer) *ResumeHandler {
	return &ResumeHandler{
		extractor: extractor,
		analyzer:  analyzer,
	}
}

// AnalyzeTextRequest 纯文本分析请求
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

// HandleAnalyze 处理PDF上传分析请求，文件只在内存中处理
func (h *ResumeHandler) HandleAnalyze(c context.Context, ctx *app.RequestContext) {
	log := logger.FromContext(c)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		// 文件名为空的part会被当作普通表单字段
		if form, formErr := ctx.MultipartForm(); formErr == nil {
			if _, ok := form.Value["file"]; ok {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgNoSelectedFile})
				return
			}
		}
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgNoFilePart})
		return
	}
	if fileHeader.Filename == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgNoSelectedFile})
		return
	}
	// 文件名常带候选人姓名，只记录掩码后的值
	safeName := tracing.SafeAttributeValue("upload.filename", fileHeader.Filename, tracing.DefaultMaxLength)
	uploadLog := log.With().Str("upload_filename", safeName).Logger()
	log = &uploadLog
	trace.SpanFromContext(c).SetAttributes(
		attribute.String("upload.filename", safeName),
		attribute.Int64("upload.size", fileHeader.Size),
	)
	if !allowedFile(fileHeader.Filename) {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgFileTypeNotAllow})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("打开上传文件失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": MsgInternalServerErr})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("读取上传文件失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": MsgInternalServerErr})
		return
	}

	text, meta, err := h.extractor.ExtractTextFromBytes(c, data, fileHeader.Filename, map[string]any{
		"file_size": len(data),
	})
	if err != nil {
		log.Warn().Err(err).Int("file_size", len(data)).Msg("PDF文本提取失败")
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgExtractFailed})
		return
	}
	text = parser.NormalizeWhitespace(text)
	if text == "" {
		log.Warn().Interface("metadata", meta).Msg("PDF中没有可提取的文本")
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgExtractFailed})
		return
	}

	log.Info().Int("text_length", len(text)).Msg("PDF文本提取完成")
	h.analyze(c, ctx, text)
}

// HandleAnalyzeText 处理纯文本分析请求
func (h *ResumeHandler) HandleAnalyzeText(c context.Context, ctx *app.RequestContext) {
	var req AnalyzeTextRequest
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil || strings.TrimSpace(req.Text) == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": MsgNoTextProvided})
		return
	}
	h.analyze(c, ctx, req.Text)
}

// HandleHealth 健康检查
func (h *ResumeHandler) HandleHealth(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

func (h *ResumeHandler) analyze(c context.Context, ctx *app.RequestContext, text string) {
	result, err := h.analyzer.Analyze(c, text)
	if err != nil {
		status, msg := StatusForError(err)
		logger.FromContext(c).Error().Err(err).Int("status", status).Msg("简历分析失败")
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
		ctx.JSON(status, utils.H{"error": msg})
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

// StatusForError 错误类别到HTTP状态码和公开信息的映射
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, processor.ErrEmptyInput):
		return consts.StatusBadRequest, MsgNoTextProvided
	case errors.Is(err, parser.ErrMalformedResponse):
		return consts.StatusBadGateway, MsgInvalidJSON
	case errors.Is(err, parser.ErrSchemaViolation):
		return consts.StatusBadGateway, MsgSchemaViolation
	case errors.Is(err, processor.ErrUpstreamService):
		return consts.StatusBadGateway, MsgUpstreamFailed
	default:
		return consts.StatusInternalServerError, MsgInternalServerErr
	}
}

// allowedFile 扩展名不区分大小写，没有扩展名的文件不允许
func allowedFile(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return ext != "" && strings.EqualFold(ext, constants.AllowedUploadExtension)
}
