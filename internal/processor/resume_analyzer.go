package processor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

var tracer = otel.Tracer("processor")

// ResumeAnalyzer 分块、逐块推理并校验，返回第一块的分析结果
type ResumeAnalyzer struct {
	client      InferenceClient
	maxWords    int
	chunkPolicy string
	metrics     *metrics.Recorder
	logger      *zerolog.Logger
}

// AnalyzerOption 分析器选项
type AnalyzerOption func(*ResumeAnalyzer)

// WithMaxWords 每块最大词数
func WithMaxWords(n int) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		if n > 0 {
			a.maxWords = n
		}
	}
}

// WithChunkPolicy all: 每块都推理; first: 只推理第一块
func WithChunkPolicy(policy string) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		if policy != "" {
			a.chunkPolicy = policy
		}
	}
}

// WithMetrics 注入指标记录器
func WithMetrics(r *metrics.Recorder) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		a.metrics = r
	}
}

// WithAnalyzerLogger 固定使用某个logger，不再从ctx中取
func WithAnalyzerLogger(l zerolog.Logger) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		a.logger = &l
	}
}

// NewResumeAnalyzer 创建分析器，推理客户端通过构造函数注入
func NewResumeAnalyzer(client InferenceClient, opts ...AnalyzerOption) *ResumeAnalyzer {
	a := &ResumeAnalyzer{
		client:      client,
		maxWords:    constants.DefaultMaxWords,
		chunkPolicy: constants.ChunkPolicyAll,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ResumeAnalyzer) log(ctx context.Context) *zerolog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return logger.FromContext(ctx)
}

// Analyze 对简历文本执行完整的分析流程。任一分块失败则整体失败，不返回部分结果
func (a *ResumeAnalyzer) Analyze(ctx context.Context, text string) (result *types.AnalysisResult, err error) {
	ctx, span := tracer.Start(ctx, "processor.Analyze",
		trace.WithAttributes(
			attribute.Int("analyzer.max_words", a.maxWords),
			attribute.String("analyzer.chunk_policy", a.chunkPolicy),
			attribute.Int("input.length", len(text)),
		))
	defer span.End()

	log := a.log(ctx)
	defer func() {
		a.metrics.ObserveAnalysis(outcomeOf(err))
		if err != nil {
			tracing.RecordError(span, err, errorTypeOf(err))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}()

	chunks := parser.ChunkText(text, a.maxWords)
	span.SetAttributes(attribute.Int("analyzer.chunk_count", len(chunks)))
	if len(chunks) == 0 {
		log.Warn().Msg("简历文本为空，跳过推理")
		return nil, NewEmptyInputError()
	}

	limit := len(chunks)
	if a.chunkPolicy == constants.ChunkPolicyFirst {
		limit = 1
	}

	log.Info().Int("chunks", len(chunks)).Int("to_infer", limit).Msg("开始分析简历")

	var first *types.AnalysisResult
	for i := 0; i < limit; i++ {
		res, err := a.analyzeChunk(ctx, i, chunks[i])
		if err != nil {
			log.Error().Err(err).Int("chunk_index", i).Msg("分块分析失败")
			return nil, err
		}
		if i == 0 {
			first = res
		}
	}

	discarded := limit - 1
	a.metrics.ObserveChunks(len(chunks), discarded)
	if discarded > 0 {
		log.Warn().Int("discarded_chunks", discarded).Msg("多个分块的分析结果只返回第一块，其余已丢弃")
	}
	if skipped := len(chunks) - limit; skipped > 0 {
		log.Info().Int("skipped_chunks", skipped).Msg("按first策略跳过后续分块")
	}

	log.Info().Int("resume_score", first.ResumeScore).Msg("简历分析完成")
	return first, nil
}

// analyzeChunk 对单个分块做一次推理并校验输出
func (a *ResumeAnalyzer) analyzeChunk(ctx context.Context, index int, chunk string) (*types.AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "processor.InferChunk",
		trace.WithAttributes(
			attribute.Int("chunk.index", index),
			attribute.Int("chunk.length", len(chunk)),
			attribute.Int("chunk.words", len(strings.Fields(chunk))),
		))
	defer span.End()

	start := time.Now()
	raw, err := a.client.Infer(ctx, parser.ResumeAnalysisSystemPrompt, chunk)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.ObserveInference(metrics.OutcomeUpstreamError, elapsed)
		wrapped := NewInferenceError(index, err)
		tracing.RecordError(span, wrapped, errorTypeOf(wrapped))
		return nil, wrapped
	}

	result, err := parser.ValidateResponse(raw)
	if err != nil {
		a.metrics.ObserveInference(outcomeOf(err), elapsed)
		a.log(ctx).Debug().Str("raw_output", tracing.SafeModelOutput(raw)).Msg("模型输出未通过校验")
		wrapped := NewValidationError(index, err)
		tracing.RecordError(span, wrapped, tracing.ErrorTypeValidation)
		return nil, wrapped
	}

	a.metrics.ObserveInference(metrics.OutcomeSuccess, elapsed)
	span.SetAttributes(attribute.Int("result.resume_score", result.ResumeScore))
	return result, nil
}

var _ Analyzer = (*ResumeAnalyzer)(nil)
