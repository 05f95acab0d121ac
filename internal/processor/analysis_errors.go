package processor

import (
	"context"
	"errors"
	"fmt"

	"resume-analyzer-go/internal/metrics"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/tracing"
)

// 定义基础错误类型
var (
	ErrEmptyInput      = errors.New("简历文本为空，没有可分析的内容")
	ErrUpstreamService = errors.New("推理服务调用失败")
)

// AnalysisError 包含分块位置等详细信息的分析错误
type AnalysisError struct {
	Op         string // chunk, infer, validate
	ChunkIndex int    // 出错的分块序号，分块前失败时为-1
	BaseErr    error
	Detail     string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 分块:%d): %s", e.BaseErr, e.Op, e.ChunkIndex, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 分块:%d)", e.BaseErr, e.Op, e.ChunkIndex)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewEmptyInputError() error {
	return &AnalysisError{
		Op:         "chunk",
		ChunkIndex: -1,
		BaseErr:    ErrEmptyInput,
	}
}

func NewInferenceError(chunkIndex int, err error) error {
	return &AnalysisError{
		Op:         "infer",
		ChunkIndex: chunkIndex,
		BaseErr:    err,
	}
}

func NewValidationError(chunkIndex int, err error) error {
	return &AnalysisError{
		Op:         "validate",
		ChunkIndex: chunkIndex,
		BaseErr:    err,
	}
}

// wrapUpstream 把推理调用的失败统一归类为上游服务错误，保留原始原因
func wrapUpstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamService, err)
}

// outcomeOf 错误对应的指标标签
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrEmptyInput):
		return metrics.OutcomeEmptyInput
	case errors.Is(err, parser.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	case errors.Is(err, parser.ErrSchemaViolation):
		return metrics.OutcomeSchemaViolation
	case errors.Is(err, ErrUpstreamService):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeError
	}
}

// errorTypeOf 错误对应的span错误类型
func errorTypeOf(err error) tracing.ErrorType {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return tracing.ErrorTypeInput
	case errors.Is(err, parser.ErrMalformedResponse), errors.Is(err, parser.ErrSchemaViolation):
		return tracing.ErrorTypeValidation
	case errors.Is(err, context.DeadlineExceeded):
		return tracing.ErrorTypeTimeout
	case errors.Is(err, ErrUpstreamService):
		return tracing.ErrorTypeExternal
	default:
		return tracing.ErrorTypeInternal
	}
}
