package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"resume-analyzer-go/internal/types"
)

// ValidationKind 模型输出校验失败的类别
type ValidationKind string

const (
	// KindMalformedResponse 输出不是单个JSON对象
	KindMalformedResponse ValidationKind = "malformed_response"
	// KindSchemaViolation 是JSON对象但不符合分析结果的结构约束
	KindSchemaViolation ValidationKind = "schema_violation"
)

var (
	ErrMalformedResponse = errors.New("模型未返回合法的JSON对象")
	ErrSchemaViolation   = errors.New("模型返回的JSON不符合分析结果结构")
)

// ValidationError 模型输出校验错误
type ValidationError struct {
	Kind   ValidationKind
	Field  string // 出错字段，格式错误时为空
	Detail string
	Err    error // 底层错误，例如 encoding/json 的语法错误
}

func (e *ValidationError) Error() string {
	base := ErrSchemaViolation
	if e.Kind == KindMalformedResponse {
		base = ErrMalformedResponse
	}
	msg := base.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s (字段:%s)", msg, e.Field)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 能按类别匹配 ErrMalformedResponse / ErrSchemaViolation
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	case ErrSchemaViolation:
		return e.Kind == KindSchemaViolation
	}
	return false
}

// ParseResponse 把模型的原始回复解析为JSON对象，不检查字段
func ParseResponse(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, &ValidationError{Kind: KindMalformedResponse, Detail: err.Error(), Err: err}
	}
	if obj == nil {
		return nil, &ValidationError{Kind: KindMalformedResponse, Detail: "回复为null"}
	}
	return obj, nil
}

// ValidateResponse 解析并校验模型回复，全部约束满足时才构建AnalysisResult
func ValidateResponse(raw string) (*types.AnalysisResult, error) {
	obj, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	score, err := scoreField(obj, "resume_score")
	if err != nil {
		return nil, err
	}
	doneWell, err := listField(obj, "things_done_well")
	if err != nil {
		return nil, err
	}
	improvements, err := listField(obj, "areas_for_improvement")
	if err != nil {
		return nil, err
	}
	fullAnalysis, err := textField(obj, "full_analysis")
	if err != nil {
		return nil, err
	}
	summary, err := textField(obj, "summary")
	if err != nil {
		return nil, err
	}

	return &types.AnalysisResult{
		ResumeScore:         score,
		ThingsDoneWell:      doneWell,
		AreasForImprovement: improvements,
		FullAnalysis:        fullAnalysis,
		Summary:             summary,
	}, nil
}

func schemaError(field, detail string) error {
	return &ValidationError{Kind: KindSchemaViolation, Field: field, Detail: detail}
}

func scoreField(obj map[string]any, key string) (int, error) {
	v, ok := obj[key]
	if !ok {
		return 0, schemaError(key, "缺少字段")
	}
	f, ok := v.(float64)
	if !ok {
		return 0, schemaError(key, fmt.Sprintf("应为整数, 实际为%T", v))
	}
	if f != math.Trunc(f) {
		return 0, schemaError(key, fmt.Sprintf("应为整数, 实际为%v", f))
	}
	if f < types.MinResumeScore || f > types.MaxResumeScore {
		return 0, schemaError(key, fmt.Sprintf("超出范围[%d,%d]: %v", types.MinResumeScore, types.MaxResumeScore, f))
	}
	return int(f), nil
}

func listField(obj map[string]any, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok {
		return nil, schemaError(key, "缺少字段")
	}
	items, ok := v.([]any)
	if !ok {
		return nil, schemaError(key, fmt.Sprintf("应为字符串数组, 实际为%T", v))
	}
	if len(items) != types.AnalysisListSize {
		return nil, schemaError(key, fmt.Sprintf("应有%d项, 实际%d项", types.AnalysisListSize, len(items)))
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, schemaError(key, fmt.Sprintf("第%d项应为字符串, 实际为%T", i, item))
		}
		if strings.TrimSpace(s) == "" {
			return nil, schemaError(key, fmt.Sprintf("第%d项为空", i))
		}
		out = append(out, s)
	}
	return out, nil
}

func textField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", schemaError(key, "缺少字段")
	}
	s, ok := v.(string)
	if !ok {
		return "", schemaError(key, fmt.Sprintf("应为字符串, 实际为%T", v))
	}
	if strings.TrimSpace(s) == "" {
		return "", schemaError(key, "内容为空")
	}
	return s, nil
}
