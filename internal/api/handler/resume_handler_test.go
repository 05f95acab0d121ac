package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"resume-analyzer-go/internal/api/handler"
	"resume-analyzer-go/internal/api/router"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/parser/parsertest"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/types"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]any, error) {
	return f.ExtractTextFromBytes(ctx, nil, filePath, nil)
}

func (f *fakeExtractor) ExtractTextFromReader(ctx context.Context, r io.Reader, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	return f.ExtractTextFromBytes(ctx, data, uri, extraMeta)
}

func (f *fakeExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, map[string]any{"source_uri": uri}, nil
}

type fakeAnalyzer struct {
	result   *types.AnalysisResult
	err      error
	received []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (*types.AnalysisResult, error) {
	f.received = append(f.received, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		ResumeScore:         85,
		ThingsDoneWell:      []string{"Experience", "Skills", "Impact", "Leadership", "Format", "Education"},
		AreasForImprovement: []string{"Metrics", "Brevity", "Keywords", "Summary", "Clarity", "Consistency"},
		FullAnalysis:        "### Strengths\n- Go",
		Summary:             "Solid backend engineer.",
	}
}

func newTestEngine(extractor processor.PDFExtractor, analyzer processor.Analyzer) *server.Hertz {
	h := server.New()
	router.RegisterRoutes(h, handler.NewResumeHandler(extractor, analyzer))
	return h
}

// newTracedEngine 每个请求包一层服务端span，用于检查handler写入的属性
func newTracedEngine(t *testing.T, extractor processor.PDFExtractor, analyzer processor.Analyzer) (*server.Hertz, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := server.New()
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		spanCtx, span := tp.Tracer("test").Start(c, "http.request")
		ctx.Next(spanCtx)
		span.End()
	})
	router.RegisterRoutes(h, handler.NewResumeHandler(extractor, analyzer))
	return h, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

// createMultipartForm 构造上传表单，fieldName为空时不写文件part
func createMultipartForm(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if fieldName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteField("note", "test"))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp["error"]
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	extractor := &fakeExtractor{text: "  Go   engineer\r\n\r\n\r\nBuilt APIs  "}
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestEngine(extractor, analyzer)

	for _, path := range []string{"/analyze", "/api/v1/resume/analyze"} {
		body, contentType := createMultipartForm(t, "file", "Resume.PDF", []byte("%PDF-1.4 fake"))
		resp := ut.PerformRequest(h.Engine, "POST", path,
			&ut.Body{Body: body, Len: body.Len()},
			ut.Header{Key: "Content-Type", Value: contentType},
		)
		require.Equal(t, http.StatusOK, resp.Code, path)

		var result types.AnalysisResult
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
		assert.Equal(t, 85, result.ResumeScore)
		assert.Len(t, result.ThingsDoneWell, 6)
		assert.NotEmpty(t, string(resp.Header().Peek("X-Request-ID")))
	}

	require.Len(t, analyzer.received, 2)
	assert.Equal(t, "Go   engineer\n\nBuilt APIs", analyzer.received[0], "提取文本需经过空白规范化")
}

func TestHandleAnalyzeBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		fileName  string
		wantMsg   string
	}{
		{name: "缺少file字段", fieldName: "", wantMsg: handler.MsgNoFilePart},
		{name: "字段名错误", fieldName: "resume", fileName: "cv.pdf", wantMsg: handler.MsgNoFilePart},
		{name: "文件名为空", fieldName: "file", fileName: "", wantMsg: handler.MsgNoSelectedFile},
		{name: "扩展名不允许", fieldName: "file", fileName: "cv.docx", wantMsg: handler.MsgFileTypeNotAllow},
		{name: "没有扩展名", fieldName: "file", fileName: "pdf", wantMsg: handler.MsgFileTypeNotAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &fakeExtractor{text: "unused"}
			analyzer := &fakeAnalyzer{result: sampleResult()}
			h := newTestEngine(extractor, analyzer)

			body, contentType := createMultipartForm(t, tt.fieldName, tt.fileName, []byte("data"))
			resp := ut.PerformRequest(h.Engine, "POST", "/analyze",
				&ut.Body{Body: body, Len: body.Len()},
				ut.Header{Key: "Content-Type", Value: contentType},
			)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.wantMsg, errorMessage(t, resp.Body.Bytes()))
			assert.Zero(t, extractor.calls)
			assert.Empty(t, analyzer.received)
		})
	}
}

func TestHandleAnalyzeExtractionFailures(t *testing.T) {
	for _, extractor := range []*fakeExtractor{
		{err: errors.New("pdf损坏")},
		{text: " \n\t  "},
	} {
		analyzer := &fakeAnalyzer{result: sampleResult()}
		h := newTestEngine(extractor, analyzer)

		body, contentType := createMultipartForm(t, "file", "cv.pdf", []byte("not a pdf"))
		resp := ut.PerformRequest(h.Engine, "POST", "/analyze",
			&ut.Body{Body: body, Len: body.Len()},
			ut.Header{Key: "Content-Type", Value: contentType},
		)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, handler.MsgExtractFailed, errorMessage(t, resp.Body.Bytes()))
		assert.Empty(t, analyzer.received)
	}
}

// TestHandleAnalyzeWithRealPDF 使用ledongthuc解析器走通上传链路
func TestHandleAnalyzeWithRealPDF(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestEngine(parser.NewLedongthucPDFExtractor(), analyzer)

	body, contentType := createMultipartForm(t, "file", "cv.pdf", parsertest.BuildPDF("Jane Doe Go Engineer"))
	resp := ut.PerformRequest(h.Engine, "POST", "/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, analyzer.received, 1)
	assert.Contains(t, analyzer.received[0], "Go Engineer")
}

func TestHandleAnalyzeText(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestEngine(&fakeExtractor{}, analyzer)

	for _, path := range []string{"/analyze/text", "/api/v1/resume/analyze-text"} {
		body := []byte(`{"text": "Experienced Go developer"}`)
		resp := ut.PerformRequest(h.Engine, "POST", path,
			&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
			ut.Header{Key: "Content-Type", Value: "application/json"},
		)
		require.Equal(t, http.StatusOK, resp.Code, path)
	}
	assert.Equal(t, []string{"Experienced Go developer", "Experienced Go developer"}, analyzer.received)

	for _, raw := range []string{`{"text": "   "}`, `{}`, `not json`, ``} {
		resp := ut.PerformRequest(h.Engine, "POST", "/analyze/text",
			&ut.Body{Body: strings.NewReader(raw), Len: len(raw)},
			ut.Header{Key: "Content-Type", Value: "application/json"},
		)
		assert.Equal(t, http.StatusBadRequest, resp.Code, raw)
		assert.Equal(t, handler.MsgNoTextProvided, errorMessage(t, resp.Body.Bytes()))
	}
}

func TestHandleAnalyzeErrorMapping(t *testing.T) {
	schemaErr := &parser.ValidationError{Kind: parser.KindSchemaViolation, Field: "resume_score"}
	_, malformedErr := parser.ParseResponse("oops")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"空输入", processor.NewEmptyInputError(), http.StatusBadRequest, handler.MsgNoTextProvided},
		{"非JSON输出", processor.NewValidationError(0, malformedErr), http.StatusBadGateway, handler.MsgInvalidJSON},
		{"结构不符", processor.NewValidationError(1, schemaErr), http.StatusBadGateway, handler.MsgSchemaViolation},
		{"上游失败", processor.NewInferenceError(0, fmt.Errorf("%w: timeout", processor.ErrUpstreamService)), http.StatusBadGateway, handler.MsgUpstreamFailed},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError, handler.MsgInternalServerErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestEngine(&fakeExtractor{}, &fakeAnalyzer{err: tt.err})
			body := []byte(`{"text": "resume"}`)
			resp := ut.PerformRequest(h.Engine, "POST", "/analyze/text",
				&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
				ut.Header{Key: "Content-Type", Value: "application/json"},
			)
			assert.Equal(t, tt.wantStatus, resp.Code)
			msg := errorMessage(t, resp.Body.Bytes())
			assert.Equal(t, tt.wantMsg, msg)
			assert.NotContains(t, msg, "boom", "内部错误细节不应返回给调用方")
		})
	}
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestEngine(&fakeExtractor{}, &fakeAnalyzer{})

	resp := ut.PerformRequest(h.Engine, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
	assert.NotEmpty(t, string(resp.Header().Peek("X-Request-ID")))

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil,
		ut.Header{Key: "X-Request-ID", Value: "req-123"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "req-123", string(resp.Header().Peek("X-Request-ID")))
}

func TestHandleAnalyzeMasksFilenameInSpan(t *testing.T) {
	h, recorder := newTracedEngine(t, &fakeExtractor{text: "Go engineer"}, &fakeAnalyzer{result: sampleResult()})

	body, contentType := createMultipartForm(t, "file", "Resume.PDF", []byte("%PDF-1.4 fake"))
	resp := ut.PerformRequest(h.Engine, "POST", "/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "Re******DF", attrs["upload.filename"])
	assert.NotContains(t, attrs, "error.type")
}

func TestHandleAnalyzeRecordsErrorStatusInSpan(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   string
		wantCategory string
	}{
		{"空输入", processor.NewEmptyInputError(), "400", "client_error"},
		{"上游失败", processor.NewInferenceError(0, fmt.Errorf("%w: timeout", processor.ErrUpstreamService)), "502", "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, recorder := newTracedEngine(t, &fakeExtractor{}, &fakeAnalyzer{err: tt.err})
			body := []byte(`{"text": "resume"}`)
			ut.PerformRequest(h.Engine, "POST", "/analyze/text",
				&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
				ut.Header{Key: "Content-Type", Value: "application/json"},
			)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			attrs := spanAttrs(spans[0])
			assert.Equal(t, "http", attrs["error.type"])
			assert.Equal(t, tt.wantStatus, attrs["http.status_code"])
			assert.Equal(t, tt.wantCategory, attrs["error.category"])
		})
	}
}
