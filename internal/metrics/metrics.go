// Package metrics 定义分析流程的Prometheus指标，并提供独立的/metrics监听
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-analyzer-go/internal/logger"
)

const namespace = "resume_analyzer"

// 分析结果标签值
const (
	OutcomeSuccess         = "success"
	OutcomeEmptyInput      = "empty_input"
	OutcomeMalformed       = "malformed_response"
	OutcomeSchemaViolation = "schema_violation"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeError           = "error"
)

// Recorder 分析流程使用的指标集合
type Recorder struct {
	registry          *prometheus.Registry
	analyses          *prometheus.CounterVec
	inferenceCalls    *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	chunksPerAnalysis prometheus.Histogram
	discardedChunks   prometheus.Counter
}

// NewRecorder 创建指标并注册到独立的registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Resume analyses by outcome.",
		}, []string{"outcome"}),
		inferenceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_calls_total",
			Help:      "Remote inference calls by outcome.",
		}, []string{"outcome"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Latency of a single remote inference call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		chunksPerAnalysis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunks_per_analysis",
			Help:      "Number of chunks produced per analysis request.",
			Buckets:   []float64{1, 2, 3, 5, 8},
		}),
		discardedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_chunk_results_total",
			Help:      "Validated chunk results that were not returned to the caller.",
		}),
	}

	r.registry.MustRegister(
		r.analyses,
		r.inferenceCalls,
		r.inferenceDuration,
		r.chunksPerAnalysis,
		r.discardedChunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveAnalysis 记录一次分析的结果
func (r *Recorder) ObserveAnalysis(outcome string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(outcome).Inc()
}

// ObserveInference 记录一次推理调用
func (r *Recorder) ObserveInference(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.inferenceCalls.WithLabelValues(outcome).Inc()
	r.inferenceDuration.Observe(elapsed.Seconds())
}

// ObserveChunks 记录分块数以及被丢弃的分块结果数
func (r *Recorder) ObserveChunks(total, discarded int) {
	if r == nil {
		return
	}
	r.chunksPerAnalysis.Observe(float64(total))
	if discarded > 0 {
		r.discardedChunks.Add(float64(discarded))
	}
}

// Handler 返回 /metrics 的 http.Handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Server 独立的指标监听
type Server struct {
	srv *http.Server
}

// StartServer 在后台启动指标服务
func StartServer(addr string, r *Recorder) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("address", addr).Msg("指标服务异常退出")
		}
	}()
	logger.Info().Str("address", addr).Msg("指标服务已启动")
	return &Server{srv: srv}
}

// Shutdown 关闭指标服务
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭指标服务失败: %w", err)
	}
	return nil
}

// AnalysesCounter 返回某个结果标签对应的计数器
func (r *Recorder) AnalysesCounter(outcome string) prometheus.Counter {
	return r.analyses.WithLabelValues(outcome)
}
