package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/gofrs/uuid/v5"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
)

// RequestID 为每个请求生成UUIDv7，写回响应头并挂到请求范围的logger上
// 调用方传入的X-Request-ID会被沿用
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		requestID := string(ctx.GetHeader(constants.RequestIDHeader))
		if requestID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				logger.Warn().Err(err).Msg("生成请求ID失败")
			} else {
				requestID = id.String()
			}
		}

		if requestID != "" {
			ctx.Response.Header.Set(constants.RequestIDHeader, requestID)
			c = logger.WithFields(c, map[string]any{"request_id": requestID})
		}
		ctx.Next(c)
	}
}

// AccessLog 记录方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s status=%d latency=%s request_id=%s",
			ctx.Method(), ctx.Request.URI().Path(), ctx.Response.StatusCode(),
			time.Since(start), ctx.Response.Header.Peek(constants.RequestIDHeader))
	}
}
