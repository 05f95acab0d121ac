package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/cors"

	"resume-analyzer-go/internal/api/handler"
)

// RegisterRoutes 注册 API 路由
// 原有的短路径和 /api/v1 下的别名指向同一组处理函数
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler) {
	h.Use(cors.Default(), RequestID(), AccessLog())

	h.POST("/analyze", resumeHandler.HandleAnalyze)
	h.POST("/analyze/text", resumeHandler.HandleAnalyzeText)
	h.GET("/health", resumeHandler.HandleHealth)

	api := h.Group("/api/v1")
	api.POST("/resume/analyze", resumeHandler.HandleAnalyze)
	api.POST("/resume/analyze-text", resumeHandler.HandleAnalyzeText)

	// 添加健康检查
	api.GET("/health", resumeHandler.HandleHealth)
}
