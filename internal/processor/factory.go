package processor

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"resume-analyzer-go/internal/agent"
	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/metrics"
)

// BuildChatModel 根据 llm.provider 创建聊天模型
func BuildChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	switch cfg.LLM.Provider {
	case constants.ProviderOpenAI, "":
		m, err := agent.NewOpenAICompatibleChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.APIURL,
			agent.WithRequestTimeout(cfg.LLMTimeout()))
		if err != nil {
			return nil, fmt.Errorf("初始化OpenAI兼容模型失败: %w", err)
		}
		return m, nil
	case constants.ProviderGemini:
		m, err := agent.NewGeminiChatModel(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("初始化Gemini模型失败: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("不支持的LLM提供方: %s", cfg.LLM.Provider)
	}
}

// NewAnalyzerFromConfig 组装推理客户端与分析器
func NewAnalyzerFromConfig(cfg *config.Config, chatModel model.BaseChatModel, recorder *metrics.Recorder) *ResumeAnalyzer {
	client := NewChatModelInferenceClient(chatModel,
		WithTemperature(cfg.LLM.Temperature),
		WithInferenceTimeout(cfg.LLMTimeout()),
	)
	return NewResumeAnalyzer(client,
		WithMaxWords(cfg.Analyzer.MaxWords),
		WithChunkPolicy(cfg.Analyzer.ChunkPolicy),
		WithMetrics(recorder),
	)
}
