package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

// GeminiChatModel 通过 Google GenAI SDK 调用 Gemini，输出限定为JSON
type GeminiChatModel struct {
	client    *genai.Client
	modelName string
	logger    zerolog.Logger
}

// GeminiOption 配置选项
type GeminiOption func(*genai.ClientConfig)

// WithGeminiBaseURL 覆盖API地址，测试或代理时使用
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// NewGeminiChatModel 创建Gemini客户端
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string, opts ...GeminiOption) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = constants.DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建GenAI客户端失败: %w", err)
	}

	l := logger.Logger.With().Str("component", "gemini_chat_model").Logger()
	l.Info().Str("model", modelName).Msg("使用Gemini LLM客户端")
	return &GeminiChatModel{client: client, modelName: modelName, logger: l}, nil
}

// toGeminiContents 把eino消息拆成系统指令和对话内容
func toGeminiContents(messages []*schema.Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case schema.System:
			systemParts = append(systemParts, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if len(systemParts) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser), contents
}

// Generate 实现 model.BaseChatModel 接口
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	system, contents := toGeminiContents(messages)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       options.Temperature,
		ResponseMIMEType:  "application/json",
	}
	if options.MaxTokens != nil {
		config.MaxOutputTokens = int32(*options.MaxTokens)
	}

	modelName := g.modelName
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini GenerateContent 失败: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("从 Gemini 收到空候选")
	}

	text := resp.Text()
	g.logger.Debug().Str("content", tracing.SafeModelOutput(text)).Msg("收到推理响应")
	return schema.AssistantMessage(text, nil), nil
}

// Stream 以单帧流的形式返回Generate的结果
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)
