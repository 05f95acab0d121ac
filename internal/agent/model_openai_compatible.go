package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

// APIError 推理服务返回非2xx状态
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API 请求失败，状态 %d: %s", e.StatusCode, tracing.SafeModelOutput(e.Body))
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// OpenAICompatibleChatModel 调用 OpenAI 兼容的 chat completions 接口，要求模型返回JSON对象
type OpenAICompatibleChatModel struct {
	client     openai.Client
	modelName  string
	baseURL    string
	httpClient *http.Client
	jsonMode   bool
	logger     zerolog.Logger
}

// OpenAIOption 配置选项
type OpenAIOption func(*OpenAICompatibleChatModel)

// WithHTTPClient 使用自定义HTTP客户端
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(m *OpenAICompatibleChatModel) {
		m.httpClient = client
	}
}

// WithRequestTimeout 设置单次请求超时，0表示不限制
func WithRequestTimeout(timeout time.Duration) OpenAIOption {
	return func(m *OpenAICompatibleChatModel) {
		m.httpClient.Timeout = timeout
	}
}

// WithJSONMode 是否在请求中设置 response_format=json_object，默认开启
func WithJSONMode(enabled bool) OpenAIOption {
	return func(m *OpenAICompatibleChatModel) {
		m.jsonMode = enabled
	}
}

// WithModelLogger 配置日志记录器
func WithModelLogger(l zerolog.Logger) OpenAIOption {
	return func(m *OpenAICompatibleChatModel) {
		m.logger = l
	}
}

// baseURLOf 兼容旧配置里写完整 chat/completions 地址的情况
func baseURLOf(apiURL string) string {
	apiURL = strings.TrimSpace(apiURL)
	if apiURL == "" {
		return constants.DefaultOpenAIAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")
	return strings.TrimSuffix(apiURL, "/chat/completions")
}

// NewOpenAICompatibleChatModel 创建一个新的 OpenAICompatibleChatModel 实例，apiURL 为接口根地址
func NewOpenAICompatibleChatModel(apiKey, modelName, apiURL string, opts ...OpenAIOption) (*OpenAICompatibleChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	if strings.TrimSpace(modelName) == "" {
		modelName = constants.DefaultOpenAIModel
	}

	m := &OpenAICompatibleChatModel{
		modelName:  modelName,
		baseURL:    baseURLOf(apiURL),
		httpClient: &http.Client{},
		jsonMode:   true,
		logger:     logger.Logger.With().Str("component", "openai_chat_model").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	// 失败直接交给上层，不在客户端内部重试
	m.client = openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(m.baseURL),
		option.WithHTTPClient(m.httpClient),
		option.WithMaxRetries(0),
	)

	m.logger.Info().Str("base_url", m.baseURL).Str("model", m.modelName).Msg("使用OpenAI兼容LLM客户端")
	return m, nil
}

func toOpenAIMessages(messages []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// Generate 实现 model.BaseChatModel 接口
func (m *OpenAICompatibleChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	modelName := m.modelName
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelName),
		Messages: toOpenAIMessages(messages),
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}
	if options.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}
	if m.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	m.logger.Debug().Str("model", modelName).Int("messages", len(messages)).Msg("发送推理请求")

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var sdkErr *openai.Error
		if errors.As(err, &sdkErr) {
			body := sdkErr.Message
			if body == "" {
				body = sdkErr.Error()
			}
			return nil, &APIError{StatusCode: sdkErr.StatusCode, Body: body, Err: sdkErr}
		}
		return nil, fmt.Errorf("调用 chat completions 接口失败: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项")
	}

	choice := completion.Choices[0]
	result := schema.AssistantMessage(choice.Message.Content, nil)
	result.ResponseMeta = &schema.ResponseMeta{
		FinishReason: choice.FinishReason,
		Usage: &schema.TokenUsage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	m.logger.Debug().
		Str("finish_reason", choice.FinishReason).
		Str("content", tracing.SafeModelOutput(choice.Message.Content)).
		Msg("收到推理响应")
	return result, nil
}

// Stream 以单帧流的形式返回Generate的结果
func (m *OpenAICompatibleChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// ModelName 当前使用的模型
func (m *OpenAICompatibleChatModel) ModelName() string {
	return m.modelName
}

var _ model.BaseChatModel = (*OpenAICompatibleChatModel)(nil)
