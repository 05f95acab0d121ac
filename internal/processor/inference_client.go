package processor

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/components/model"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/parser"
)

// ChatModelInferenceClient 基于eino ChatModel的推理客户端，不做重试也不校验JSON
type ChatModelInferenceClient struct {
	chatModel   model.BaseChatModel
	temperature float32
	timeout     time.Duration
}

// InferenceOption 推理客户端选项
type InferenceOption func(*ChatModelInferenceClient)

// WithTemperature 设置采样温度
func WithTemperature(t float32) InferenceOption {
	return func(c *ChatModelInferenceClient) {
		c.temperature = t
	}
}

// WithInferenceTimeout 单次调用超时，0表示沿用调用方的ctx
func WithInferenceTimeout(d time.Duration) InferenceOption {
	return func(c *ChatModelInferenceClient) {
		c.timeout = d
	}
}

// NewChatModelInferenceClient 创建推理客户端
func NewChatModelInferenceClient(chatModel model.BaseChatModel, opts ...InferenceOption) *ChatModelInferenceClient {
	c := &ChatModelInferenceClient{
		chatModel:   chatModel,
		temperature: constants.DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Infer 发送系统指令和分块内容，返回模型回复的原始文本
func (c *ChatModelInferenceClient) Infer(ctx context.Context, systemInstruction, chunkContent string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.chatModel.Generate(ctx, parser.BuildMessages(systemInstruction, chunkContent), model.WithTemperature(c.temperature))
	if err != nil {
		return "", wrapUpstream(err)
	}
	if resp == nil {
		return "", wrapUpstream(errors.New("模型返回了空消息"))
	}
	return resp.Content, nil
}

var _ InferenceClient = (*ChatModelInferenceClient)(nil)
