package constants

const (
	// DefaultMaxWords 每个分块的默认最大词数
	DefaultMaxWords = 4096

	// DefaultTemperature 推理调用的默认采样温度，偏向确定性的JSON输出
	DefaultTemperature float32 = 0.2

	// ChunkPolicyAll 逐块调用模型，返回第一块的结果
	ChunkPolicyAll = "all"
	// ChunkPolicyFirst 只对第一块调用模型
	ChunkPolicyFirst = "first"

	// ProviderOpenAI OpenAI兼容的chat completions接口
	ProviderOpenAI = "openai"
	// ProviderGemini Google Gemini (genai SDK)
	ProviderGemini = "gemini"

	DefaultOpenAIModel  = "gpt-3.5-turbo"
	DefaultOpenAIAPIURL = "https://api.openai.com/v1"
	DefaultGeminiModel  = "gemini-2.5-flash"

	// PDF解析器类型
	ExtractorEino       = "eino"
	ExtractorLedongthuc = "ledongthuc"
	ExtractorTika       = "tika"

	// AllowedUploadExtension 允许上传的文件扩展名
	AllowedUploadExtension = "pdf"

	// RequestIDHeader 请求ID响应头
	RequestIDHeader = "X-Request-ID"
)
