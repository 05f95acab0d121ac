package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"resume-analyzer-go/internal/constants"
)

// Config 应用程序配置
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 大模型推理配置
	LLM LLMConfig `yaml:"llm"`

	// PDF文本提取配置
	PDF PDFConfig `yaml:"pdf"`

	// 简历分析配置
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 链路追踪配置
	Tracing TracingConfig `yaml:"tracing"`

	// 指标配置
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address          string `yaml:"address"`             // 例如 ":8080" or "0.0.0.0:8080"
	MaxRequestBodyMB int    `yaml:"max_request_body_mb"` // 上传请求体上限(MB)
}

// LLMConfig 定义推理服务的配置
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // openai, gemini
	APIKey         string  `yaml:"api_key"`
	APIURL         string  `yaml:"api_url"` // 仅openai兼容接口使用
	Model          string  `yaml:"model"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"` // 0 表示不设超时
}

// PDFConfig PDF提取器配置
type PDFConfig struct {
	Extractor string     `yaml:"extractor"` // eino, ledongthuc, tika
	Tika      TikaConfig `yaml:"tika"`
}

// TikaConfig Tika服务器配置结构
type TikaConfig struct {
	ServerURL string `yaml:"server_url"`      // Tika服务器URL
	Timeout   int    `yaml:"timeout_seconds"` // 超时时间(秒)
}

// AnalyzerConfig 分析流程配置
type AnalyzerConfig struct {
	MaxWords    int    `yaml:"max_words"`    // 每块最大词数
	ChunkPolicy string `yaml:"chunk_policy"` // all, first
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// TracingConfig OpenTelemetry配置
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // 例如 "localhost:4317"
	ServiceName  string `yaml:"service_name"`
}

// MetricsConfig Prometheus指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // 独立监听地址，例如 ":9091"
}

// LoadConfig 从文件加载配置，并应用环境变量覆盖和默认值
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if configPath == "" {
		configPath = findConfigFile()
	}

	config := &Config{}
	if configPath != "" {
		// 检查文件是否存在
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("配置文件不存在: %s", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

// LoadConfigFromFileOnly 从文件加载配置，不尝试从环境变量覆盖
func LoadConfigFromFileOnly(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("必须提供配置文件路径")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// findConfigFile 在常见位置查找配置文件，找不到返回空串
func findConfigFile() string {
	searchPaths := []string{
		"config.yaml",
		"../config.yaml",
		"../../config.yaml",
		filepath.Join(os.Getenv("HOME"), ".resume-analyzer", "config.yaml"),
	}

	// 可执行文件所在目录
	if execPath, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides 从环境变量覆盖配置（如果存在）
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		config.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_URL"); v != "" {
		config.LLM.APIURL = v
	}
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.Server.Address = v
	}

	provider := config.LLM.Provider
	if provider == "" {
		provider = constants.ProviderOpenAI
	}
	switch provider {
	case constants.ProviderGemini:
		if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			config.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			config.LLM.APIKey = v
		} else if v := os.Getenv("API_KEY"); v != "" && config.LLM.APIKey == "" {
			config.LLM.APIKey = v
		}
	}
}

// applyDefaults 为未设置的字段填充默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.MaxRequestBodyMB == 0 {
		config.Server.MaxRequestBodyMB = 16
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = constants.ProviderOpenAI
	}
	if config.LLM.Model == "" {
		if config.LLM.Provider == constants.ProviderGemini {
			config.LLM.Model = constants.DefaultGeminiModel
		} else {
			config.LLM.Model = constants.DefaultOpenAIModel
		}
	}
	if config.LLM.APIURL == "" && config.LLM.Provider == constants.ProviderOpenAI {
		config.LLM.APIURL = constants.DefaultOpenAIAPIURL
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = constants.DefaultTemperature
	}

	if config.PDF.Extractor == "" {
		config.PDF.Extractor = constants.ExtractorEino
	}
	if config.PDF.Tika.ServerURL == "" {
		config.PDF.Tika.ServerURL = "http://localhost:9998"
	}
	if config.PDF.Tika.Timeout == 0 {
		config.PDF.Tika.Timeout = 60
	}

	if config.Analyzer.MaxWords == 0 {
		config.Analyzer.MaxWords = constants.DefaultMaxWords
	}
	if config.Analyzer.ChunkPolicy == "" {
		config.Analyzer.ChunkPolicy = constants.ChunkPolicyAll
	}

	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Format == "" {
		config.Logger.Format = "pretty"
	}
	if config.Logger.TimeFormat == "" {
		config.Logger.TimeFormat = "2006-01-02 15:04:05"
	}

	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = "resume-analyzer"
	}
	if config.Tracing.OTLPEndpoint == "" {
		config.Tracing.OTLPEndpoint = "localhost:4317"
	}

	if config.Metrics.Address == "" {
		config.Metrics.Address = ":9091"
	}
}

// Validate 检查配置取值是否合法
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case constants.ProviderOpenAI, constants.ProviderGemini:
	default:
		return fmt.Errorf("不支持的llm.provider: %q", c.LLM.Provider)
	}

	switch c.PDF.Extractor {
	case constants.ExtractorEino, constants.ExtractorLedongthuc, constants.ExtractorTika:
	default:
		return fmt.Errorf("不支持的pdf.extractor: %q", c.PDF.Extractor)
	}

	switch c.Analyzer.ChunkPolicy {
	case constants.ChunkPolicyAll, constants.ChunkPolicyFirst:
	default:
		return fmt.Errorf("不支持的analyzer.chunk_policy: %q", c.Analyzer.ChunkPolicy)
	}

	if c.Analyzer.MaxWords <= 0 {
		return fmt.Errorf("analyzer.max_words 必须为正数, 当前值: %d", c.Analyzer.MaxWords)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature 必须在[0,2]之间, 当前值: %v", c.LLM.Temperature)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds 不能为负数")
	}
	if c.Server.MaxRequestBodyMB <= 0 {
		return fmt.Errorf("server.max_request_body_mb 必须为正数")
	}
	return nil
}

// LLMTimeout 推理调用超时，0 表示不限制
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// createDefaultConfig 创建一个默认配置
func createDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	config.Logger.ReportCaller = true
	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	// 检查文件是否已存在
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	config := createDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}

	fmt.Printf("示例配置文件已创建: %s\n", filePath)
	return nil
}
