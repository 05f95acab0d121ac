package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/agent"
	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/parser"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.Temperature = 0.2
	cfg.PDF.Extractor = "ledongthuc"
	cfg.Analyzer.MaxWords = 4096
	cfg.Analyzer.ChunkPolicy = "all"
	return cfg
}

func TestBuildPDFExtractor(t *testing.T) {
	ctx := context.Background()
	cfg := defaultConfig(t)

	extractor, err := BuildPDFExtractor(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &parser.LedongthucPDFExtractor{}, extractor)

	cfg.PDF.Extractor = "tika"
	cfg.PDF.Tika.ServerURL = "http://localhost:9998"
	extractor, err = BuildPDFExtractor(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &parser.TikaPDFExtractor{}, extractor)

	cfg.PDF.Tika.ServerURL = ""
	_, err = BuildPDFExtractor(ctx, cfg)
	assert.Error(t, err)

	cfg.PDF.Extractor = "eino"
	extractor, err = BuildPDFExtractor(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &parser.EinoPDFTextExtractor{}, extractor)

	cfg.PDF.Extractor = "ocr"
	_, err = BuildPDFExtractor(ctx, cfg)
	assert.Error(t, err)
}

func TestBuildChatModel(t *testing.T) {
	cfg := defaultConfig(t)

	m, err := BuildChatModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &agent.OpenAICompatibleChatModel{}, m)

	cfg.LLM.APIKey = ""
	m, err = BuildChatModel(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, m)

	cfg.LLM.Provider = "unknown"
	_, err = BuildChatModel(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewAnalyzerFromConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Analyzer.MaxWords = 100
	cfg.Analyzer.ChunkPolicy = "first"

	a := NewAnalyzerFromConfig(cfg, agent.NewMockChatClient("{}", nil), nil)
	assert.Equal(t, 100, a.maxWords)
	assert.Equal(t, "first", a.chunkPolicy)
}
