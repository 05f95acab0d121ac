package processor

import (
	"context"
	"fmt"
	"time"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
)

// BuildPDFExtractor 统一构建PDF解析器的逻辑
// 根据 pdf.extractor 配置返回对应实现
func BuildPDFExtractor(ctx context.Context, cfg *config.Config) (PDFExtractor, error) {
	switch cfg.PDF.Extractor {
	case constants.ExtractorTika:
		if cfg.PDF.Tika.ServerURL == "" {
			return nil, fmt.Errorf("pdf.extractor为tika时必须配置pdf.tika.server_url")
		}
		logger.Info().Str("server_url", cfg.PDF.Tika.ServerURL).Msg("使用Tika PDF解析器")
		opts := []parser.TikaOption{parser.WithTikaMetadata(true)}
		if cfg.PDF.Tika.Timeout > 0 {
			opts = append(opts, parser.WithTimeout(time.Duration(cfg.PDF.Tika.Timeout)*time.Second))
		}
		return parser.NewTikaPDFExtractor(cfg.PDF.Tika.ServerURL, opts...), nil
	case constants.ExtractorLedongthuc:
		logger.Info().Msg("使用ledongthuc PDF解析器")
		return parser.NewLedongthucPDFExtractor(), nil
	case constants.ExtractorEino, "":
		logger.Info().Msg("使用Eino PDF解析器")
		extractor, err := parser.NewEinoPDFTextExtractor(ctx)
		if err != nil {
			return nil, err
		}
		return extractor, nil
	default:
		return nil, fmt.Errorf("不支持的PDF解析器类型: %s", cfg.PDF.Extractor)
	}
}
