package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// 命令行参数定义
var (
	pdfFilePath = pflag.String("pdf", "", "PDF简历文件路径 (必填)")
	maxLen      = pflag.Int("maxlen", 1000, "显示的文本最大长度，设为-1显示全部")
	maxWords    = pflag.Int("maxwords", 0, "每个分块的最大词数，0表示使用配置文件中的值")
	command     = pflag.String("cmd", "extract", "执行的命令: extract=仅提取文本, chunk=分块统计, analyze=调用模型分析")
	configPath  = pflag.StringP("config", "c", "", "配置文件路径")
	extractor   = pflag.String("extractor", "", "PDF解析器: eino, ledongthuc, tika (覆盖配置文件)")
)

func main() {
	// 解析命令行参数
	pflag.Parse()

	var err error
	switch *command {
	case "extract":
		err = handleExtractCommand()
	case "chunk":
		err = handleChunkCommand()
	case "analyze":
		err = handleAnalyzeCommand()
	default:
		fmt.Printf("错误: 未知命令 '%s'。支持的命令: extract, chunk, analyze\n", *command)
		pflag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("错误: %v\n", err)
		os.Exit(1)
	}
}
