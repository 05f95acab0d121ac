package parser

import (
	"strings"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/types"
)

// ChunkText 按空白切分单词，每maxWords个单词拼成一块，块内以单个空格连接。
// 空文本或纯空白文本返回nil；maxWords<=0时使用默认值。
func ChunkText(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = constants.DefaultMaxWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ComputeChunkStats 统计文本的分块情况
func ComputeChunkStats(text string, maxWords int) types.ChunkStats {
	if maxWords <= 0 {
		maxWords = constants.DefaultMaxWords
	}
	chunks := ChunkText(text, maxWords)

	stats := types.ChunkStats{
		MaxWords:   maxWords,
		ChunkCount: len(chunks),
		ChunkSizes: make([]int, 0, len(chunks)),
	}
	for _, c := range chunks {
		n := len(strings.Fields(c))
		stats.TotalWords += n
		stats.ChunkSizes = append(stats.ChunkSizes, n)
	}
	return stats
}

// NormalizeWhitespace 统一换行符，去掉行尾空白并压缩连续空行
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\f\v")
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
