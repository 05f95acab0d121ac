package types

// 简历分析结果中两个列表字段要求的固定条目数
const AnalysisListSize = 6

// 简历分析结果的分数范围
const (
	MinResumeScore = 0
	MaxResumeScore = 100
)

// AnalysisResult 简历分析结果，只能由通过校验的模型JSON输出构建
type AnalysisResult struct {
	// 简历评分 (0-100)
	ResumeScore int `json:"resume_score"`

	// 做得好的地方 (6条，一到两个词)
	ThingsDoneWell []string `json:"things_done_well"`

	// 需要改进的地方 (6条，一到两个词)
	AreasForImprovement []string `json:"areas_for_improvement"`

	// Markdown格式的完整分析: Strengths / Areas for Improvement / Additional Suggestions
	FullAnalysis string `json:"full_analysis"`

	// 分析摘要，不得提及简历主人姓名
	Summary string `json:"summary"`
}

// ChunkStats 分块统计信息，供CLI和日志使用
type ChunkStats struct {
	TotalWords int   `json:"total_words"`
	MaxWords   int   `json:"max_words"`
	ChunkCount int   `json:"chunk_count"`
	ChunkSizes []int `json:"chunk_sizes"`
}
