package parser

import (
	"github.com/cloudwego/eino/schema"
)

// ResumeAnalysisSystemPrompt 简历分析的系统指令，对所有分块和请求保持不变
const ResumeAnalysisSystemPrompt = "You are an expert career coach and resume evaluator. " +
	"Analyze the provided resume and return a structured JSON response with the following keys:\n" +
	"- `resume_score` (integer from 0-100)\n" +
	"- `things_done_well` (list of exactly 6 one to two word bullet points (e.g. Experience Level))\n" +
	"- `areas_for_improvement` (list of exactly 6 one to two word bullet points (e.g. Clarity))\n" +
	"- `full_analysis` (detailed Markdown breakdown with strengths, weaknesses, and actionable suggestions. " +
	"Add any extra insights outside of the 6 listed points.)\n" +
	"- `summary` (summary of the analysis. Do not refer to the resume owner by name)\n" +
	"Ensure the response is a single valid JSON object with no extra text before or after the JSON object.\n" +
	"Do not include a header in the full_analysis.\n\n" +
	"### Formatting Instructions:\n" +
	"1. The `full_analysis` section should be formatted using Markdown.\n" +
	"2. **Use '### Strengths', '### Areas for Improvement', and '### Additional Suggestions' as section headers, in that order.**\n" +
	"3. Add a blank line (`\\n\\n`) between each section for readability.\n"

// BuildAnalysisMessages 构造一次推理调用的消息列表：系统指令 + 分块内容
func BuildAnalysisMessages(chunk string) []*schema.Message {
	return BuildMessages(ResumeAnalysisSystemPrompt, chunk)
}

// BuildMessages 两段式消息：system + user
func BuildMessages(systemInstruction, content string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(systemInstruction),
		schema.UserMessage(content),
	}
}
