package tracing

import "strings"

// span属性和日志里允许出现的最大长度
const (
	DefaultMaxLength     = 200
	MaxModelOutputLength = 500
)

// 属性名包含这些片段时，值按个人信息处理
var sensitiveKeyParts = []string{"filename", "email", "phone", "name", "address", "api_key", "token", "secret"}

// SafeAttributeValue 按属性名决定掩码还是截断
func SafeAttributeValue(key, value string, maxLength int) string {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 只保留首尾少量字符，例如 "resume_2024.pdf" -> "re***********df"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	}

	keep := 2
	if n <= 4 {
		keep = 1
	}
	return string(runes[:keep]) + strings.Repeat("*", n-2*keep) + string(runes[n-keep:])
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	keep := max((maxLength-3)/2, 1)
	return string(runes[:keep]) + "..." + string(runes[len(runes)-keep:])
}

// SafeModelOutput 模型原始输出只记录截断后的版本
func SafeModelOutput(output string) string {
	return TruncateString(output, MaxModelOutputLength)
}
