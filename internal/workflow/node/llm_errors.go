package node

import "strings"

// IsResponseFormatUnsupportedError 判断错误是否来自服务商不支持结构化输出。
// 故事与续写链首次调用会带 JSON Schema 约束，命中此类错误时降级为纯提示词重试。
// 各家服务商的报错文案不统一，只能按关键字匹配。
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "response_schema"):
		return true
	case strings.Contains(msg, "failed to parse"):
		return true
	default:
		return false
	}
}
