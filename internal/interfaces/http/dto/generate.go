// Package dto 提供 HTTP 层数据传输对象
package dto

// GenerateRawStoryRequest 直通故事生成请求（不落库），提示词由调用方整体给出
type GenerateRawStoryRequest struct {
	Prompt string `json:"prompt" binding:"required,max=8192"`
}

// GenerateImageRequest 直通插画生成请求
type GenerateImageRequest struct {
	Prompt string `json:"prompt" binding:"required,max=2048"`
}

// GenerateImageResponse 直通插画生成响应
type GenerateImageResponse struct {
	Base64           string `json:"base64"`
	NeedsCompression bool   `json:"needs_compression"`
}

// CompressImageRequest 图片压缩请求
type CompressImageRequest struct {
	Base64Image string `json:"base64_image" binding:"required"`
	Quality     int    `json:"quality" binding:"omitempty,min=1,max=100"`
}

// CompressImageResponse 图片压缩响应。
// 尺寸字段按 KB 取整，压缩比为压缩掉的百分比（保留两位小数）。
type CompressImageResponse struct {
	Base64           string  `json:"base64"`
	OriginalSize     int     `json:"original_size"`
	CompressedSize   int     `json:"compressed_size"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// CaptionResponse 图片描述响应
type CaptionResponse struct {
	Caption string `json:"caption"`
}
