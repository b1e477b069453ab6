package imagegen

import (
	"bytes"
	"context"

	"github.com/disintegration/imaging"

	"storymagic-api/internal/config"
	"storymagic-api/pkg/logger"
	"storymagic-api/pkg/metrics"
)

// Compressor 把插画重编码为 JPEG 以降低存储与传输体积
type Compressor struct {
	quality int
}

// NewCompressor 创建图片压缩器
func NewCompressor(cfg *config.Config) *Compressor {
	return NewCompressorWithQuality(cfg.ImageGen.CompressionQuality)
}

// NewCompressorWithQuality 以指定 JPEG 质量创建压缩器，越界时回落到 75
func NewCompressorWithQuality(quality int) *Compressor {
	if quality <= 0 || quality > 100 {
		quality = 75
	}
	return &Compressor{quality: quality}
}

// Compress 重编码图片，失败时返回原始字节
func (c *Compressor) Compress(ctx context.Context, data []byte) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn(ctx, "image decode failed, keeping original bytes", "error", err)
		return data, "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		logger.Warn(ctx, "image re-encode failed, keeping original bytes", "error", err)
		return data, "image/png"
	}

	// 压缩后反而更大时保留原图
	if buf.Len() >= len(data) {
		return data, "image/png"
	}

	metrics.ImageCompressionRatio.Observe(float64(buf.Len()) / float64(len(data)))
	return buf.Bytes(), "image/jpeg"
}
