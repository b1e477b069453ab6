package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/infrastructure/imagegen"
)

func newCompressTestRouter(comp *imagegen.Compressor) *gin.Engine {
	h := NewGenerateHandler(nil, nil, nil, comp)

	r := gin.New()
	r.POST("/v1/generate/compress-image", h.Compress)
	return r
}

// 大尺寸带噪点的 PNG，保证 JPEG 重编码确实更小
func noisyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * y), G: uint8(x ^ y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func postCompress(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate/compress-image", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCompressImageReportsKilobytes(t *testing.T) {
	original := noisyPNG(t)
	r := newCompressTestRouter(imagegen.NewCompressorWithQuality(75))

	reqBody, err := json.Marshal(map[string]string{
		"base64_image": base64.StdEncoding.EncodeToString(original),
	})
	require.NoError(t, err)

	w := postCompress(r, string(reqBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Base64           string  `json:"base64"`
			OriginalSize     int     `json:"original_size"`
			CompressedSize   int     `json:"compressed_size"`
			CompressionRatio float64 `json:"compression_ratio"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	compressed, err := base64.StdEncoding.DecodeString(body.Data.Base64)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(original))

	// 尺寸按 KB 取整，而不是原始字节数
	assert.Equal(t, int(math.Round(float64(len(original))/1024)), body.Data.OriginalSize)
	assert.Equal(t, int(math.Round(float64(len(compressed))/1024)), body.Data.CompressedSize)
	assert.Less(t, body.Data.OriginalSize, len(original))

	// 压缩比为压缩掉的百分比，保留两位小数
	wantRatio := math.Round((1-float64(len(compressed))/float64(len(original)))*100*100) / 100
	assert.InDelta(t, wantRatio, body.Data.CompressionRatio, 0.001)
	assert.Greater(t, body.Data.CompressionRatio, 0.0)
	assert.LessOrEqual(t, body.Data.CompressionRatio, 100.0)
}

func TestCompressImageUncompressibleInput(t *testing.T) {
	// 无法解码的输入原样返回，压缩比为 0
	r := newCompressTestRouter(imagegen.NewCompressorWithQuality(75))
	original := []byte("definitely not an image")

	reqBody, err := json.Marshal(map[string]string{
		"base64_image": base64.StdEncoding.EncodeToString(original),
	})
	require.NoError(t, err)

	w := postCompress(r, string(reqBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Base64           string  `json:"base64"`
			CompressionRatio float64 `json:"compression_ratio"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, base64.StdEncoding.EncodeToString(original), body.Data.Base64)
	assert.Equal(t, 0.0, body.Data.CompressionRatio)
}

func TestCompressImageRejectsInvalidBase64(t *testing.T) {
	r := newCompressTestRouter(imagegen.NewCompressorWithQuality(75))

	w := postCompress(r, `{"base64_image":"not-base64!!!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
