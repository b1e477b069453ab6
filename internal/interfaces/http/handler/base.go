package handler

import (
	"github.com/gin-gonic/gin"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/interfaces/http/dto"
	"storymagic-api/pkg/errors"
)

// respondError 根据业务错误类型写出响应。
// 配额超限返回与客户端约定的 403 载荷，AppError 按其 HTTP 状态码返回。
func respondError(c *gin.Context, err error, fallback string) {
	if qe, ok := quota.AsExceeded(err); ok {
		switch qe.Kind {
		case quota.KindContinuation:
			dto.QuotaExceeded(c, "Daily continuation limit reached", qe.Limit, qe.Used)
		default:
			dto.QuotaExceeded(c, "Daily story limit reached", qe.Limit, qe.Used)
		}
		return
	}

	if appErr, ok := err.(*errors.AppError); ok {
		dto.Error(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	dto.InternalError(c, fallback)
}
