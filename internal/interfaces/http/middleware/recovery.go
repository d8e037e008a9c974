package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"promo-script-ai-api/internal/interfaces/http/dto"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
)

// Recovery 捕获 handler 中的 panic，记录堆栈并返回统一的 500 响应。
// http.ErrAbortHandler 表示客户端已断开，继续上抛交给 net/http 处理
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.Error(c.Request.Context(), "panic recovered", fmt.Errorf("%v", rec),
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.ErrorWithDetail(c, http.StatusInternalServerError, "internal server error",
				&dto.ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)})
			c.Abort()
		}()

		c.Next()
	}
}
