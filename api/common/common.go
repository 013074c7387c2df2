package common

import (
	"log"
	"net/http"

	"github.com/anoixa/photo-share/internal/services"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccessMessage sends a success response with message.
func RespondSuccessMessage(c *gin.Context, message string) {
	Respond(c, http.StatusOK, "success", message, nil)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondErrorAbort sends an error response and aborts the handler chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	RespondError(c, httpStatus, message)
	c.Abort()
}

// StatusOf 业务错误类别到 HTTP 状态码的映射
func StatusOf(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation, services.KindDuplicateIdentity:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError 按业务错误类别返回，内部错误只记录日志不暴露原因
func RespondServiceError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	RespondError(c, status, services.MessageOf(err))
}
