package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess             = 0
	CodeParamError          = 1000
	CodeAuthFailed          = 1001
	CodeResourceNotFound    = 1003
	CodeAnalysisParseError  = 1006
	CodeDeliveryError       = 1007
	CodeAnalysisUnavailable = 1008
	CodeGenerationError     = 1009
	CodeServerError         = 5000
	CodeStoreError          = 5001
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeParamError:          "Invalid input",
	CodeAuthFailed:          "Authentication required",
	CodeResourceNotFound:    "Record not found",
	CodeAnalysisParseError:  "The AI analysis could not be read, please try again later",
	CodeDeliveryError:       "The email summary could not be delivered",
	CodeAnalysisUnavailable: "AI analysis is not configured on this server",
	CodeGenerationError:     "The AI analysis service could not be reached, please try again later",
	CodeServerError:         "Internal server error",
	CodeStoreError:          "The report store is unavailable, please try again later",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// MessageFor 错误码的默认消息，页面渲染时也用它
func MessageFor(code int) string {
	return codeMessages[code]
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// AnalysisParseError 模型输出无法解析
func AnalysisParseError(c *gin.Context, message string) {
	Error(c, CodeAnalysisParseError, message)
}

// AnalysisUnavailableError 未配置模型
func AnalysisUnavailableError(c *gin.Context, message string) {
	Error(c, CodeAnalysisUnavailable, message)
}

// GenerationError 模型调用失败
func GenerationError(c *gin.Context, message string) {
	Error(c, CodeGenerationError, message)
}

// DeliveryError 邮件发送失败
func DeliveryError(c *gin.Context, message string) {
	Error(c, CodeDeliveryError, message)
}

// StoreError 存储不可用
func StoreError(c *gin.Context, message string) {
	Error(c, CodeStoreError, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
