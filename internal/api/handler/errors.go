package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/internal/pkg/response"
	"github.com/qs3c/wpr_server/internal/service"
)

// errorCode 把 service 层错误映射为响应码和面向用户的消息
func errorCode(err error) (int, string) {
	var ve *service.ValidationError
	var nf *service.NotFoundError

	switch {
	case errors.As(err, &ve):
		return response.CodeParamError, "Invalid input: " + ve.Error()
	case errors.As(err, &nf):
		return response.CodeResourceNotFound, nf.Error()
	case errors.Is(err, service.ErrAnalysisParse):
		return response.CodeAnalysisParseError, ""
	case errors.Is(err, service.ErrGeneration):
		return response.CodeGenerationError, ""
	case errors.Is(err, service.ErrAnalysisUnavailable):
		return response.CodeAnalysisUnavailable, ""
	case errors.Is(err, service.ErrDelivery):
		return response.CodeDeliveryError, ""
	case errors.Is(err, service.ErrStore):
		return response.CodeStoreError, ""
	default:
		return response.CodeServerError, ""
	}
}

func writeError(c *gin.Context, err error) {
	code, message := errorCode(err)
	switch code {
	case response.CodeParamError:
		response.ParamError(c, message)
	case response.CodeResourceNotFound:
		response.NotFoundError(c, message)
	case response.CodeAnalysisParseError:
		response.AnalysisParseError(c, message)
	case response.CodeGenerationError:
		response.GenerationError(c, message)
	case response.CodeAnalysisUnavailable:
		response.AnalysisUnavailableError(c, message)
	case response.CodeDeliveryError:
		response.DeliveryError(c, message)
	case response.CodeStoreError:
		response.StoreError(c, message)
	default:
		response.ServerError(c, message)
	}
}

// pageMessage 页面上展示的错误提示
func pageMessage(err error) string {
	code, message := errorCode(err)
	if message == "" {
		message = response.MessageFor(code)
	}
	return message
}
