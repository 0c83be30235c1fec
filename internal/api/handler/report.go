package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/response"
	"github.com/qs3c/wpr_server/internal/service"
)

type ReportHandler struct {
	flow          *service.SubmissionFlow
	reportService *service.ReportService
}

func NewReportHandler(flow *service.SubmissionFlow, reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		flow:          flow,
		reportService: reportService,
	}
}

// Submit 提交周报并生成分析、发送通知
// POST /api/v1/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.flow.Process(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Report submitted", result)
}

// Get 获取周报
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.reportService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, report)
}

// Regenerate 重新生成 HR 分析，覆盖已有结果
// POST /api/v1/reports/:id/analysis
func (h *ReportHandler) Regenerate(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	analysis, err := h.flow.Regenerate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Analysis generated", analysis)
}

// Options 表单可选项：团队名单、评分、建议等
// GET /api/v1/options
func (h *ReportHandler) Options(c *gin.Context) {
	response.Success(c, h.reportService.Options())
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid report id")
		return 0, false
	}
	return id, true
}
