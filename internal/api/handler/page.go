package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/service"
)

// PageHandler 提交页面（服务端渲染表单）
type PageHandler struct {
	flow          *service.SubmissionFlow
	reportService *service.ReportService
	peers         []string
	log           *logger.Logger
}

func NewPageHandler(flow *service.SubmissionFlow, reportService *service.ReportService, peers []string, log *logger.Logger) *PageHandler {
	return &PageHandler{
		flow:          flow,
		reportService: reportService,
		peers:         peers,
		log:           log,
	}
}

// Form 周报表单
// GET /
func (h *PageHandler) Form(c *gin.Context) {
	opts := h.reportService.Options()
	form := &dto.SubmitReportForm{
		WeekNumber: opts.CurrentWeek,
		Year:       opts.CurrentYear,
	}
	h.render(c, opts, form, "")
}

// Submit 表单提交，成功后展示结果页，失败时带着已填内容回到表单
// POST /
func (h *PageHandler) Submit(c *gin.Context) {
	opts := h.reportService.Options()

	var form dto.SubmitReportForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, opts, &form, "Invalid input: "+err.Error())
		return
	}

	req, err := service.ParseForm(&form)
	if err != nil {
		h.render(c, opts, &form, pageMessage(err))
		return
	}

	result, err := h.flow.Process(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("form submission rejected", "submitter", req.Submitter, "error", err)
		h.render(c, opts, &form, pageMessage(err))
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Submitter": req.Submitter,
		"Result":    result,
	})
}

func (h *PageHandler) render(c *gin.Context, opts *dto.OptionsResponse, form *dto.SubmitReportForm, errMsg string) {
	c.HTML(http.StatusOK, "submit.html", gin.H{
		"Options": opts,
		"Form":    form,
		"Peers":   h.peers,
		"Error":   errMsg,
	})
}
