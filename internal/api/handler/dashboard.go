package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/internal/pkg/response"
	"github.com/qs3c/wpr_server/internal/service"
)

// DashboardHandler 看板只读接口
type DashboardHandler struct {
	dashboardService *service.DashboardService
	trendWeeks       int
	now              func() time.Time
}

func NewDashboardHandler(dashboardService *service.DashboardService, trendWeeks int) *DashboardHandler {
	if trendWeeks <= 0 {
		trendWeeks = 12
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		trendWeeks:       trendWeeks,
		now:              time.Now,
	}
}

// period 解析 ?week=&year=，缺省为当前 ISO 周
func (h *DashboardHandler) period(c *gin.Context) (int, int, error) {
	year, week := h.now().ISOWeek()

	if v := c.Query("week"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &service.ValidationError{Field: "week", Reason: "must be an integer"}
		}
		week = n
	}
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &service.ValidationError{Field: "year", Reason: "must be an integer"}
		}
		year = n
	}
	return week, year, nil
}

// Reports 某周的周报及分析，按提交人排序
// GET /api/v1/dashboard/reports?week=&year=&submitter=
func (h *DashboardHandler) Reports(c *gin.Context) {
	week, year, err := h.period(c)
	if err != nil {
		writeError(c, err)
		return
	}

	items, err := h.dashboardService.WeekReportsWithAnalysis(c.Request.Context(), week, year, c.Query("submitter"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}

// Summary 某周汇总
// GET /api/v1/dashboard/summary?week=&year=
func (h *DashboardHandler) Summary(c *gin.Context) {
	week, year, err := h.period(c)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := h.dashboardService.WeekSummary(c.Request.Context(), week, year)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, summary)
}

// Teams 团队维度汇总
// GET /api/v1/dashboard/teams?week=&year=
func (h *DashboardHandler) Teams(c *gin.Context) {
	week, year, err := h.period(c)
	if err != nil {
		writeError(c, err)
		return
	}

	teams, err := h.dashboardService.TeamSummary(c.Request.Context(), week, year)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, teams)
}

// Trend 最近若干周的生产力走势
// GET /api/v1/dashboard/trend?weeks=
func (h *DashboardHandler) Trend(c *gin.Context) {
	weeks := h.trendWeeks
	if v := c.Query("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "weeks must be an integer")
			return
		}
		weeks = n
	}

	points, err := h.dashboardService.Trend(c.Request.Context(), weeks)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, points)
}

// Missing 当周未提交的成员
// GET /api/v1/dashboard/missing?week=&year=
func (h *DashboardHandler) Missing(c *gin.Context) {
	week, year, err := h.period(c)
	if err != nil {
		writeError(c, err)
		return
	}

	missing, err := h.dashboardService.MissingSubmitters(c.Request.Context(), week, year)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, missing)
}

// ExportCSV 下载某周周报 CSV
// GET /api/v1/dashboard/export.csv?week=&year=
func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	week, year, err := h.period(c)
	if err != nil {
		writeError(c, err)
		return
	}

	data, _, err := h.dashboardService.ExportCSV(c.Request.Context(), week, year)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="wpr-%d-W%02d.csv"`, year, week))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Analysis 某份周报的 HR 分析，没有时 data 为 null
// GET /api/v1/dashboard/reports/:id/analysis
func (h *DashboardHandler) Analysis(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	analysis, found, err := h.dashboardService.AnalysisFor(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		response.SuccessWithMessage(c, "No analysis for this report", nil)
		return
	}

	response.Success(c, analysis)
}

// History 提交人最近的周报
// GET /api/v1/dashboard/submitters/:name/history?limit=
func (h *DashboardHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	reports, err := h.dashboardService.SubmitterHistory(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, reports)
}

// Page 看板页面
// GET /
func (h *DashboardHandler) Page(c *gin.Context) {
	week, year, err := h.period(c)
	submitter := c.Query("submitter")
	data := gin.H{
		"Week":      week,
		"Year":      year,
		"Submitter": submitter,
	}
	if err != nil {
		data["Error"] = pageMessage(err)
		c.HTML(http.StatusOK, "dashboard.html", data)
		return
	}

	if err := h.fillPage(c, data, week, year, submitter); err != nil {
		data["Error"] = pageMessage(err)
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (h *DashboardHandler) fillPage(c *gin.Context, data gin.H, week, year int, submitter string) error {
	ctx := c.Request.Context()

	reports, err := h.dashboardService.WeekReportsWithAnalysis(ctx, week, year, submitter)
	if err != nil {
		return err
	}
	summary, err := h.dashboardService.WeekSummary(ctx, week, year)
	if err != nil {
		return err
	}
	teams, err := h.dashboardService.TeamSummary(ctx, week, year)
	if err != nil {
		return err
	}
	missing, err := h.dashboardService.MissingSubmitters(ctx, week, year)
	if err != nil {
		return err
	}
	trend, err := h.dashboardService.Trend(ctx, h.trendWeeks)
	if err != nil {
		return err
	}

	data["Reports"] = reports
	data["Summary"] = summary
	data["Teams"] = teams
	data["Missing"] = missing
	data["Trend"] = trend
	return nil
}
