package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/wpr_server/internal/pkg/response"
	"github.com/qs3c/wpr_server/internal/service"
	"github.com/qs3c/wpr_server/internal/testutil"
)

func setupReportHandler(t *testing.T) (*ReportHandler, *testContext) {
	t.Helper()
	ctx := setupContext(t)
	return NewReportHandler(ctx.Flow, ctx.Reports), ctx
}

func reportRouter(h *ReportHandler) *gin.Engine {
	router := gin.New()
	router.POST("/reports", h.Submit)
	router.GET("/reports/:id", h.Get)
	router.POST("/reports/:id/analysis", h.Regenerate)
	router.GET("/options", h.Options)
	return router
}

func TestReportHandler_Submit_Success(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	router := reportRouter(handler)

	req := currentRequest("alice")
	req.Email = "alice@example.com"

	w := performRequest(router, "POST", "/reports", req)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotZero(t, data["report_id"])
	assert.Equal(t, service.AnalysisGenerated, data["analysis_status"])
	assert.Equal(t, service.NotificationSent, data["notification_status"])
	assert.Equal(t, []string{"alice@example.com", "hr@example.com"}, ctx.Mailer.to)
	assert.Equal(t, int64(1), testutil.CountRows(t, ctx.DB, "weekly_reports"))
}

func TestReportHandler_Submit_ResubmitReplaces(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	router := reportRouter(handler)

	req := currentRequest("alice")
	w := performRequest(router, "POST", "/reports", req)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	req.ProductivityRating = "1 - Not Productive"
	w = performRequest(router, "POST", "/reports", req)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	assert.Equal(t, int64(1), testutil.CountRows(t, ctx.DB, "weekly_reports"))
}

func TestReportHandler_Submit_ValidationError(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	router := reportRouter(handler)

	req := currentRequest("alice")
	req.WeekNumber = 54

	w := performRequest(router, "POST", "/reports", req)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Contains(t, resp.Message, "week_number")
	assert.Equal(t, int64(0), testutil.CountRows(t, ctx.DB, "weekly_reports"))
}

func TestReportHandler_Submit_UnknownRating(t *testing.T) {
	handler, _ := setupReportHandler(t)
	router := reportRouter(handler)

	req := currentRequest("alice")
	req.ProductivityRating = "5 - Superhuman"

	resp := parseResponse(t, performRequest(router, "POST", "/reports", req))
	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Contains(t, resp.Message, "productivity_rating")
}

func TestReportHandler_Submit_BadJSON(t *testing.T) {
	handler, _ := setupReportHandler(t)
	router := reportRouter(handler)

	resp := parseResponse(t, performRequest(router, "POST", "/reports", "not an object"))
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestReportHandler_Submit_AnalysisFailureStillSaves(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	ctx.Gen.text = "I cannot produce JSON today"
	router := reportRouter(handler)

	resp := parseResponse(t, performRequest(router, "POST", "/reports", currentRequest("alice")))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, service.AnalysisFailed, data["analysis_status"])
	assert.Equal(t, int64(1), testutil.CountRows(t, ctx.DB, "weekly_reports"))
	assert.Equal(t, int64(0), testutil.CountRows(t, ctx.DB, "hr_analyses"))
}

func TestReportHandler_Get(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	router := reportRouter(handler)
	report := testutil.TestReport(t, ctx.DB, testutil.WithSubmitter("alice"))

	w := performRequest(router, "GET", fmt.Sprintf("/reports/%d", report.ID), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "alice", data["submitter"])

	resp = parseResponse(t, performRequest(router, "GET", "/reports/9999", nil))
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	resp = parseResponse(t, performRequest(router, "GET", "/reports/abc", nil))
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestReportHandler_Regenerate(t *testing.T) {
	handler, ctx := setupReportHandler(t)
	router := reportRouter(handler)
	report := testutil.TestReport(t, ctx.DB)
	path := fmt.Sprintf("/reports/%d/analysis", report.ID)

	resp := parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, int64(1), testutil.CountRows(t, ctx.DB, "hr_analyses"))

	// 再生成一次仍只有一条
	resp = parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, int64(1), testutil.CountRows(t, ctx.DB, "hr_analyses"))

	ctx.Gen.text = "{not json"
	resp = parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeAnalysisParseError, resp.Code)

	ctx.Gen.err = assert.AnError
	resp = parseResponse(t, performRequest(router, "POST", path, nil))
	assert.Equal(t, response.CodeGenerationError, resp.Code)
	assert.Equal(t, response.MessageFor(response.CodeGenerationError), resp.Message)

	resp = parseResponse(t, performRequest(router, "POST", "/reports/9999/analysis", nil))
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestReportHandler_Options(t *testing.T) {
	handler, _ := setupReportHandler(t)
	router := reportRouter(handler)

	resp := parseResponse(t, performRequest(router, "GET", "/options", nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	teams := data["teams"].([]interface{})
	require.Len(t, teams, 2)
	assert.Equal(t, "Backend Team", teams[0].(map[string]interface{})["name"])
	assert.Len(t, data["ratings"], 4)
	assert.NotZero(t, data["current_week"])
}
