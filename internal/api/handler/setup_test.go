package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/llm"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/pkg/response"
	"github.com/qs3c/wpr_server/internal/repository"
	"github.com/qs3c/wpr_server/internal/service"
	"github.com/qs3c/wpr_server/internal/testutil"
	"github.com/qs3c/wpr_server/internal/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Model: "fake-model"}, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

type fakeMailer struct {
	to    []string
	calls int
	err   error
}

func (m *fakeMailer) SendHTML(ctx context.Context, to []string, subject, body string) error {
	m.calls++
	m.to = to
	return m.err
}

// testContext 本地测试上下文
type testContext struct {
	DB        *gorm.DB
	Config    *config.Config
	Gen       *fakeGenerator
	Mailer    *fakeMailer
	Reports   *service.ReportService
	Flow      *service.SubmissionFlow
	Dashboard *service.DashboardService
}

func testConfig() *config.Config {
	return &config.Config{
		Organization: config.OrganizationConfig{
			Teams: []config.TeamConfig{
				{Name: "Backend Team", Members: []string{"alice", "bob"}},
				{Name: "Frontend Team", Members: []string{"carol", "dave"}},
			},
			Ratings:      config.DefaultRatings(),
			Suggestions:  config.DefaultSuggestions(),
			TimeSlots:    []string{"8am - 12nn", "12nn - 4pm"},
			Locations:    []string{"Office", "Home"},
			HRRecipients: []string{"hr@example.com"},
		},
		Dashboard: config.DashboardConfig{HistoryLimit: 5, TrendWeeks: 4},
	}
}

func setupContext(t *testing.T) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := testConfig()
	log := logger.Nop()
	reportRepo := repository.NewReportRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	payload, err := json.Marshal(testutil.SamplePayload())
	require.NoError(t, err)
	gen := &fakeGenerator{text: string(payload)}
	mailer := &fakeMailer{}

	reports := service.NewReportService(reportRepo, cfg, nil, log)
	analysis := service.NewAnalysisService(reportRepo, analysisRepo, gen, 1000, nil, log)
	notifier := service.NewNotificationService(mailer, log)
	flow := service.NewSubmissionFlow(reports, analysis, notifier, nil, cfg.Organization.HRRecipients, log)
	dashboard := service.NewDashboardService(reportRepo, analysisRepo, cfg, nil, log)

	return &testContext{
		DB:        db,
		Config:    cfg,
		Gen:       gen,
		Mailer:    mailer,
		Reports:   reports,
		Flow:      flow,
		Dashboard: dashboard,
	}
}

// htmlRouter 带页面模板的路由
func htmlRouter(t *testing.T) *gin.Engine {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	return router
}

// currentRequest 当前 ISO 周的合法提交
func currentRequest(submitter string) *dto.SubmitReportRequest {
	year, week := time.Now().ISOWeek()
	return &dto.SubmitReportRequest{
		Submitter:          submitter,
		WeekNumber:         week,
		Year:               year,
		CompletedTasks:     []string{"Ship login page"},
		PendingTasks:       []string{"Write docs"},
		ProductivityRating: "3 - Productive",
		ProductiveTime:     "8am - 12nn",
		ProductivePlace:    "Home",
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}
