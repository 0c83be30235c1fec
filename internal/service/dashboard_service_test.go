package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/pkg/cache"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/testutil"
)

func setupDashboard(t *testing.T, c DashboardCache) (*testEnv, *DashboardService) {
	t.Helper()
	env := setupEnv(t)
	svc := NewDashboardService(env.reportRepo, env.analysisRepo, env.cfg, c, logger.Nop())
	svc.now = fixedClock
	return env, svc
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func submitters(reports []*model.WeeklyReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.Submitter
	}
	return out
}

func TestDashboardService_WeekReports_OrderedBySubmitter(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	for _, name := range []string{"carol", "alice", "bob"} {
		testutil.TestReport(t, env.db, testutil.WithSubmitter(name))
	}
	testutil.TestReport(t, env.db, testutil.WithSubmitter("aaron"), testutil.WithPeriod(11, 2024))

	reports, err := svc.WeekReports(context.Background(), 10, 2024, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, submitters(reports))

	reports, err = svc.WeekReports(context.Background(), 10, 2024, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, submitters(reports))

	reports, err = svc.WeekReports(context.Background(), 12, 2024, "")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestDashboardService_WeekReports_InvalidPeriod(t *testing.T) {
	_, svc := setupDashboard(t, nil)

	_, err := svc.WeekReports(context.Background(), 0, 2024, "")
	requireValidationError(t, err, "week_number")
}

func TestDashboardService_WeekReportsWithAnalysis(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	alice := testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"))
	testutil.TestHRAnalysis(t, env.db, alice.ID)

	items, err := svc.WeekReportsWithAnalysis(context.Background(), 10, 2024, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotNil(t, items[0].Analysis)
	assert.Nil(t, items[1].Analysis)
}

func TestDashboardService_AnalysisFor(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	report := testutil.TestReport(t, env.db)

	analysis, found, err := svc.AnalysisFor(context.Background(), report.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, analysis)

	testutil.TestHRAnalysis(t, env.db, report.ID)
	analysis, found, err = svc.AnalysisFor(context.Background(), report.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, report.ID, analysis.ReportID)
}

func TestDashboardService_WeekSummary(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	alice := testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithRating("4 - Very Productive"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"), testutil.WithRating("2 - Somewhat Productive"),
		testutil.WithTasks([]string{"a", "b", "c"}, nil, []string{"d"}))
	testutil.TestHRAnalysis(t, env.db, alice.ID)

	summary, err := svc.WeekSummary(context.Background(), 10, 2024)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ReportCount)
	assert.Equal(t, 1, summary.AnalysisCount)
	assert.Equal(t, 5, summary.CompletedTasks)
	assert.Equal(t, 1, summary.PendingTasks)
	assert.Equal(t, 1, summary.DroppedTasks)
	assert.Equal(t, 3.0, summary.AverageProductivity)
	assert.Equal(t, 60.0, summary.AverageProjectCompletion)
}

func TestDashboardService_WeekSummary_Empty(t *testing.T) {
	_, svc := setupDashboard(t, nil)

	summary, err := svc.WeekSummary(context.Background(), 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ReportCount)
	assert.Equal(t, 0.0, summary.AverageProductivity)
}

func TestDashboardService_WeekSummary_Cached(t *testing.T) {
	c := cache.New(setupTestRedis(t), "wpr", time.Hour)
	env, svc := setupDashboard(t, c)
	ctx := context.Background()

	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"))

	summary, err := svc.WeekSummary(ctx, 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ReportCount)

	// 绕过 service 直接写库，缓存仍返回旧值
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"))
	summary, err = svc.WeekSummary(ctx, 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ReportCount)

	// 通过 ReportService 提交会清理该周缓存
	reports := NewReportService(env.reportRepo, env.cfg, c, logger.Nop())
	reports.now = fixedClock
	_, err = reports.Submit(ctx, validRequest("carol"))
	require.NoError(t, err)

	summary, err = svc.WeekSummary(ctx, 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ReportCount)
}

func TestDashboardService_WeekSummary_CachedAnalysisCount(t *testing.T) {
	c := cache.New(setupTestRedis(t), "wpr", time.Hour)
	env, svc := setupDashboard(t, c)
	ctx := context.Background()

	reports := NewReportService(env.reportRepo, env.cfg, c, logger.Nop())
	reports.now = fixedClock
	id, err := reports.Submit(ctx, validRequest("alice"))
	require.NoError(t, err)

	// 分析生成前刷新看板
	summary, err := svc.WeekSummary(ctx, 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AnalysisCount)

	analysis := NewAnalysisService(env.reportRepo, env.analysisRepo, env.gen, 4000, c, logger.Nop())
	analysis.now = fixedClock
	_, err = analysis.Generate(ctx, id)
	require.NoError(t, err)

	summary, err = svc.WeekSummary(ctx, 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AnalysisCount)
}

func TestDashboardService_TeamSummary(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithTeam("Backend Team"),
		testutil.WithRating("4 - Very Productive"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"), testutil.WithTeam("Backend Team"),
		testutil.WithRating("2 - Somewhat Productive"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("zed"), testutil.WithTeam(""))

	teams, err := svc.TeamSummary(context.Background(), 10, 2024)
	require.NoError(t, err)
	require.Len(t, teams, 3)

	assert.Equal(t, "Backend Team", teams[0].Team)
	assert.Equal(t, 2, teams[0].RosterSize)
	assert.Equal(t, 2, teams[0].ReportCount)
	assert.Equal(t, 3.0, teams[0].AverageProductivity)

	assert.Equal(t, "Frontend Team", teams[1].Team)
	assert.Equal(t, 0, teams[1].ReportCount)

	assert.Equal(t, unassignedTeam, teams[2].Team)
	assert.Equal(t, 1, teams[2].ReportCount)
}

func TestDashboardService_Trend(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithPeriod(10, 2024),
		testutil.WithRating("4 - Very Productive"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"), testutil.WithPeriod(10, 2024),
		testutil.WithRating("3 - Productive"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithPeriod(8, 2024),
		testutil.WithRating("2 - Somewhat Productive"))
	// 超出窗口
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithPeriod(50, 2023))

	points, err := svc.Trend(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 8, points[0].WeekNumber)
	assert.Equal(t, 1, points[0].ReportCount)
	assert.Equal(t, 2.0, points[0].AverageProductivity)

	assert.Equal(t, 10, points[1].WeekNumber)
	assert.Equal(t, 2, points[1].ReportCount)
	assert.Equal(t, 3.5, points[1].AverageProductivity)

	_, err = svc.Trend(context.Background(), 0)
	requireValidationError(t, err, "weeks")
}

func TestDashboardService_SubmitterHistory(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	for week := 1; week <= 7; week++ {
		testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"), testutil.WithPeriod(week, 2024))
	}

	history, err := svc.SubmitterHistory(context.Background(), "alice", 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, 7, history[0].WeekNumber)
	assert.Equal(t, 3, history[4].WeekNumber)

	history, err = svc.SubmitterHistory(context.Background(), "alice", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.SubmitterHistory(context.Background(), " ", 2)
	requireValidationError(t, err, "submitter")
}

func TestDashboardService_MissingSubmitters(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("Carol"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"), testutil.WithPeriod(9, 2024))

	missing, err := svc.MissingSubmitters(context.Background(), 10, 2024)
	require.NoError(t, err)

	var names []string
	for _, m := range missing.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"bob", "dave"}, names)
	assert.Equal(t, "Frontend Team", missing.Members[1].Team)
}

func TestDashboardService_ExportCSV(t *testing.T) {
	env, svc := setupDashboard(t, nil)
	testutil.TestReport(t, env.db, testutil.WithSubmitter("bob"))
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"),
		testutil.WithTasks([]string{"Fix, then ship", "Review"}, nil, nil))

	data, rows, err := svc.ExportCSV(context.Background(), 10, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "alice", records[1][0])
	assert.Equal(t, "Fix, then ship; Review", records[1][5])
	assert.Equal(t, "Portal (60%)", records[1][8])
	assert.Equal(t, "Katrina Gayao: 4", records[1][12])
	assert.Equal(t, "bob", records[2][0])
}

func TestDashboardService_ExportCSV_InvalidWeek(t *testing.T) {
	_, svc := setupDashboard(t, nil)

	_, _, err := svc.ExportCSV(context.Background(), 60, 2024)
	assert.True(t, errors.Is(err, ErrValidation))
}
