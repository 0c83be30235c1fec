package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/internal/model"
)

// NewReport 构造未落库的周报
func NewReport(opts ...func(*model.WeeklyReport)) *model.WeeklyReport {
	report := &model.WeeklyReport{
		Submitter:          fmt.Sprintf("member_%d", time.Now().UnixNano()%100000),
		Team:               "Backend Team",
		WeekNumber:         10,
		Year:               2024,
		CompletedTasks:     model.StringArray{"Fix login bug", "Write API docs"},
		PendingTasks:       model.StringArray{"Refactor billing"},
		DroppedTasks:       model.StringArray{},
		Projects:           datatypes.NewJSONType([]model.Project{{Name: "Portal", Completion: 60}}),
		ProductivityRating: "3 - Productive",
		ProductiveTime:     "8am - 12nn",
		ProductivePlace:    "Office",
		Suggestions:        model.StringArray{"More Training"},
		PeerEvaluations: datatypes.NewJSONType(model.PeerEvaluations{
			"Katrina Gayao": {Rating: 4},
		}),
	}

	for _, opt := range opts {
		opt(report)
	}
	return report
}

// TestReport 创建测试周报
func TestReport(t *testing.T, db *gorm.DB, opts ...func(*model.WeeklyReport)) *model.WeeklyReport {
	t.Helper()

	report := NewReport(opts...)
	if err := db.Create(report).Error; err != nil {
		t.Fatalf("Failed to create test report: %v", err)
	}

	return report
}

// WithSubmitter 设置提交人
func WithSubmitter(name string) func(*model.WeeklyReport) {
	return func(r *model.WeeklyReport) {
		r.Submitter = name
	}
}

// WithPeriod 设置周次和年份
func WithPeriod(week, year int) func(*model.WeeklyReport) {
	return func(r *model.WeeklyReport) {
		r.WeekNumber = week
		r.Year = year
	}
}

// WithRating 设置自评
func WithRating(rating string) func(*model.WeeklyReport) {
	return func(r *model.WeeklyReport) {
		r.ProductivityRating = rating
	}
}

// WithTeam 设置团队
func WithTeam(team string) func(*model.WeeklyReport) {
	return func(r *model.WeeklyReport) {
		r.Team = team
	}
}

// WithTasks 设置任务列表
func WithTasks(completed, pending, dropped []string) func(*model.WeeklyReport) {
	return func(r *model.WeeklyReport) {
		r.CompletedTasks = completed
		r.PendingTasks = pending
		r.DroppedTasks = dropped
	}
}

// SamplePayload 一份合法的分析结果
func SamplePayload() *model.AnalysisPayload {
	return &model.AnalysisPayload{
		PerformanceMetrics: model.PerformanceMetrics{
			ProductivityScore:  3,
			TaskCompletionRate: 66.7,
			ProjectProgress:    60,
			CollaborationScore: 4,
		},
		SkillAssessment: model.SkillAssessment{
			TechnicalSkills:  []string{"Go"},
			SoftSkills:       []string{"Communication"},
			DevelopmentAreas: []string{"Estimation"},
			Strengths:        []string{"Ownership"},
		},
		GrowthRecommendations: model.GrowthRecommendations{
			ImmediateActions: []string{"Pair on billing refactor"},
			DevelopmentGoals: []string{"Lead a project"},
			TrainingNeeds:    []string{"System design"},
		},
		WellnessIndicators: model.WellnessIndicators{
			WorkLifeBalance:    model.BalanceGood,
			WorkloadAssessment: model.WorkloadOptimal,
			EngagementLevel:    model.LevelHigh,
		},
		RiskFactors: model.RiskFactors{
			BurnoutRisk:      model.LevelLow,
			RetentionRisk:    model.LevelLow,
			PerformanceTrend: model.TrendStable,
		},
		TeamDynamics: model.TeamDynamics{
			CollaborationPattern: "Works closely with frontend",
			PeerFeedbackSummary:  "Positive",
			TeamImpact:           "High",
		},
	}
}

// TestHRAnalysis 为周报创建测试分析
func TestHRAnalysis(t *testing.T, db *gorm.DB, reportID int64) *model.HRAnalysis {
	t.Helper()

	analysis := model.NewHRAnalysis(reportID, SamplePayload(), "test-model", time.Now())
	if err := db.Create(analysis).Error; err != nil {
		t.Fatalf("Failed to create test analysis: %v", err)
	}

	return analysis
}
