package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/pkg/llm"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/repository"
)

type AnalysisService struct {
	reportRepo   *repository.ReportRepository
	analysisRepo *repository.AnalysisRepository
	gen          llm.Generator
	maxTokens    int
	invalidator  WeekInvalidator
	log          *logger.Logger
	now          func() time.Time
}

// NewAnalysisService gen 为 nil 时 Generate 返回 ErrAnalysisUnavailable，invalidator 可以为 nil
func NewAnalysisService(
	reportRepo *repository.ReportRepository,
	analysisRepo *repository.AnalysisRepository,
	gen llm.Generator,
	maxTokens int,
	invalidator WeekInvalidator,
	log *logger.Logger,
) *AnalysisService {
	return &AnalysisService{
		reportRepo:   reportRepo,
		analysisRepo: analysisRepo,
		gen:          gen,
		maxTokens:    maxTokens,
		invalidator:  invalidator,
		log:          log,
		now:          time.Now,
	}
}

// Available 是否配置了文本生成服务
func (s *AnalysisService) Available() bool {
	return s.gen != nil
}

// Generate 为周报生成 HR 分析并覆盖旧结果
func (s *AnalysisService) Generate(ctx context.Context, reportID int64) (*model.HRAnalysis, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, storeErr("get report", "report", reportID, err)
	}

	if s.gen == nil {
		return nil, ErrAnalysisUnavailable
	}

	log := s.log.With("report_id", reportID, "submitter", report.Submitter)
	log.Info("generating hr analysis", "model", s.gen.Model())

	resp, err := s.gen.Generate(ctx, &llm.Request{
		System:    analysisSystemPrompt,
		Prompt:    buildAnalysisPrompt(report),
		MaxTokens: s.maxTokens,
		JSON:      true,
	})
	if err != nil {
		log.Error("analysis generation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	payload, err := ParseAnalysis(resp.Text)
	if err != nil {
		log.Warn("analysis response rejected", "error", err)
		return nil, err
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = s.gen.Model()
	}

	analysis := model.NewHRAnalysis(report.ID, payload, modelName, s.now())
	if err := s.analysisRepo.Upsert(ctx, analysis); err != nil {
		return nil, &StoreError{Op: "upsert analysis", Err: err}
	}
	// 周汇总里的分析数随之变化
	invalidateWeek(ctx, s.invalidator, log, report.WeekNumber, report.Year)

	log.Info("hr analysis stored", "analysis_id", analysis.ID,
		"input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
	return analysis, nil
}

// 各部分必须出现的字段
var analysisSections = map[string][]string{
	"performance_metrics":    {"productivity_score", "task_completion_rate", "project_progress", "collaboration_score"},
	"skill_assessment":       {"technical_skills", "soft_skills", "development_areas", "strengths"},
	"growth_recommendations": {"immediate_actions", "development_goals", "training_needs"},
	"wellness_indicators":    {"work_life_balance", "workload_assessment", "engagement_level"},
	"risk_factors":           {"burnout_risk", "retention_risk", "performance_trend"},
	"team_dynamics":          {"collaboration_pattern", "peer_feedback_summary", "team_impact"},
}

// ParseAnalysis 解析并校验模型输出，任何不符合结构的内容都返回 *AnalysisParseError
func ParseAnalysis(text string) (*model.AnalysisPayload, error) {
	raw := stripCodeFence(text)
	fail := func(format string, args ...interface{}) error {
		return &AnalysisParseError{Reason: fmt.Sprintf(format, args...), Raw: truncate(text, 200)}
	}

	if raw == "" {
		return nil, fail("empty response")
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, fail("invalid json: %v", err)
	}
	for section, fields := range analysisSections {
		body, ok := sections[section]
		if !ok || string(body) == "null" {
			return nil, fail("missing section %s", section)
		}
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(body, &keys); err != nil {
			return nil, fail("section %s is not an object", section)
		}
		for _, f := range fields {
			if v, ok := keys[f]; !ok || string(v) == "null" {
				return nil, fail("missing %s.%s", section, f)
			}
		}
	}

	var payload model.AnalysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fail("unexpected field type: %v", err)
	}

	if err := validatePayload(&payload); err != nil {
		return nil, fail("%v", err)
	}
	return &payload, nil
}

func validatePayload(p *model.AnalysisPayload) error {
	m := p.PerformanceMetrics
	if m.ProductivityScore < 1 || m.ProductivityScore > 4 {
		return fmt.Errorf("productivity_score %v out of range 1-4", m.ProductivityScore)
	}
	if m.TaskCompletionRate < 0 || m.TaskCompletionRate > 100 {
		return fmt.Errorf("task_completion_rate %v out of range 0-100", m.TaskCompletionRate)
	}
	if m.ProjectProgress < 0 || m.ProjectProgress > 100 {
		return fmt.Errorf("project_progress %v out of range 0-100", m.ProjectProgress)
	}
	if m.CollaborationScore < 1 || m.CollaborationScore > 4 {
		return fmt.Errorf("collaboration_score %v out of range 1-4", m.CollaborationScore)
	}

	enums := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"work_life_balance", p.WellnessIndicators.WorkLifeBalance, model.WorkLifeBalanceValues},
		{"workload_assessment", p.WellnessIndicators.WorkloadAssessment, model.WorkloadValues},
		{"engagement_level", p.WellnessIndicators.EngagementLevel, model.EngagementValues},
		{"burnout_risk", p.RiskFactors.BurnoutRisk, model.RiskValues},
		{"retention_risk", p.RiskFactors.RetentionRisk, model.RiskValues},
		{"performance_trend", p.RiskFactors.PerformanceTrend, model.PerformanceTrendValues},
	}
	for _, e := range enums {
		if !contains(e.allowed, e.value) {
			return fmt.Errorf("%s %q not one of %s", e.name, e.value, strings.Join(e.allowed, "/"))
		}
	}
	return nil
}

// stripCodeFence 去掉 ```json ... ``` 包裹，以及 JSON 前后的说明文字
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
