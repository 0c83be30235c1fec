package model

import (
	"time"

	"gorm.io/datatypes"
)

// 评估枚举
const (
	BalanceGood           = "Good"
	BalanceModerate       = "Moderate"
	BalanceNeedsAttention = "Needs Attention"

	WorkloadOptimal = "Optimal"
	WorkloadHeavy   = "Heavy"
	WorkloadLight   = "Light"

	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelLow      = "Low"

	TrendImproving = "Improving"
	TrendStable    = "Stable"
	TrendDeclining = "Declining"
)

var (
	WorkLifeBalanceValues  = []string{BalanceGood, BalanceModerate, BalanceNeedsAttention}
	WorkloadValues         = []string{WorkloadOptimal, WorkloadHeavy, WorkloadLight}
	EngagementValues       = []string{LevelHigh, LevelModerate, LevelLow}
	RiskValues             = []string{LevelLow, LevelModerate, LevelHigh}
	PerformanceTrendValues = []string{TrendImproving, TrendStable, TrendDeclining}
)

type PerformanceMetrics struct {
	ProductivityScore  float64 `json:"productivity_score"`   // 1-4
	TaskCompletionRate float64 `json:"task_completion_rate"` // 0-100
	ProjectProgress    float64 `json:"project_progress"`     // 0-100
	CollaborationScore float64 `json:"collaboration_score"`  // 1-4
}

type SkillAssessment struct {
	TechnicalSkills  []string `json:"technical_skills"`
	SoftSkills       []string `json:"soft_skills"`
	DevelopmentAreas []string `json:"development_areas"`
	Strengths        []string `json:"strengths"`
}

type GrowthRecommendations struct {
	ImmediateActions []string `json:"immediate_actions"`
	DevelopmentGoals []string `json:"development_goals"`
	TrainingNeeds    []string `json:"training_needs"`
}

type WellnessIndicators struct {
	WorkLifeBalance    string `json:"work_life_balance"`
	WorkloadAssessment string `json:"workload_assessment"`
	EngagementLevel    string `json:"engagement_level"`
}

type RiskFactors struct {
	BurnoutRisk      string `json:"burnout_risk"`
	RetentionRisk    string `json:"retention_risk"`
	PerformanceTrend string `json:"performance_trend"`
}

type TeamDynamics struct {
	CollaborationPattern string `json:"collaboration_pattern"`
	PeerFeedbackSummary  string `json:"peer_feedback_summary"`
	TeamImpact           string `json:"team_impact"`
}

// AnalysisPayload 模型返回的结构化分析
type AnalysisPayload struct {
	PerformanceMetrics    PerformanceMetrics    `json:"performance_metrics"`
	SkillAssessment       SkillAssessment       `json:"skill_assessment"`
	GrowthRecommendations GrowthRecommendations `json:"growth_recommendations"`
	WellnessIndicators    WellnessIndicators    `json:"wellness_indicators"`
	RiskFactors           RiskFactors           `json:"risk_factors"`
	TeamDynamics          TeamDynamics          `json:"team_dynamics"`
}

// HRAnalysis 每份周报至多一条，report_id 唯一，重新生成时覆盖
type HRAnalysis struct {
	ID                    int64                                     `gorm:"primaryKey" json:"id"`
	ReportID              int64                                     `gorm:"not null;uniqueIndex" json:"report_id"`
	PerformanceMetrics    datatypes.JSONType[PerformanceMetrics]    `json:"performance_metrics"`
	SkillAssessment       datatypes.JSONType[SkillAssessment]       `json:"skill_assessment"`
	GrowthRecommendations datatypes.JSONType[GrowthRecommendations] `json:"growth_recommendations"`
	WellnessIndicators    datatypes.JSONType[WellnessIndicators]    `json:"wellness_indicators"`
	RiskFactors           datatypes.JSONType[RiskFactors]           `json:"risk_factors"`
	TeamDynamics          datatypes.JSONType[TeamDynamics]          `json:"team_dynamics"`
	ModelName             string                                    `gorm:"size:100" json:"model_name"`
	GeneratedAt           time.Time                                 `json:"generated_at"`
	CreatedAt             time.Time                                 `json:"created_at"`
	UpdatedAt             time.Time                                 `json:"updated_at"`

	// 关联
	Report *WeeklyReport `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
}

func (HRAnalysis) TableName() string {
	return "hr_analyses"
}

// NewHRAnalysis 由模型输出构造一条待写入的分析
func NewHRAnalysis(reportID int64, p *AnalysisPayload, modelName string, at time.Time) *HRAnalysis {
	return &HRAnalysis{
		ReportID:              reportID,
		PerformanceMetrics:    datatypes.NewJSONType(p.PerformanceMetrics),
		SkillAssessment:       datatypes.NewJSONType(p.SkillAssessment),
		GrowthRecommendations: datatypes.NewJSONType(p.GrowthRecommendations),
		WellnessIndicators:    datatypes.NewJSONType(p.WellnessIndicators),
		RiskFactors:           datatypes.NewJSONType(p.RiskFactors),
		TeamDynamics:          datatypes.NewJSONType(p.TeamDynamics),
		ModelName:             modelName,
		GeneratedAt:           at,
	}
}

// Payload 还原为结构化分析
func (a *HRAnalysis) Payload() AnalysisPayload {
	return AnalysisPayload{
		PerformanceMetrics:    a.PerformanceMetrics.Data(),
		SkillAssessment:       a.SkillAssessment.Data(),
		GrowthRecommendations: a.GrowthRecommendations.Data(),
		WellnessIndicators:    a.WellnessIndicators.Data(),
		RiskFactors:           a.RiskFactors.Data(),
		TeamDynamics:          a.TeamDynamics.Data(),
	}
}
