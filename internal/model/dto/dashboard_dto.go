package dto

import "github.com/qs3c/wpr_server/internal/model"

// ReportWithAnalysis 周报及其可选的 HR 分析
type ReportWithAnalysis struct {
	Report   *model.WeeklyReport `json:"report"`
	Analysis *model.HRAnalysis   `json:"analysis,omitempty"`
}

// WeekSummary 某周汇总
type WeekSummary struct {
	WeekNumber               int     `json:"week_number"`
	Year                     int     `json:"year"`
	ReportCount              int     `json:"report_count"`
	AnalysisCount            int     `json:"analysis_count"`
	CompletedTasks           int     `json:"completed_tasks"`
	PendingTasks             int     `json:"pending_tasks"`
	DroppedTasks             int     `json:"dropped_tasks"`
	AverageProductivity      float64 `json:"average_productivity"`
	AverageProjectCompletion float64 `json:"average_project_completion"`
}

// TeamSummary 团队维度汇总
type TeamSummary struct {
	Team                string  `json:"team"`
	RosterSize          int     `json:"roster_size"`
	ReportCount         int     `json:"report_count"`
	CompletedTasks      int     `json:"completed_tasks"`
	PendingTasks        int     `json:"pending_tasks"`
	DroppedTasks        int     `json:"dropped_tasks"`
	AverageProductivity float64 `json:"average_productivity"`
}

// TrendPoint 按周的生产力走势
type TrendPoint struct {
	Year                int     `json:"year"`
	WeekNumber          int     `json:"week_number"`
	ReportCount         int     `json:"report_count"`
	AverageProductivity float64 `json:"average_productivity"`
}

// MissingMember 当周未提交的成员
type MissingMember struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

// MissingResponse 未提交名单
type MissingResponse struct {
	WeekNumber int             `json:"week_number"`
	Year       int             `json:"year"`
	Members    []MissingMember `json:"members"`
}

// ExportResponse 导出结果
type ExportResponse struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
	Rows      int    `json:"rows"`
}
