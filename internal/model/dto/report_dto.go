package dto

import "github.com/qs3c/wpr_server/internal/model"

// SubmitReportRequest 提交周报请求（JSON）
// 字段合法性由 ReportService 校验，这里只做类型绑定
type SubmitReportRequest struct {
	Submitter           string                          `json:"submitter"`
	Email               string                          `json:"email,omitempty" binding:"omitempty,email"`
	WeekNumber          int                             `json:"week_number"`
	Year                int                             `json:"year"`
	CompletedTasks      []string                        `json:"completed_tasks"`
	PendingTasks        []string                        `json:"pending_tasks"`
	DroppedTasks        []string                        `json:"dropped_tasks"`
	Projects            []model.Project                 `json:"projects"`
	ProductivityRating  string                          `json:"productivity_rating"`
	ProductivityDetails string                          `json:"productivity_details"`
	ProductiveTime      string                          `json:"productive_time"`
	ProductivePlace     string                          `json:"productive_place"`
	Suggestions         []string                        `json:"productivity_suggestions"`
	PeerEvaluations     map[string]model.PeerEvaluation `json:"peer_evaluations"`
}

// SubmitReportForm 网页表单提交，多行文本由 service.ParseForm 拆分
type SubmitReportForm struct {
	Submitter           string   `form:"submitter"`
	Email               string   `form:"email" binding:"omitempty,email"`
	WeekNumber          int      `form:"week_number"`
	Year                int      `form:"year"`
	CompletedTasks      string   `form:"completed_tasks"`
	PendingTasks        string   `form:"pending_tasks"`
	DroppedTasks        string   `form:"dropped_tasks"`
	Projects            string   `form:"projects"` // 每行 "名称, 完成度"
	ProductivityRating  string   `form:"productivity_rating"`
	ProductivityDetails string   `form:"productivity_details"`
	ProductiveTime      string   `form:"productive_time"`
	ProductivePlace     string   `form:"productive_place"`
	Suggestions         []string `form:"productivity_suggestions"`
	PeerNames           []string `form:"peer_name"`
	PeerRatings         []string `form:"peer_rating"` // "3 (Good)" 形式，与 PeerNames 一一对应
	PeerComments        []string `form:"peer_comment"`
}

// SubmissionResponse 提交结果，分析和通知失败不影响提交本身
type SubmissionResponse struct {
	ReportID            int64             `json:"report_id"`
	WeekNumber          int               `json:"week_number"`
	Year                int               `json:"year"`
	AnalysisStatus      string            `json:"analysis_status"` // generated, failed, unavailable, skipped
	AnalysisMessage     string            `json:"analysis_message,omitempty"`
	NotificationStatus  string            `json:"notification_status"` // sent, failed, skipped
	NotificationMessage string            `json:"notification_message,omitempty"`
	Analysis            *model.HRAnalysis `json:"analysis,omitempty"`
}

// TeamOption 团队及成员
type TeamOption struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// OptionsResponse 表单可选项
type OptionsResponse struct {
	Teams       []TeamOption `json:"teams"`
	Ratings     []string     `json:"ratings"`
	Suggestions []string     `json:"suggestions"`
	TimeSlots   []string     `json:"time_slots"`
	Locations   []string     `json:"locations"`
	CurrentWeek int          `json:"current_week"`
	CurrentYear int          `json:"current_year"`
}
