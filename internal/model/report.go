package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// StringArray 用于 JSON 数组字段
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StringArray{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported StringArray source %T", value)
	}
}

// Project 周报中的项目进度
type Project struct {
	Name       string  `json:"name"`
	Completion float64 `json:"completion"` // 0-100
}

// PeerEvaluation 对同事的评价
type PeerEvaluation struct {
	Rating  int    `json:"rating"` // 1-4
	Comment string `json:"comment,omitempty"`
}

// PeerEvaluations 同事姓名 -> 评价
type PeerEvaluations map[string]PeerEvaluation

// WeeklyReport 每人每周一条，(submitter, week_number, year) 唯一
type WeeklyReport struct {
	ID                  int64                               `gorm:"primaryKey" json:"id"`
	Submitter           string                              `gorm:"size:100;not null;uniqueIndex:idx_report_key,priority:1" json:"submitter"`
	Team                string                              `gorm:"size:100;index" json:"team"`
	WeekNumber          int                                 `gorm:"not null;uniqueIndex:idx_report_key,priority:2;index:idx_report_period,priority:2" json:"week_number"`
	Year                int                                 `gorm:"not null;uniqueIndex:idx_report_key,priority:3;index:idx_report_period,priority:1" json:"year"`
	CompletedTasks      StringArray                         `gorm:"type:json" json:"completed_tasks"`
	PendingTasks        StringArray                         `gorm:"type:json" json:"pending_tasks"`
	DroppedTasks        StringArray                         `gorm:"type:json" json:"dropped_tasks"`
	Projects            datatypes.JSONType[[]Project]       `json:"projects"`
	ProductivityRating  string                              `gorm:"size:50;not null" json:"productivity_rating"`
	ProductivityDetails string                              `gorm:"type:text" json:"productivity_details"`
	ProductiveTime      string                              `gorm:"size:30" json:"productive_time"`
	ProductivePlace     string                              `gorm:"size:30" json:"productive_place"`
	Suggestions         StringArray                         `gorm:"column:productivity_suggestions;type:json" json:"productivity_suggestions"`
	PeerEvaluations     datatypes.JSONType[PeerEvaluations] `json:"peer_evaluations"`
	CreatedAt           time.Time                           `json:"created_at"`
	UpdatedAt           time.Time                           `json:"updated_at"`
}

func (WeeklyReport) TableName() string {
	return "weekly_reports"
}

// ProjectList 取出项目列表
func (r *WeeklyReport) ProjectList() []Project {
	return r.Projects.Data()
}

// Peers 取出同事评价
func (r *WeeklyReport) Peers() PeerEvaluations {
	return r.PeerEvaluations.Data()
}

// AverageProjectCompletion 项目平均完成度，无项目时为 0
func (r *WeeklyReport) AverageProjectCompletion() float64 {
	projects := r.ProjectList()
	if len(projects) == 0 {
		return 0
	}
	var sum float64
	for _, p := range projects {
		sum += p.Completion
	}
	return sum / float64(len(projects))
}

// TaskCompletionRate 已完成 / (已完成 + 待办)，百分比
func (r *WeeklyReport) TaskCompletionRate() float64 {
	total := len(r.CompletedTasks) + len(r.PendingTasks)
	if total == 0 {
		return 0
	}
	return float64(len(r.CompletedTasks)) / float64(total) * 100
}
