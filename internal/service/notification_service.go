package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/pkg/chat"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

// Mailer 邮件发送，由 email.Service 实现
type Mailer interface {
	SendHTML(ctx context.Context, to []string, subject, body string) error
}

type NotificationService struct {
	mailer  Mailer
	posters []chat.Poster
	log     *logger.Logger
}

// NewNotificationService posters 为可选的聊天频道镜像
func NewNotificationService(mailer Mailer, log *logger.Logger, posters ...chat.Poster) *NotificationService {
	return &NotificationService{mailer: mailer, posters: posters, log: log}
}

// Send 发送邮件，失败返回 *DeliveryError
func (s *NotificationService) Send(ctx context.Context, recipients []string, subject, body string) error {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		return invalid("recipients", "at least one recipient is required")
	}
	if s.mailer == nil {
		return &DeliveryError{Channel: "email", Err: fmt.Errorf("email not configured")}
	}

	if err := s.mailer.SendHTML(ctx, to, subject, body); err != nil {
		s.log.Error("email delivery failed", "recipients", len(to), "subject", subject, "error", err)
		return &DeliveryError{Channel: "email", Err: err}
	}

	s.log.Info("email sent", "recipients", len(to), "subject", subject)
	return nil
}

// Mirror 同步到聊天频道，失败只记日志
func (s *NotificationService) Mirror(ctx context.Context, text string) {
	for _, p := range s.posters {
		if err := p.Post(ctx, text); err != nil {
			s.log.Warn("chat mirror failed", "channel", p.Name(), "error", err)
		}
	}
}

// SummarySubject 周报邮件标题
func SummarySubject(r *model.WeeklyReport) string {
	return fmt.Sprintf("Weekly Productivity Report Summary - Week %d, %d", r.WeekNumber, r.Year)
}

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
}).Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 800px; margin: 0 auto; padding: 20px; }
.header { color: #2E86C1; margin-bottom: 20px; }
.box { background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0; }
.footer { margin-top: 30px; color: #666; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Weekly Productivity Report Summary</h1>
<h2>Week {{.Report.WeekNumber}}, {{.Report.Year}}</h2>
<p>Date: {{.Date}}</p>
</div>
<p>Dear {{.Report.Submitter}},</p>
<p>Thank you for submitting your report{{if .Report.Team}} for the {{.Report.Team}}{{end}}. Your self-rating this week: <strong>{{.Report.ProductivityRating}}</strong>.</p>
<div class="box">
<h3>Tasks</h3>
<p>Completed: {{len .Report.CompletedTasks}} &middot; Pending: {{len .Report.PendingTasks}} &middot; Dropped: {{len .Report.DroppedTasks}}</p>
{{if .Report.CompletedTasks}}<ul>{{range .Report.CompletedTasks}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>
{{if .Projects}}<div class="box">
<h3>Projects</h3>
<ul>{{range .Projects}}<li>{{.Name}}: {{pct .Completion}}</li>{{end}}</ul>
</div>{{end}}
{{with .Analysis}}<div class="box">
<h2 style="color: #2E86C1;">HR Analysis Summary</h2>
<h3>Performance Metrics</h3>
<ul style="list-style-type: none; padding-left: 0;">
<li>Productivity Score: {{.PerformanceMetrics.ProductivityScore}}/4</li>
<li>Task Completion Rate: {{pct .PerformanceMetrics.TaskCompletionRate}}</li>
<li>Project Progress: {{pct .PerformanceMetrics.ProjectProgress}}</li>
<li>Collaboration Score: {{.PerformanceMetrics.CollaborationScore}}/4</li>
</ul>
<h3>Key Recommendations</h3>
{{if .GrowthRecommendations.ImmediateActions}}{{range .GrowthRecommendations.ImmediateActions}}<div style="padding: 10px; background-color: #E8F6F3; border-radius: 5px; margin: 5px 0;">&bull; {{.}}</div>{{end}}{{else}}<p>None</p>{{end}}
<h3>Wellness Status</h3>
<ul style="list-style-type: none; padding-left: 0;">
<li>Work-Life Balance: {{.WellnessIndicators.WorkLifeBalance}}</li>
<li>Workload: {{.WellnessIndicators.WorkloadAssessment}}</li>
<li>Engagement: {{.WellnessIndicators.EngagementLevel}}</li>
</ul>
</div>{{end}}
<div class="footer"><p>Best regards,<br>IOL Inc.</p></div>
</div>
</body>
</html>`))

// RenderReportSummary 生成周报摘要邮件，analysis 为空时不包含 HR 部分
func RenderReportSummary(r *model.WeeklyReport, analysis *model.HRAnalysis) (string, error) {
	data := struct {
		Report   *model.WeeklyReport
		Projects []model.Project
		Analysis *model.AnalysisPayload
		Date     string
	}{
		Report:   r,
		Projects: r.ProjectList(),
		Date:     time.Now().Format("January 02, 2006"),
	}
	if analysis != nil {
		p := analysis.Payload()
		data.Analysis = &p
	}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

// SummaryText 聊天频道用的纯文本摘要
func SummaryText(r *model.WeeklyReport, analysis *model.HRAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WPR submitted: %s", r.Submitter)
	if r.Team != "" {
		fmt.Fprintf(&b, " (%s)", r.Team)
	}
	fmt.Fprintf(&b, ", week %d/%d\n", r.WeekNumber, r.Year)
	fmt.Fprintf(&b, "Rating: %s | completed %d, pending %d, dropped %d",
		r.ProductivityRating, len(r.CompletedTasks), len(r.PendingTasks), len(r.DroppedTasks))
	if analysis != nil {
		p := analysis.Payload()
		fmt.Fprintf(&b, "\nBurnout risk: %s | engagement: %s | trend: %s",
			p.RiskFactors.BurnoutRisk, p.WellnessIndicators.EngagementLevel, p.RiskFactors.PerformanceTrend)
	}
	return b.String()
}
