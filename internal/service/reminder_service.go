package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

// ReminderService 提醒尚未提交周报的成员
type ReminderService struct {
	dashboard    *DashboardService
	notifier     *NotificationService
	hrRecipients []string
	log          *logger.Logger
	now          func() time.Time
}

func NewReminderService(dashboard *DashboardService, notifier *NotificationService, hrRecipients []string, log *logger.Logger) *ReminderService {
	return &ReminderService{
		dashboard:    dashboard,
		notifier:     notifier,
		hrRecipients: hrRecipients,
		log:          log,
		now:          time.Now,
	}
}

// CurrentPeriod 当前 ISO 周
func (s *ReminderService) CurrentPeriod() (week, year int) {
	year, week = s.now().ISOWeek()
	return week, year
}

// RemindMissing 把未提交名单发到聊天频道，并抄送 HR
func (s *ReminderService) RemindMissing(ctx context.Context, week, year int) (*dto.MissingResponse, error) {
	missing, err := s.dashboard.MissingSubmitters(ctx, week, year)
	if err != nil {
		return nil, err
	}

	if len(missing.Members) == 0 {
		s.log.Info("everyone has submitted", "week", week, "year", year)
		return missing, nil
	}

	s.notifier.Mirror(ctx, ReminderText(missing))

	if len(s.hrRecipients) > 0 {
		body, err := renderReminder(missing)
		if err != nil {
			return missing, err
		}
		subject := fmt.Sprintf("WPR reminder - %d missing for Week %d, %d", len(missing.Members), week, year)
		if err := s.notifier.Send(ctx, s.hrRecipients, subject, body); err != nil {
			return missing, err
		}
	}

	s.log.Info("reminder sent", "week", week, "year", year, "missing", len(missing.Members))
	return missing, nil
}

// ReminderText 聊天频道用的提醒文本
func ReminderText(m *dto.MissingResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder: Weekly Productivity Report for week %d/%d is still missing from:\n", m.WeekNumber, m.Year)
	for _, member := range m.Members {
		fmt.Fprintf(&b, "- %s (%s)\n", member.Name, member.Team)
	}
	return strings.TrimRight(b.String(), "\n")
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<html><body style="font-family: Arial, sans-serif;">
<h2>Weekly Productivity Report - Week {{.WeekNumber}}, {{.Year}}</h2>
<p>The following members have not submitted yet:</p>
<ul>{{range .Members}}<li>{{.Name}} ({{.Team}})</li>{{end}}</ul>
<p>IOL Inc.</p>
</body></html>`))

func renderReminder(m *dto.MissingResponse) (string, error) {
	var b strings.Builder
	if err := reminderTmpl.Execute(&b, m); err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return b.String(), nil
}
