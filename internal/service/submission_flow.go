package service

import (
	"context"
	"errors"
	"strings"

	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/pkg/pubsub"
)

// 分析状态
const (
	AnalysisGenerated   = "generated"
	AnalysisFailed      = "failed"
	AnalysisUnavailable = "unavailable"
	AnalysisSkipped     = "skipped"
)

// 通知状态
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// EventPublisher 周报事件发布，由 pubsub.Publisher 实现
type EventPublisher interface {
	Publish(ctx context.Context, evt *pubsub.ReportEvent) error
}

// SubmissionFlow 提交 -> 分析 -> 通知 -> 推送事件
// 只有提交本身的失败会返回错误，其余步骤的失败记录在结果里
type SubmissionFlow struct {
	reports      *ReportService
	analysis     *AnalysisService
	notifier     *NotificationService
	publisher    EventPublisher
	hrRecipients []string
	log          *logger.Logger
}

// NewSubmissionFlow publisher 可以为 nil
func NewSubmissionFlow(
	reports *ReportService,
	analysis *AnalysisService,
	notifier *NotificationService,
	publisher EventPublisher,
	hrRecipients []string,
	log *logger.Logger,
) *SubmissionFlow {
	return &SubmissionFlow{
		reports:      reports,
		analysis:     analysis,
		notifier:     notifier,
		publisher:    publisher,
		hrRecipients: hrRecipients,
		log:          log,
	}
}

// Process 处理一次提交
func (f *SubmissionFlow) Process(ctx context.Context, req *dto.SubmitReportRequest) (*dto.SubmissionResponse, error) {
	report, err := f.reports.Store(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &dto.SubmissionResponse{
		ReportID:   report.ID,
		WeekNumber: report.WeekNumber,
		Year:       report.Year,
	}
	f.publish(ctx, pubsub.EventReportSubmitted, report, "")

	analysis := f.runAnalysis(ctx, report, result)
	f.notify(ctx, req.Email, report, analysis, result)

	return result, nil
}

// Regenerate 重新生成分析并推送事件
func (f *SubmissionFlow) Regenerate(ctx context.Context, reportID int64) (*model.HRAnalysis, error) {
	analysis, err := f.analysis.Generate(ctx, reportID)
	if err != nil {
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			if report, getErr := f.reports.Get(ctx, reportID); getErr == nil {
				f.publish(ctx, pubsub.EventAnalysisFailed, report, analysisFailureMessage(err))
			}
		}
		return nil, err
	}

	if report, err := f.reports.Get(ctx, reportID); err == nil {
		f.publish(ctx, pubsub.EventAnalysisReady, report, "")
	}
	return analysis, nil
}

func (f *SubmissionFlow) runAnalysis(ctx context.Context, report *model.WeeklyReport, result *dto.SubmissionResponse) *model.HRAnalysis {
	if f.analysis == nil || !f.analysis.Available() {
		result.AnalysisStatus = AnalysisUnavailable
		result.AnalysisMessage = "AI analysis is not configured. Your report was saved."
		return nil
	}

	analysis, err := f.analysis.Generate(ctx, report.ID)
	if err != nil {
		result.AnalysisStatus = AnalysisFailed
		result.AnalysisMessage = analysisFailureMessage(err)
		f.log.Warn("analysis step failed", "report_id", report.ID, "error", err)
		f.publish(ctx, pubsub.EventAnalysisFailed, report, result.AnalysisMessage)
		return nil
	}

	result.AnalysisStatus = AnalysisGenerated
	result.Analysis = analysis
	f.publish(ctx, pubsub.EventAnalysisReady, report, "")
	return analysis
}

func (f *SubmissionFlow) notify(ctx context.Context, email string, report *model.WeeklyReport, analysis *model.HRAnalysis, result *dto.SubmissionResponse) {
	if f.notifier == nil {
		result.NotificationStatus = NotificationSkipped
		return
	}

	f.notifier.Mirror(ctx, SummaryText(report, analysis))

	recipients := make([]string, 0, len(f.hrRecipients)+1)
	if email = strings.TrimSpace(email); email != "" {
		recipients = append(recipients, email)
	}
	recipients = append(recipients, f.hrRecipients...)
	if len(recipients) == 0 {
		result.NotificationStatus = NotificationSkipped
		result.NotificationMessage = "No email address was provided, so no summary was sent."
		return
	}

	body, err := RenderReportSummary(report, analysis)
	if err == nil {
		err = f.notifier.Send(ctx, recipients, SummarySubject(report), body)
	}
	if err != nil {
		f.log.Warn("notification step failed", "report_id", report.ID, "error", err)
		result.NotificationStatus = NotificationFailed
		result.NotificationMessage = "Your report was saved, but the summary email could not be sent."
		return
	}

	result.NotificationStatus = NotificationSent
	result.NotificationMessage = "A summary was sent to your email."
}

func (f *SubmissionFlow) publish(ctx context.Context, eventType string, report *model.WeeklyReport, message string) {
	if f.publisher == nil {
		return
	}
	err := f.publisher.Publish(ctx, &pubsub.ReportEvent{
		Type:       eventType,
		ReportID:   report.ID,
		Submitter:  report.Submitter,
		Team:       report.Team,
		WeekNumber: report.WeekNumber,
		Year:       report.Year,
		Message:    message,
	})
	if err != nil {
		f.log.Warn("publish report event failed", "type", eventType, "report_id", report.ID, "error", err)
	}
}

func analysisFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrAnalysisParse):
		return "The AI analysis could not be interpreted. Your report was saved; try regenerating the analysis later."
	case errors.Is(err, ErrGeneration):
		return "The AI analysis service could not be reached. Your report was saved; try regenerating the analysis later."
	case errors.Is(err, ErrAnalysisUnavailable):
		return "AI analysis is not configured. Your report was saved."
	default:
		return "The AI analysis could not be stored. Your report was saved."
	}
}
