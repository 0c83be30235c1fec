package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/repository"
)

// WeekInvalidator 周报写入后清理该周的看板缓存
type WeekInvalidator interface {
	InvalidateWeek(ctx context.Context, week, year int) error
}

// invalidateWeek 失败只记录日志，缓存最多滞后一个 TTL
func invalidateWeek(ctx context.Context, inv WeekInvalidator, log *logger.Logger, week, year int) {
	if inv == nil {
		return
	}
	if err := inv.InvalidateWeek(ctx, week, year); err != nil {
		log.Warn("dashboard cache invalidation failed", "week", week, "year", year, "error", err)
	}
}

type ReportService struct {
	reportRepo  *repository.ReportRepository
	org         *config.OrganizationConfig
	invalidator WeekInvalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewReportService invalidator 可以为 nil（未启用 Redis）
func NewReportService(
	reportRepo *repository.ReportRepository,
	cfg *config.Config,
	invalidator WeekInvalidator,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		org:         &cfg.Organization,
		invalidator: invalidator,
		log:         log,
		now:         time.Now,
	}
}

// Submit 校验并写入周报，同一 (提交人, 周次, 年份) 覆盖旧记录，返回记录 ID
func (s *ReportService) Submit(ctx context.Context, req *dto.SubmitReportRequest) (int64, error) {
	report, err := s.Store(ctx, req)
	if err != nil {
		return 0, err
	}
	return report.ID, nil
}

// Store 同 Submit，返回落库后的完整记录
func (s *ReportService) Store(ctx context.Context, req *dto.SubmitReportRequest) (*model.WeeklyReport, error) {
	report, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.reportRepo.Upsert(ctx, report); err != nil {
		return nil, &StoreError{Op: "upsert report", Err: err}
	}

	invalidateWeek(ctx, s.invalidator, s.log, report.WeekNumber, report.Year)

	s.log.Info("report stored", "report_id", report.ID, "submitter", report.Submitter,
		"week", report.WeekNumber, "year", report.Year)
	return report, nil
}

// Validate 校验请求并构造待写入的周报，不访问存储
func (s *ReportService) Validate(req *dto.SubmitReportRequest) (*model.WeeklyReport, error) {
	submitter := strings.TrimSpace(req.Submitter)
	if submitter == "" {
		return nil, invalid("submitter", "is required")
	}
	if req.WeekNumber < 1 || req.WeekNumber > 53 {
		return nil, invalid("week_number", "must be between 1 and 53, got %d", req.WeekNumber)
	}
	if current := s.now().Year(); req.Year < current-1 || req.Year > current+1 {
		return nil, invalid("year", "must be within one year of %d, got %d", current, req.Year)
	}
	if !contains(s.org.Ratings, req.ProductivityRating) {
		return nil, invalid("productivity_rating", "unknown rating %q", req.ProductivityRating)
	}
	if req.ProductiveTime != "" && !contains(s.org.TimeSlots, req.ProductiveTime) {
		return nil, invalid("productive_time", "unknown time slot %q", req.ProductiveTime)
	}
	if req.ProductivePlace != "" && !contains(s.org.Locations, req.ProductivePlace) {
		return nil, invalid("productive_place", "unknown location %q", req.ProductivePlace)
	}
	for _, sg := range req.Suggestions {
		if !contains(s.org.Suggestions, sg) {
			return nil, invalid("productivity_suggestions", "unknown suggestion %q", sg)
		}
	}

	completed := cleanTasks(req.CompletedTasks)
	pending := cleanTasks(req.PendingTasks)
	if len(completed) == 0 && len(pending) == 0 {
		return nil, invalid("completed_tasks", "at least one completed or pending task is required")
	}

	projects := make([]model.Project, 0, len(req.Projects))
	for _, p := range req.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, invalid("projects", "project name is required")
		}
		if p.Completion < 0 || p.Completion > 100 {
			return nil, invalid("projects", "completion of %q must be between 0 and 100", name)
		}
		projects = append(projects, model.Project{Name: name, Completion: p.Completion})
	}

	peers := model.PeerEvaluations{}
	for name, eval := range req.PeerEvaluations {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, invalid("peer_evaluations", "peer name is required")
		}
		if eval.Rating < 1 || eval.Rating > 4 {
			return nil, invalid("peer_evaluations", "rating for %s must be between 1 and 4", name)
		}
		peers[name] = model.PeerEvaluation{Rating: eval.Rating, Comment: strings.TrimSpace(eval.Comment)}
	}

	suggestions := model.StringArray{}
	suggestions = append(suggestions, req.Suggestions...)

	return &model.WeeklyReport{
		Submitter:           submitter,
		Team:                s.org.TeamOf(submitter),
		WeekNumber:          req.WeekNumber,
		Year:                req.Year,
		CompletedTasks:      completed,
		PendingTasks:        pending,
		DroppedTasks:        cleanTasks(req.DroppedTasks),
		Projects:            datatypes.NewJSONType(projects),
		ProductivityRating:  req.ProductivityRating,
		ProductivityDetails: strings.TrimSpace(req.ProductivityDetails),
		ProductiveTime:      req.ProductiveTime,
		ProductivePlace:     req.ProductivePlace,
		Suggestions:         suggestions,
		PeerEvaluations:     datatypes.NewJSONType(peers),
	}, nil
}

// Get 获取周报
func (s *ReportService) Get(ctx context.Context, id int64) (*model.WeeklyReport, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get report", "report", id, err)
	}
	return report, nil
}

// Options 表单需要的名单和枚举
func (s *ReportService) Options() *dto.OptionsResponse {
	year, week := s.now().ISOWeek()

	teams := make([]dto.TeamOption, len(s.org.Teams))
	for i, t := range s.org.Teams {
		teams[i] = dto.TeamOption{Name: t.Name, Members: t.Members}
	}

	return &dto.OptionsResponse{
		Teams:       teams,
		Ratings:     s.org.Ratings,
		Suggestions: s.org.Suggestions,
		TimeSlots:   s.org.TimeSlots,
		Locations:   s.org.Locations,
		CurrentWeek: week,
		CurrentYear: year,
	}
}

func cleanTasks(tasks []string) model.StringArray {
	out := model.StringArray{}
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
