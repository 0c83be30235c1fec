package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/model"
	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/cache"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/repository"
)

// DashboardCache 看板汇总缓存，由 cache.Cache 实现
type DashboardCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	WeekKey(week, year int, name string) string
	GlobalKey(name string) string
}

// unassignedTeam 不在名单中的提交人归入此组
const unassignedTeam = "Unassigned"

// DashboardService 只读查询
type DashboardService struct {
	reportRepo   *repository.ReportRepository
	analysisRepo *repository.AnalysisRepository
	org          *config.OrganizationConfig
	cache        DashboardCache
	historyLimit int
	log          *logger.Logger
	now          func() time.Time
}

// NewDashboardService c 为 nil 时不使用缓存
func NewDashboardService(
	reportRepo *repository.ReportRepository,
	analysisRepo *repository.AnalysisRepository,
	cfg *config.Config,
	c DashboardCache,
	log *logger.Logger,
) *DashboardService {
	limit := cfg.Dashboard.HistoryLimit
	if limit <= 0 {
		limit = 5
	}
	return &DashboardService{
		reportRepo:   reportRepo,
		analysisRepo: analysisRepo,
		org:          &cfg.Organization,
		cache:        c,
		historyLimit: limit,
		log:          log,
		now:          time.Now,
	}
}

// WeekReports 某周周报，按提交人升序，submitter 非空时只返回该人
func (s *DashboardService) WeekReports(ctx context.Context, week, year int, submitter string) ([]*model.WeeklyReport, error) {
	if err := checkPeriod(week, year); err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.ListByWeek(ctx, week, year, strings.TrimSpace(submitter))
	if err != nil {
		return nil, &StoreError{Op: "list reports", Err: err}
	}
	return reports, nil
}

// WeekReportsWithAnalysis 某周周报及各自的分析
func (s *DashboardService) WeekReportsWithAnalysis(ctx context.Context, week, year int, submitter string) ([]dto.ReportWithAnalysis, error) {
	reports, err := s.WeekReports(ctx, week, year, submitter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}
	analyses, err := s.analysisRepo.MapByReportIDs(ctx, ids)
	if err != nil {
		return nil, &StoreError{Op: "list analyses", Err: err}
	}

	items := make([]dto.ReportWithAnalysis, len(reports))
	for i, r := range reports {
		items[i] = dto.ReportWithAnalysis{Report: r, Analysis: analyses[r.ID]}
	}
	return items, nil
}

// AnalysisFor 周报的分析，没有时 found 为 false
func (s *DashboardService) AnalysisFor(ctx context.Context, reportID int64) (*model.HRAnalysis, bool, error) {
	analysis, err := s.analysisRepo.FindByReportID(ctx, reportID)
	if err != nil {
		return nil, false, &StoreError{Op: "find analysis", Err: err}
	}
	return analysis, analysis != nil, nil
}

// WeekSummary 某周汇总
func (s *DashboardService) WeekSummary(ctx context.Context, week, year int) (*dto.WeekSummary, error) {
	if err := checkPeriod(week, year); err != nil {
		return nil, err
	}

	return cached(ctx, s, s.weekKey(week, year, "summary"), func() (*dto.WeekSummary, error) {
		reports, err := s.reportRepo.ListByWeek(ctx, week, year, "")
		if err != nil {
			return nil, &StoreError{Op: "list reports", Err: err}
		}

		ids := make([]int64, len(reports))
		for i, r := range reports {
			ids[i] = r.ID
		}
		analysed, err := s.analysisRepo.CountByReportIDs(ctx, ids)
		if err != nil {
			return nil, &StoreError{Op: "count analyses", Err: err}
		}

		summary := &dto.WeekSummary{
			WeekNumber:    week,
			Year:          year,
			ReportCount:   len(reports),
			AnalysisCount: int(analysed),
		}
		var scores avg
		var completionSum float64
		var withProjects int
		for _, r := range reports {
			summary.CompletedTasks += len(r.CompletedTasks)
			summary.PendingTasks += len(r.PendingTasks)
			summary.DroppedTasks += len(r.DroppedTasks)
			scores.add(s.ratingScore(r.ProductivityRating))
			if len(r.ProjectList()) > 0 {
				completionSum += r.AverageProjectCompletion()
				withProjects++
			}
		}
		summary.AverageProductivity = scores.value()
		if withProjects > 0 {
			summary.AverageProjectCompletion = round2(completionSum / float64(withProjects))
		}
		return summary, nil
	})
}

// TeamSummary 按团队汇总某周数据，名单中的团队即使无人提交也会出现
func (s *DashboardService) TeamSummary(ctx context.Context, week, year int) ([]dto.TeamSummary, error) {
	if err := checkPeriod(week, year); err != nil {
		return nil, err
	}

	return cached(ctx, s, s.weekKey(week, year, "teams"), func() ([]dto.TeamSummary, error) {
		reports, err := s.reportRepo.ListByWeek(ctx, week, year, "")
		if err != nil {
			return nil, &StoreError{Op: "list reports", Err: err}
		}

		order := make([]string, 0, len(s.org.Teams))
		byTeam := map[string]*dto.TeamSummary{}
		scores := map[string]*avg{}
		for _, t := range s.org.Teams {
			order = append(order, t.Name)
			byTeam[t.Name] = &dto.TeamSummary{Team: t.Name, RosterSize: len(t.Members)}
			scores[t.Name] = &avg{}
		}

		for _, r := range reports {
			team := r.Team
			if team == "" {
				team = unassignedTeam
			}
			ts, ok := byTeam[team]
			if !ok {
				order = append(order, team)
				ts = &dto.TeamSummary{Team: team}
				byTeam[team] = ts
				scores[team] = &avg{}
			}
			ts.ReportCount++
			ts.CompletedTasks += len(r.CompletedTasks)
			ts.PendingTasks += len(r.PendingTasks)
			ts.DroppedTasks += len(r.DroppedTasks)
			scores[team].add(s.ratingScore(r.ProductivityRating))
		}

		out := make([]dto.TeamSummary, 0, len(order))
		for _, name := range order {
			ts := byTeam[name]
			ts.AverageProductivity = scores[name].value()
			out = append(out, *ts)
		}
		return out, nil
	})
}

// Trend 最近 weeks 周（含本周）的平均生产力，按时间升序，只包含有提交的周
func (s *DashboardService) Trend(ctx context.Context, weeks int) ([]dto.TrendPoint, error) {
	if weeks <= 0 {
		return nil, invalid("weeks", "must be positive")
	}

	fromYear, fromWeek := s.now().AddDate(0, 0, -7*(weeks-1)).ISOWeek()
	key := s.globalKey(fmt.Sprintf("trend:%d-W%02d:%d", fromYear, fromWeek, weeks))

	return cached(ctx, s, key, func() ([]dto.TrendPoint, error) {
		rows, err := s.reportRepo.ListRatingsSince(ctx, fromYear, fromWeek)
		if err != nil {
			return nil, &StoreError{Op: "list ratings", Err: err}
		}

		points := []dto.TrendPoint{}
		var scores avg
		for _, row := range rows {
			n := len(points)
			if n == 0 || points[n-1].Year != row.Year || points[n-1].WeekNumber != row.WeekNumber {
				if n > 0 {
					points[n-1].AverageProductivity = scores.value()
				}
				points = append(points, dto.TrendPoint{Year: row.Year, WeekNumber: row.WeekNumber})
				scores = avg{}
			}
			points[len(points)-1].ReportCount++
			scores.add(s.ratingScore(row.ProductivityRating))
		}
		if n := len(points); n > 0 {
			points[n-1].AverageProductivity = scores.value()
		}
		return points, nil
	})
}

// SubmitterHistory 某人最近的周报，新的在前
func (s *DashboardService) SubmitterHistory(ctx context.Context, submitter string, limit int) ([]*model.WeeklyReport, error) {
	submitter = strings.TrimSpace(submitter)
	if submitter == "" {
		return nil, invalid("submitter", "is required")
	}
	if limit <= 0 || limit > 52 {
		limit = s.historyLimit
	}

	reports, err := s.reportRepo.ListBySubmitter(ctx, submitter, limit)
	if err != nil {
		return nil, &StoreError{Op: "list history", Err: err}
	}
	return reports, nil
}

// MissingSubmitters 名单中某周尚未提交的成员
func (s *DashboardService) MissingSubmitters(ctx context.Context, week, year int) (*dto.MissingResponse, error) {
	if err := checkPeriod(week, year); err != nil {
		return nil, err
	}

	names, err := s.reportRepo.ListSubmittersForWeek(ctx, week, year)
	if err != nil {
		return nil, &StoreError{Op: "list submitters", Err: err}
	}
	submitted := make(map[string]bool, len(names))
	for _, n := range names {
		submitted[strings.ToLower(n)] = true
	}

	resp := &dto.MissingResponse{WeekNumber: week, Year: year, Members: []dto.MissingMember{}}
	for _, team := range s.org.Teams {
		for _, m := range team.Members {
			if !submitted[strings.ToLower(m)] {
				resp.Members = append(resp.Members, dto.MissingMember{Name: m, Team: team.Name})
			}
		}
	}
	return resp, nil
}

var exportHeader = []string{
	"submitter", "team", "week_number", "year", "productivity_rating",
	"completed_tasks", "pending_tasks", "dropped_tasks", "projects",
	"productive_time", "productive_place", "productivity_suggestions",
	"peer_evaluations", "productivity_details", "updated_at",
}

// ExportCSV 某周周报导出为 CSV，返回内容和行数
func (s *DashboardService) ExportCSV(ctx context.Context, week, year int) ([]byte, int, error) {
	reports, err := s.WeekReports(ctx, week, year, "")
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, 0, err
	}
	for _, r := range reports {
		projects := make([]string, 0, len(r.ProjectList()))
		for _, p := range r.ProjectList() {
			projects = append(projects, fmt.Sprintf("%s (%g%%)", p.Name, p.Completion))
		}

		peers := r.Peers()
		names := make([]string, 0, len(peers))
		for name := range peers {
			names = append(names, name)
		}
		sort.Strings(names)
		evals := make([]string, 0, len(names))
		for _, name := range names {
			evals = append(evals, fmt.Sprintf("%s: %d", name, peers[name].Rating))
		}

		record := []string{
			r.Submitter, r.Team, strconv.Itoa(r.WeekNumber), strconv.Itoa(r.Year), r.ProductivityRating,
			strings.Join(r.CompletedTasks, "; "), strings.Join(r.PendingTasks, "; "), strings.Join(r.DroppedTasks, "; "),
			strings.Join(projects, "; "), r.ProductiveTime, r.ProductivePlace, strings.Join(r.Suggestions, "; "),
			strings.Join(evals, "; "), r.ProductivityDetails, r.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(reports), nil
}

// ratingScore 自评在配置列表中的序号（从 1 开始），未知评分为 0
func (s *DashboardService) ratingScore(rating string) float64 {
	for i, r := range s.org.Ratings {
		if r == rating {
			return float64(i + 1)
		}
	}
	return 0
}

func (s *DashboardService) weekKey(week, year int, name string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.WeekKey(week, year, name)
}

func (s *DashboardService) globalKey(name string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.GlobalKey(name)
}

// cached 先查缓存，未命中时调用 load 并回写；缓存故障不影响查询
func cached[T any](ctx context.Context, s *DashboardService, key string, load func() (T, error)) (T, error) {
	if s.cache == nil || key == "" {
		return load()
	}

	var v T
	err := s.cache.GetJSON(ctx, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("dashboard cache read failed", "key", key, "error", err)
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		s.log.Warn("dashboard cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// avg 忽略 0 值的平均数
type avg struct {
	sum float64
	n   int
}

func (a *avg) add(v float64) {
	if v > 0 {
		a.sum += v
		a.n++
	}
}

func (a *avg) value() float64 {
	if a.n == 0 {
		return 0
	}
	return round2(a.sum / float64(a.n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func checkPeriod(week, year int) error {
	if week < 1 || week > 53 {
		return invalid("week_number", "must be between 1 and 53, got %d", week)
	}
	if year < 2000 || year > 9999 {
		return invalid("year", "invalid year %d", year)
	}
	return nil
}
