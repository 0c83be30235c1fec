package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/wpr_server/internal/model"
)

// reportKeyColumns 周报唯一键
var reportKeyColumns = []clause.Column{{Name: "submitter"}, {Name: "week_number"}, {Name: "year"}}

type ReportRepository struct {
	conn
}

func NewReportRepository(db *gorm.DB, opts ...Option) *ReportRepository {
	return &ReportRepository{conn: newConn(db, opts)}
}

// Upsert 按 (submitter, week_number, year) 插入或整体替换
// 单条 INSERT ... ON CONFLICT DO UPDATE，created_at 保留首次提交时间
// 成功后回填 report 的 ID 和 CreatedAt
func (r *ReportRepository) Upsert(ctx context.Context, report *model.WeeklyReport) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   reportKeyColumns,
		UpdateAll: true,
	}).Create(report).Error
	if err != nil {
		return err
	}

	// 冲突更新时部分驱动不返回真实 ID，按键回读
	stored, err := r.GetByKey(ctx, report.Submitter, report.WeekNumber, report.Year)
	if err != nil {
		return err
	}
	report.ID = stored.ID
	report.CreatedAt = stored.CreatedAt
	report.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*model.WeeklyReport, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var report model.WeeklyReport
	err := db.Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) GetByKey(ctx context.Context, submitter string, week, year int) (*model.WeeklyReport, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var report model.WeeklyReport
	err := db.
		Where("submitter = ? AND week_number = ? AND year = ?", submitter, week, year).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByWeek 获取某周的周报，submitter 非空时只取该人，按 submitter 升序
func (r *ReportRepository) ListByWeek(ctx context.Context, week, year int, submitter string) ([]*model.WeeklyReport, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var reports []*model.WeeklyReport

	query := db.Model(&model.WeeklyReport{}).
		Where("week_number = ? AND year = ?", week, year)
	if submitter != "" {
		query = query.Where("submitter = ?", submitter)
	}

	if err := query.Order("submitter ASC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ListBySubmitter 获取某人最近的周报，新的在前
func (r *ReportRepository) ListBySubmitter(ctx context.Context, submitter string, limit int) ([]*model.WeeklyReport, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var reports []*model.WeeklyReport
	err := db.
		Where("submitter = ?", submitter).
		Order("year DESC").Order("week_number DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// PeriodRating 走势统计用的精简行
type PeriodRating struct {
	Year               int
	WeekNumber         int
	Team               string
	ProductivityRating string
}

// ListRatingsSince 获取 (year, week) 不早于给定周期的评分，按周期升序
func (r *ReportRepository) ListRatingsSince(ctx context.Context, year, week int) ([]PeriodRating, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var rows []PeriodRating
	err := db.Model(&model.WeeklyReport{}).
		Select("year, week_number, team, productivity_rating").
		Where("year > ? OR (year = ? AND week_number >= ?)", year, year, week).
		Order("year ASC").Order("week_number ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSubmittersForWeek 某周已提交的人
func (r *ReportRepository) ListSubmittersForWeek(ctx context.Context, week, year int) ([]string, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var names []string
	err := db.Model(&model.WeeklyReport{}).
		Where("week_number = ? AND year = ?", week, year).
		Order("submitter ASC").
		Pluck("submitter", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CountByWeek 某周周报数
func (r *ReportRepository) CountByWeek(ctx context.Context, week, year int) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var total int64
	err := db.Model(&model.WeeklyReport{}).
		Where("week_number = ? AND year = ?", week, year).
		Count(&total).Error
	return total, err
}
