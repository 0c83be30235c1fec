package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/wpr_server/internal/model"
)

type AnalysisRepository struct {
	conn
}

func NewAnalysisRepository(db *gorm.DB, opts ...Option) *AnalysisRepository {
	return &AnalysisRepository{conn: newConn(db, opts)}
}

// Upsert 按 report_id 写入，已存在则覆盖
func (r *AnalysisRepository) Upsert(ctx context.Context, analysis *model.HRAnalysis) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}},
		UpdateAll: true,
	}).Create(analysis).Error
	if err != nil {
		return err
	}

	stored, err := r.FindByReportID(ctx, analysis.ReportID)
	if err != nil {
		return err
	}
	if stored != nil {
		analysis.ID = stored.ID
		analysis.CreatedAt = stored.CreatedAt
		analysis.UpdatedAt = stored.UpdatedAt
	}
	return nil
}

// FindByReportID 没有分析时返回 (nil, nil)
func (r *AnalysisRepository) FindByReportID(ctx context.Context, reportID int64) (*model.HRAnalysis, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var analyses []model.HRAnalysis
	err := db.Where("report_id = ?", reportID).Limit(1).Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, nil
	}
	return &analyses[0], nil
}

// MapByReportIDs 批量获取，key 为 report_id
func (r *AnalysisRepository) MapByReportIDs(ctx context.Context, reportIDs []int64) (map[int64]*model.HRAnalysis, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	result := make(map[int64]*model.HRAnalysis, len(reportIDs))
	if len(reportIDs) == 0 {
		return result, nil
	}

	var analyses []*model.HRAnalysis
	if err := db.Where("report_id IN ?", reportIDs).Find(&analyses).Error; err != nil {
		return nil, err
	}
	for _, a := range analyses {
		result[a.ReportID] = a
	}
	return result, nil
}

// CountByReportIDs 已生成分析的周报数
func (r *AnalysisRepository) CountByReportIDs(ctx context.Context, reportIDs []int64) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var total int64
	if len(reportIDs) == 0 {
		return 0, nil
	}
	err := db.Model(&model.HRAnalysis{}).
		Where("report_id IN ?", reportIDs).
		Count(&total).Error
	return total, err
}
