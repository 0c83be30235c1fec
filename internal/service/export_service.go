package service

import (
	"context"

	"github.com/qs3c/wpr_server/internal/model/dto"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

// Uploader 对象存储，由 oss.Client 实现
type Uploader interface {
	Upload(week, year int, data []byte, contentType string) (string, error)
	GetSignedURL(objectKey string, expireSeconds ...int64) (string, error)
}

// ExportService 把每周 CSV 归档到对象存储
type ExportService struct {
	dashboard *DashboardService
	uploader  Uploader
	log       *logger.Logger
}

func NewExportService(dashboard *DashboardService, uploader Uploader, log *logger.Logger) *ExportService {
	return &ExportService{dashboard: dashboard, uploader: uploader, log: log}
}

// Archive 导出某周 CSV 并上传，返回对象 key 和一小时有效的下载链接
func (s *ExportService) Archive(ctx context.Context, week, year int) (*dto.ExportResponse, error) {
	data, rows, err := s.dashboard.ExportCSV(ctx, week, year)
	if err != nil {
		return nil, err
	}

	key, err := s.uploader.Upload(week, year, data, "text/csv; charset=utf-8")
	if err != nil {
		return nil, &DeliveryError{Channel: "oss", Err: err}
	}

	url, err := s.uploader.GetSignedURL(key)
	if err != nil {
		return nil, &DeliveryError{Channel: "oss", Err: err}
	}

	s.log.Info("weekly export archived", "week", week, "year", year, "rows", rows, "object_key", key)
	return &dto.ExportResponse{ObjectKey: key, URL: url, Rows: rows}, nil
}
