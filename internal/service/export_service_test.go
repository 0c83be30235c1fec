package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/testutil"
)

type fakeUploader struct {
	data        []byte
	contentType string
	err         error
}

func (u *fakeUploader) Upload(week, year int, data []byte, contentType string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.data = data
	u.contentType = contentType
	return fmt.Sprintf("exports/%d/wpr-%d-W%02d.csv", year, year, week), nil
}

func (u *fakeUploader) GetSignedURL(objectKey string, expireSeconds ...int64) (string, error) {
	return "https://bucket.example.com/" + objectKey + "?Signature=x", nil
}

func TestExportService_Archive(t *testing.T) {
	env, dashboard := setupDashboard(t, nil)
	testutil.TestReport(t, env.db, testutil.WithSubmitter("alice"))

	uploader := &fakeUploader{}
	svc := NewExportService(dashboard, uploader, logger.Nop())

	resp, err := svc.Archive(context.Background(), 10, 2024)
	require.NoError(t, err)

	assert.Equal(t, "exports/2024/wpr-2024-W10.csv", resp.ObjectKey)
	assert.Equal(t, 1, resp.Rows)
	assert.True(t, strings.HasPrefix(resp.URL, "https://bucket.example.com/exports/2024/"))
	assert.Contains(t, string(uploader.data), "alice")
	assert.Equal(t, "text/csv; charset=utf-8", uploader.contentType)
}

func TestExportService_Archive_UploadFailure(t *testing.T) {
	_, dashboard := setupDashboard(t, nil)
	svc := NewExportService(dashboard, &fakeUploader{err: errBoom}, logger.Nop())

	_, err := svc.Archive(context.Background(), 10, 2024)
	assert.True(t, errors.Is(err, ErrDelivery))

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "oss", de.Channel)
}
