package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/pkg/llm"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/pkg/pubsub"
	"github.com/qs3c/wpr_server/internal/repository"
	"github.com/qs3c/wpr_server/internal/testutil"
)

// 固定时钟：2024 年第 10 周
var testNow = time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testConfig() *config.Config {
	return &config.Config{
		Organization: config.OrganizationConfig{
			Teams: []config.TeamConfig{
				{Name: "Backend Team", Members: []string{"alice", "bob"}},
				{Name: "Frontend Team", Members: []string{"carol", "dave"}},
			},
			Ratings:      config.DefaultRatings(),
			Suggestions:  config.DefaultSuggestions(),
			TimeSlots:    []string{"8am - 12nn", "12nn - 4pm", "4pm - 8pm", "8pm - 12mn"},
			Locations:    []string{"Office", "Home"},
			HRRecipients: []string{"hr@example.com"},
		},
		Dashboard: config.DashboardConfig{HistoryLimit: 5},
	}
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	last  *llm.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Model: "fake-model", InputTokens: 100, OutputTokens: 200}, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func validAnalysisJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(testutil.SamplePayload())
	if err != nil {
		t.Fatalf("marshal sample payload: %v", err)
	}
	return string(data)
}

type fakeMailer struct {
	to      []string
	subject string
	body    string
	calls   int
	err     error
}

func (m *fakeMailer) SendHTML(ctx context.Context, to []string, subject, body string) error {
	m.calls++
	m.to = to
	m.subject = subject
	m.body = body
	return m.err
}

type fakePoster struct {
	name  string
	texts []string
	err   error
}

func (p *fakePoster) Post(ctx context.Context, text string) error {
	p.texts = append(p.texts, text)
	return p.err
}

func (p *fakePoster) Name() string { return p.name }

type fakePublisher struct {
	events []*pubsub.ReportEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, evt *pubsub.ReportEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

func (p *fakePublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeInvalidator struct {
	weeks [][2]int
}

func (f *fakeInvalidator) InvalidateWeek(ctx context.Context, week, year int) error {
	f.weeks = append(f.weeks, [2]int{week, year})
	return nil
}

var errBoom = errors.New("boom")

type testEnv struct {
	db           *gorm.DB
	cfg          *config.Config
	reportRepo   *repository.ReportRepository
	analysisRepo *repository.AnalysisRepository
	reports      *ReportService
	analysis     *AnalysisService
	gen          *fakeGenerator
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := testConfig()
	reportRepo := repository.NewReportRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	gen := &fakeGenerator{text: validAnalysisJSON(t)}

	reports := NewReportService(reportRepo, cfg, nil, logger.Nop())
	reports.now = fixedClock

	analysis := NewAnalysisService(reportRepo, analysisRepo, gen, 4000, nil, logger.Nop())
	analysis.now = fixedClock

	return &testEnv{
		db:           db,
		cfg:          cfg,
		reportRepo:   reportRepo,
		analysisRepo: analysisRepo,
		reports:      reports,
		analysis:     analysis,
		gen:          gen,
	}
}
