package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestStringArray_ValueScan(t *testing.T) {
	var nilArr StringArray
	v, err := nilArr.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var s StringArray
	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}

func TestWeeklyReport_Metrics(t *testing.T) {
	r := &WeeklyReport{
		CompletedTasks: StringArray{"a", "b", "c"},
		PendingTasks:   StringArray{"d"},
		Projects: datatypes.NewJSONType([]Project{
			{Name: "Portal", Completion: 50},
			{Name: "Billing", Completion: 80},
		}),
	}

	assert.Equal(t, 65.0, r.AverageProjectCompletion())
	assert.Equal(t, 75.0, r.TaskCompletionRate())

	empty := &WeeklyReport{}
	assert.Equal(t, 0.0, empty.AverageProjectCompletion())
	assert.Equal(t, 0.0, empty.TaskCompletionRate())
}

func TestHRAnalysis_PayloadRoundTrip(t *testing.T) {
	p := &AnalysisPayload{
		PerformanceMetrics: PerformanceMetrics{ProductivityScore: 3},
		RiskFactors:        RiskFactors{BurnoutRisk: LevelLow},
		TeamDynamics:       TeamDynamics{TeamImpact: "steady"},
	}

	a := NewHRAnalysis(7, p, "claude", time.Unix(0, 0))
	assert.Equal(t, int64(7), a.ReportID)
	assert.Equal(t, "claude", a.ModelName)
	assert.Equal(t, *p, a.Payload())
}
