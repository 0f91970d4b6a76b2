package monitoring

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("classification")
	m.RecordRequest("classification")
	m.RecordRequest("regression")
	m.RecordFailure("regression")
	m.RecordValidationFailure()
	m.RecordClassification(1)
	m.RecordClassification(0)
	m.RecordClassification(0)
	m.RecordCost(100)
	m.RecordCost(300)
	m.RecordFallbacks([]string{"Maintenance_Level", "Gender"})
	m.RecordFallbacks([]string{"Maintenance_Level"})
	m.RecordFallbacks(nil)

	s := m.Snapshot()
	if s.Requests["classification"] != 2 || s.Requests["regression"] != 1 {
		t.Fatalf("unexpected requests %v", s.Requests)
	}
	if s.Failures["regression"] != 1 || s.ValidationFailures != 1 {
		t.Fatalf("unexpected failures %v / %d", s.Failures, s.ValidationFailures)
	}
	if s.HighRisk != 1 || s.LowRisk != 2 {
		t.Fatalf("unexpected categories %d/%d", s.HighRisk, s.LowRisk)
	}
	if s.MeanCost != 200 {
		t.Fatalf("expected mean cost 200, got %v", s.MeanCost)
	}
	if s.Fallbacks["Maintenance_Level"] != 2 || s.Fallbacks["Gender"] != 1 {
		t.Fatalf("unexpected fallbacks %v", s.Fallbacks)
	}
	if len(s.FallbackColumns) != 2 || s.FallbackColumns[0] != "Gender" {
		t.Fatalf("expected sorted fallback columns, got %v", s.FallbackColumns)
	}
	if s.LastArtifactEvent != nil {
		t.Fatalf("no artifact event recorded yet")
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.RecordArtifactEvent(at)
	s = m.Snapshot()
	if s.ArtifactEvents != 1 || s.LastArtifactEvent == nil || !s.LastArtifactEvent.Equal(at) {
		t.Fatalf("artifact event not recorded: %+v", s)
	}
}

func TestMetricsConcurrentUse(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("classification")
			m.RecordFallbacks([]string{"Gender"})
			_ = m.Snapshot()
		}()
	}
	wg.Wait()
	if got := m.Snapshot().Requests["classification"]; got != 50 {
		t.Fatalf("expected 50 requests, got %d", got)
	}
}

func TestRecordCostIgnoresNonFinite(t *testing.T) {
	m := NewMetrics()
	m.RecordCost(100)
	m.RecordCost(math.Inf(1))
	m.RecordCost(math.NaN())

	s := m.Snapshot()
	if s.MeanCost != 100 {
		t.Fatalf("expected mean cost 100, got %v", s.MeanCost)
	}
	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("snapshot not encodable: %v", err)
	}
}
