package monitoring

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Metrics counts served predictions. Safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	startTime          time.Time
	requests           map[string]int64
	failures           map[string]int64
	validationFailures int64
	categories         map[int]int64
	fallbacks          map[string]int64
	costSum            float64
	costCount          int64
	artifactEvents     int64
	lastArtifactEvent  time.Time
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Uptime             string           `json:"uptime"`
	Requests           map[string]int64 `json:"requests"`
	Failures           map[string]int64 `json:"failures"`
	ValidationFailures int64            `json:"validation_failures"`
	HighRisk           int64            `json:"high_risk"`
	LowRisk            int64            `json:"low_risk"`
	MeanCost           float64          `json:"mean_expected_claim_cost"`
	Fallbacks          map[string]int64 `json:"fallbacks"`
	FallbackColumns    []string         `json:"fallback_columns"`
	ArtifactEvents     int64            `json:"artifact_events"`
	LastArtifactEvent  *time.Time       `json:"last_artifact_event,omitempty"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime:  time.Now(),
		requests:   make(map[string]int64),
		failures:   make(map[string]int64),
		categories: make(map[int]int64),
		fallbacks:  make(map[string]int64),
	}
}

func (m *Metrics) RecordRequest(kind string) {
	m.mu.Lock()
	m.requests[kind]++
	m.mu.Unlock()
}

func (m *Metrics) RecordFailure(kind string) {
	m.mu.Lock()
	m.failures[kind]++
	m.mu.Unlock()
}

func (m *Metrics) RecordValidationFailure() {
	m.mu.Lock()
	m.validationFailures++
	m.mu.Unlock()
}

// RecordClassification counts one served risk category.
func (m *Metrics) RecordClassification(category int) {
	m.mu.Lock()
	m.categories[category]++
	m.mu.Unlock()
}

// RecordCost adds one served cost to the running mean. Non-finite costs are
// ignored so the snapshot stays encodable.
func (m *Metrics) RecordCost(cost float64) {
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return
	}
	m.mu.Lock()
	m.costSum += cost
	m.costCount++
	m.mu.Unlock()
}

// RecordFallbacks counts unseen categories per encoded column.
func (m *Metrics) RecordFallbacks(columns []string) {
	if len(columns) == 0 {
		return
	}
	m.mu.Lock()
	for _, column := range columns {
		m.fallbacks[column]++
	}
	m.mu.Unlock()
}

func (m *Metrics) RecordArtifactEvent(at time.Time) {
	m.mu.Lock()
	m.artifactEvents++
	m.lastArtifactEvent = at
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(m.startTime).Round(time.Second).String(),
		Requests:           copyCounts(m.requests),
		Failures:           copyCounts(m.failures),
		ValidationFailures: m.validationFailures,
		HighRisk:           m.categories[1],
		LowRisk:            m.categories[0],
		Fallbacks:          copyCounts(m.fallbacks),
		FallbackColumns:    make([]string, 0, len(m.fallbacks)),
		ArtifactEvents:     m.artifactEvents,
	}
	if m.costCount > 0 {
		s.MeanCost = m.costSum / float64(m.costCount)
	}
	for column := range m.fallbacks {
		s.FallbackColumns = append(s.FallbackColumns, column)
	}
	sort.Strings(s.FallbackColumns)
	if !m.lastArtifactEvent.IsZero() {
		at := m.lastArtifactEvent
		s.LastArtifactEvent = &at
	}
	return s
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
