package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListPredictions(t *testing.T) {
	store := openStore(t)
	category, prob, cost := 1, 0.8123, 2439.6
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &Prediction{
		RequestID:   "req-1",
		Kind:        KindClassification,
		Category:    &category,
		Probability: &prob,
		Fallbacks:   []string{ml.ColMaintenanceLevel},
		Input:       ml.SampleApplication(),
		CreatedAt:   base,
	}
	second := &Prediction{
		Kind:      KindRegression,
		Cost:      &cost,
		Input:     ml.SampleApplication(),
		CreatedAt: base.Add(time.Minute),
	}
	for _, p := range []*Prediction{first, second} {
		if err := store.SavePrediction(p); err != nil {
			t.Fatalf("save: %v", err)
		}
		if p.ID == "" {
			t.Fatalf("expected generated id")
		}
	}

	rows, err := store.RecentPredictions(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Kind != KindRegression || rows[0].Cost == nil || *rows[0].Cost != cost {
		t.Fatalf("expected newest regression row first, got %+v", rows[0])
	}
	if rows[0].Category != nil {
		t.Fatalf("regression row must not carry a category")
	}
	if rows[1].Probability == nil || *rows[1].Probability != prob {
		t.Fatalf("unexpected classification row %+v", rows[1])
	}
	if len(rows[1].Fallbacks) != 1 || rows[1].Fallbacks[0] != ml.ColMaintenanceLevel {
		t.Fatalf("unexpected fallbacks %v", rows[1].Fallbacks)
	}
	if rows[1].Input != ml.SampleApplication() {
		t.Fatalf("input not round-tripped: %+v", rows[1].Input)
	}

	limited, err := store.RecentPredictions(1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one row, got %d (%v)", len(limited), err)
	}
}

func TestSavePredictionRejectsUnknownKind(t *testing.T) {
	store := openStore(t)
	if err := store.SavePrediction(&Prediction{Kind: "forecast"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if err := store.SavePrediction(&Prediction{Kind: KindRegression}); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestArtifactLoads(t *testing.T) {
	store := openStore(t)
	err := store.RecordArtifactLoad(ArtifactLoad{
		Dir:               "models",
		ClassifierType:    ml.KindRandomForest,
		RegressorType:     ml.KindGradientBoosting,
		DecisionThreshold: 0.5,
		FeatureCount:      20,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	loads, err := store.ArtifactLoads()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loads) != 1 || loads[0].FeatureCount != 20 || loads[0].LoadedAt.IsZero() {
		t.Fatalf("unexpected loads %+v", loads)
	}
}
