package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

const (
	KindClassification = "classification"
	KindRegression     = "regression"
)

var ErrNotInitialized = errors.New("database not initialized")

// Store is the SQLite audit log of served predictions.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite3 serializes writers; one connection avoids SQLITE_BUSY.
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id TEXT PRIMARY KEY,
        request_id TEXT,
        kind TEXT NOT NULL,
        risk_category INTEGER,
        probability REAL,
        expected_claim_cost REAL,
        fallback_columns TEXT,
        input TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    CREATE TABLE IF NOT EXISTS artifact_loads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dir TEXT NOT NULL,
        classifier_type VARCHAR(50),
        regressor_type VARCHAR(50),
        decision_threshold REAL,
        feature_count INTEGER,
        loaded_at DATETIME NOT NULL
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prediction is one audit row.
type Prediction struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id,omitempty"`
	Kind        string         `json:"kind"`
	Category    *int           `json:"risk_category,omitempty"`
	Probability *float64       `json:"probability,omitempty"`
	Cost        *float64       `json:"expected_claim_cost,omitempty"`
	Fallbacks   []string       `json:"fallback_columns,omitempty"`
	Input       ml.Application `json:"input"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SavePrediction inserts p, assigning an id and timestamp when missing.
func (s *Store) SavePrediction(p *Prediction) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if p.Kind != KindClassification && p.Kind != KindRegression {
		return errors.New("prediction kind must be classification or regression")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	input, err := json.Marshal(p.Input)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
        INSERT INTO predictions (
            id, request_id, kind, risk_category, probability,
            expected_claim_cost, fallback_columns, input, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.RequestID, p.Kind, p.Category, p.Probability,
		p.Cost, strings.Join(p.Fallbacks, ","), string(input), p.CreatedAt)
	return err
}

// RecentPredictions returns up to limit rows, newest first.
func (s *Store) RecentPredictions(limit int) ([]Prediction, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
        SELECT id, request_id, kind, risk_category, probability,
               expected_claim_cost, fallback_columns, input, created_at
        FROM predictions
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var (
			p         Prediction
			requestID sql.NullString
			category  sql.NullInt64
			prob      sql.NullFloat64
			cost      sql.NullFloat64
			fallbacks sql.NullString
			input     string
		)
		if err := rows.Scan(&p.ID, &requestID, &p.Kind, &category, &prob, &cost, &fallbacks, &input, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.RequestID = requestID.String
		if category.Valid {
			c := int(category.Int64)
			p.Category = &c
		}
		if prob.Valid {
			p.Probability = &prob.Float64
		}
		if cost.Valid {
			p.Cost = &cost.Float64
		}
		if fallbacks.Valid && fallbacks.String != "" {
			p.Fallbacks = strings.Split(fallbacks.String, ",")
		}
		if err := json.Unmarshal([]byte(input), &p.Input); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// ArtifactLoad records one successful bundle load.
type ArtifactLoad struct {
	Dir               string    `json:"dir"`
	ClassifierType    string    `json:"classifier_type"`
	RegressorType     string    `json:"regressor_type"`
	DecisionThreshold float64   `json:"decision_threshold"`
	FeatureCount      int       `json:"feature_count"`
	LoadedAt          time.Time `json:"loaded_at"`
}

func (s *Store) RecordArtifactLoad(load ArtifactLoad) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if load.LoadedAt.IsZero() {
		load.LoadedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
        INSERT INTO artifact_loads (dir, classifier_type, regressor_type, decision_threshold, feature_count, loaded_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		load.Dir, load.ClassifierType, load.RegressorType, load.DecisionThreshold, load.FeatureCount, load.LoadedAt)
	return err
}

func (s *Store) ArtifactLoads() ([]ArtifactLoad, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.Query(`
        SELECT dir, classifier_type, regressor_type, decision_threshold, feature_count, loaded_at
        FROM artifact_loads
        ORDER BY loaded_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]ArtifactLoad, 0)
	for rows.Next() {
		var load ArtifactLoad
		if err := rows.Scan(&load.Dir, &load.ClassifierType, &load.RegressorType, &load.DecisionThreshold, &load.FeatureCount, &load.LoadedAt); err != nil {
			return nil, err
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}
