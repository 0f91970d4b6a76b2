package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wwwlqh/insurance-risk-modeling/db"
	"github.com/wwwlqh/insurance-risk-modeling/ml"
	"github.com/wwwlqh/insurance-risk-modeling/monitoring"
	"github.com/wwwlqh/insurance-risk-modeling/scoring"
	"github.com/wwwlqh/insurance-risk-modeling/validation"
)

const (
	rootMessage         = "Insurance Risk API is running."
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Scorer is the prediction core the handlers call.
type Scorer interface {
	Classify(app ml.Application) (scoring.ClassificationResult, error)
	EstimateCost(app ml.Application) (scoring.RegressionResult, error)
	Info() scoring.ModelInfo
}

// Dependencies wires the API. Store, Hub and Stale may be nil.
type Dependencies struct {
	Scorer    Scorer
	Validator *validation.Validator
	Metrics   *monitoring.Metrics
	Store     *db.Store
	Hub       *monitoring.Hub
	Stale     func() bool
	Logger    *zap.Logger
}

// API serves the prediction routes.
type API struct {
	deps Dependencies
}

func NewAPI(deps Dependencies) *API {
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &API{deps: deps}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModel)
	mux.HandleFunc("GET /api/metrics", a.handleMetrics)
	mux.HandleFunc("GET /api/predictions", a.handlePredictions)
	mux.HandleFunc("POST /predict/classification", a.handleClassification)
	mux.HandleFunc("POST /predict/regression", a.handleRegression)
	if a.deps.Hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", a.deps.Hub.HandleWebSocket)
	}
}

type errorBody struct {
	Error   string                  `json:"error"`
	Details string                  `json:"details,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type healthBody struct {
	Status         string `json:"status"`
	ArtifactsStale bool   `json:"artifacts_stale"`
}

type modelBody struct {
	scoring.ModelInfo
	LoadHistory []db.ArtifactLoad `json:"load_history,omitempty"`
}

type metricsBody struct {
	monitoring.Snapshot
	FeedClients int `json:"feed_clients"`
}

// feedEvent is what the websocket feed and audit log see of one prediction.
type feedEvent struct {
	RequestID   string   `json:"request_id"`
	Category    *int     `json:"risk_category,omitempty"`
	Label       string   `json:"risk_label,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	Cost        *float64 `json:"expected_claim_cost,omitempty"`
	Fallbacks   []string `json:"fallback_columns,omitempty"`
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, map[string]string{"message": rootMessage})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	stale := a.deps.Stale != nil && a.deps.Stale()
	a.respond(w, r, http.StatusOK, healthBody{Status: "ok", ArtifactsStale: stale})
}

func (a *API) handleModel(w http.ResponseWriter, r *http.Request) {
	body := modelBody{ModelInfo: a.deps.Scorer.Info()}
	if a.deps.Store != nil {
		loads, err := a.deps.Store.ArtifactLoads()
		if err != nil {
			a.deps.Logger.Warn("list artifact loads", zap.Error(err))
		}
		body.LoadHistory = loads
	}
	a.respond(w, r, http.StatusOK, body)
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	body := metricsBody{Snapshot: a.deps.Metrics.Snapshot()}
	if a.deps.Hub != nil {
		body.FeedClients = a.deps.Hub.ClientCount()
	}
	a.respond(w, r, http.StatusOK, body)
}

func (a *API) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			a.respond(w, r, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	if a.deps.Store == nil {
		a.respond(w, r, http.StatusOK, map[string]any{"predictions": []db.Prediction{}})
		return
	}
	rows, err := a.deps.Store.RecentPredictions(limit)
	if err != nil {
		a.deps.Logger.Error("list predictions", zap.Error(err))
		a.respond(w, r, http.StatusInternalServerError, errorBody{Error: "could not read prediction log"})
		return
	}
	a.respond(w, r, http.StatusOK, map[string]any{"predictions": rows})
}

func (a *API) handleClassification(w http.ResponseWriter, r *http.Request) {
	a.deps.Metrics.RecordRequest(db.KindClassification)
	app, ok := a.decodeApplication(w, r)
	if !ok {
		return
	}

	res, err := a.deps.Scorer.Classify(app)
	if err != nil {
		a.predictionFailed(w, r, db.KindClassification, err)
		return
	}
	a.deps.Metrics.RecordClassification(res.Category)
	a.deps.Metrics.RecordFallbacks(res.Fallbacks)

	event := feedEvent{
		RequestID:   GetRequestID(r.Context()),
		Category:    &res.Category,
		Label:       res.Label,
		Probability: &res.Probability,
		Fallbacks:   res.Fallbacks,
	}
	a.record(db.KindClassification, app, event)
	a.publish(monitoring.ClassificationEvent, event)

	a.respond(w, r, http.StatusOK, res)
}

func (a *API) handleRegression(w http.ResponseWriter, r *http.Request) {
	a.deps.Metrics.RecordRequest(db.KindRegression)
	app, ok := a.decodeApplication(w, r)
	if !ok {
		return
	}

	res, err := a.deps.Scorer.EstimateCost(app)
	if err != nil {
		a.predictionFailed(w, r, db.KindRegression, err)
		return
	}
	a.deps.Metrics.RecordCost(res.Cost)
	a.deps.Metrics.RecordFallbacks(res.Fallbacks)

	event := feedEvent{
		RequestID: GetRequestID(r.Context()),
		Cost:      &res.Cost,
		Fallbacks: res.Fallbacks,
	}
	a.record(db.KindRegression, app, event)
	a.publish(monitoring.RegressionEvent, event)

	a.respond(w, r, http.StatusOK, res)
}

// decodeApplication writes the error response itself and reports false when
// the body is unusable.
func (a *API) decodeApplication(w http.ResponseWriter, r *http.Request) (ml.Application, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		a.respond(w, r, status, errorBody{Error: "invalid request body", Details: err.Error()})
		return ml.Application{}, false
	}

	app, err := a.deps.Validator.Decode(body)
	if err != nil {
		a.deps.Metrics.RecordValidationFailure()
		fields, ok := validation.AsErrors(err)
		if !ok {
			fields = []validation.FieldError{{Field: "body", Message: err.Error()}}
		}
		a.respond(w, r, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: fields})
		return ml.Application{}, false
	}
	return app, true
}

func (a *API) predictionFailed(w http.ResponseWriter, r *http.Request, kind string, err error) {
	a.deps.Metrics.RecordFailure(kind)
	a.deps.Logger.Error("prediction failed",
		zap.String("kind", kind),
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err),
	)
	a.respond(w, r, http.StatusUnprocessableEntity, errorBody{Error: "prediction failed", Details: err.Error()})
}

// record writes the audit row. Failures are logged, never surfaced.
func (a *API) record(kind string, app ml.Application, event feedEvent) {
	if a.deps.Store == nil {
		return
	}
	err := a.deps.Store.SavePrediction(&db.Prediction{
		RequestID:   event.RequestID,
		Kind:        kind,
		Category:    event.Category,
		Probability: event.Probability,
		Cost:        event.Cost,
		Fallbacks:   event.Fallbacks,
		Input:       app,
	})
	if err != nil {
		a.deps.Logger.Warn("audit write failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (a *API) publish(kind monitoring.MessageType, event feedEvent) {
	if a.deps.Hub == nil {
		return
	}
	if err := a.deps.Hub.Publish(kind, event); err != nil {
		a.deps.Logger.Warn("feed publish failed", zap.Error(err))
	}
}

// respond writes data and logs a body that could not be encoded.
func (a *API) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := respondJSON(w, status, data); err != nil {
		a.deps.Logger.Error("encode response",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
}

// respondJSON encodes data before writing the header, so a value that cannot
// be encoded becomes a 500 rather than an empty 2xx body.
func respondJSON(w http.ResponseWriter, status int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
	return err
}
