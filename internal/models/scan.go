package models

import "time"

// Feedback labels a user may attach to a scan verdict.
const (
	FeedbackCorrect   = "CORRECT"
	FeedbackIncorrect = "INCORRECT"
	FeedbackUnsure    = "UNSURE"
)

// Confidence tiers derived from the risk score.
const (
	ConfidenceLow    = "LOW"
	ConfidenceMedium = "MEDIUM"
	ConfidenceHigh   = "HIGH"
)

// ValidFeedback reports whether label is one of the accepted feedback values.
func ValidFeedback(label string) bool {
	switch label {
	case FeedbackCorrect, FeedbackIncorrect, FeedbackUnsure:
		return true
	}
	return false
}

// ScanRecord represents one classification event stored in the
// 'scan_history' table. Feedback fields stay nil until the user submits
// feedback; anonymization clears MessageText, IPAddress and UserAgent.
type ScanRecord struct {
	ID                int64      `db:"id" json:"id"`
	UserID            *string    `db:"user_id" json:"user_id,omitempty"`
	DeviceID          *string    `db:"device_id" json:"device_id,omitempty"`
	MessageText       string     `db:"message_text" json:"message_text"`
	MessageHash       string     `db:"message_hash" json:"message_hash"`
	IsPhishing        bool       `db:"is_phishing" json:"is_phishing"`
	RiskScore         float64    `db:"risk_score" json:"risk_score"`
	ConfidenceLevel   string     `db:"confidence_level" json:"confidence_level"`
	ModelVersion      string     `db:"model_version" json:"model_version"`
	PredictionTimeMs  int64      `db:"prediction_time_ms" json:"prediction_time_ms"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UserFeedback      *string    `db:"user_feedback" json:"user_feedback,omitempty"`
	FeedbackTimestamp *time.Time `db:"feedback_timestamp" json:"feedback_timestamp,omitempty"`
	IPAddress         *string    `db:"ip_address" json:"-"`
	UserAgent         *string    `db:"user_agent" json:"-"`
}

// UserStatistics is the running per-user aggregate stored in the
// 'user_statistics' table. It is created on a user's first scan and is
// never deleted, so historical totals survive scan pruning.
type UserStatistics struct {
	UserID               string     `db:"user_id" json:"user_id"`
	TotalScans           int64      `db:"total_scans" json:"total_scans"`
	PhishingDetected     int64      `db:"phishing_detected" json:"phishing_detected"`
	SafeMessages         int64      `db:"safe_messages" json:"safe_messages"`
	AverageRiskScore     float64    `db:"average_risk_score" json:"average_risk_score"`
	HighestRiskScore     float64    `db:"highest_risk_score" json:"highest_risk_score"`
	FirstScanDate        *time.Time `db:"first_scan_date" json:"first_scan_date,omitempty"`
	LastScanDate         *time.Time `db:"last_scan_date" json:"last_scan_date,omitempty"`
	FeedbackProvided     int64      `db:"feedback_provided" json:"feedback_provided"`
	CorrectPredictions   int64      `db:"correct_predictions" json:"correct_predictions"`
	IncorrectPredictions int64      `db:"incorrect_predictions" json:"incorrect_predictions"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// ModelMetricsDaily is one row per (model_version, metric_date) in the
// 'model_metrics' table. Confusion counters are filled in by delayed
// user feedback against the original prediction of that day.
type ModelMetricsDaily struct {
	ModelVersion        string    `db:"model_version" json:"model_version"`
	MetricDate          time.Time `db:"metric_date" json:"metric_date"`
	TotalPredictions    int64     `db:"total_predictions" json:"total_predictions"`
	PhishingPredictions int64     `db:"phishing_predictions" json:"phishing_predictions"`
	SafePredictions     int64     `db:"safe_predictions" json:"safe_predictions"`
	TruePositives       int64     `db:"true_positives" json:"true_positives"`
	FalsePositives      int64     `db:"false_positives" json:"false_positives"`
	TrueNegatives       int64     `db:"true_negatives" json:"true_negatives"`
	FalseNegatives      int64     `db:"false_negatives" json:"false_negatives"`
	Precision           float64   `db:"precision" json:"precision"`
	Recall              float64   `db:"recall" json:"recall"`
	F1Score             float64   `db:"f1_score" json:"f1_score"`
	AvgInferenceTimeMs  float64   `db:"avg_inference_time_ms" json:"average_inference_time_ms"`
	MinInferenceTimeMs  int64     `db:"min_inference_time_ms" json:"min_inference_time_ms"`
	MaxInferenceTimeMs  int64     `db:"max_inference_time_ms" json:"max_inference_time_ms"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// ModelAccuracy is the feedback-derived accuracy summary for a model
// version (or all versions), summed across metric dates.
type ModelAccuracy struct {
	ModelVersion   string  `json:"model_version,omitempty"`
	TruePositives  int64   `json:"true_positives"`
	FalsePositives int64   `json:"false_positives"`
	TrueNegatives  int64   `json:"true_negatives"`
	FalseNegatives int64   `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1_score"`
}

// DuplicateGroup is one group of scans sharing a message fingerprint.
// Informational only: duplicates are still stored as independent rows.
type DuplicateGroup struct {
	MessageHash string    `db:"message_hash" json:"message_hash"`
	Count       int64     `db:"count" json:"count"`
	FirstScan   time.Time `db:"first_scan" json:"first_scan"`
}
