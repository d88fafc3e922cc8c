package models

import "time"

// VolumeBucket is a scan count for one time bucket (hour or day).
type VolumeBucket struct {
	Bucket    time.Time `db:"bucket" json:"bucket"`
	ScanCount int64     `db:"scan_count" json:"scan_count"`
}

// TrendPoint is one day of the phishing-rate trend series.
type TrendPoint struct {
	Date          time.Time `db:"day" json:"date"`
	TotalScans    int64     `db:"total_scans" json:"total_scans"`
	PhishingCount int64     `db:"phishing_count" json:"phishing_count"`
	PhishingRate  float64   `json:"phishing_rate"`
}

// HistogramBucket is one bin of the risk-score distribution over [0,1].
type HistogramBucket struct {
	RangeLow  float64 `json:"range_low"`
	RangeHigh float64 `json:"range_high"`
	Count     int64   `json:"count"`
}

// DashboardStats is the system-wide snapshot behind the admin dashboard.
type DashboardStats struct {
	TotalScans             int64     `json:"total_scans"`
	PhishingDetected       int64     `json:"phishing_detected"`
	SafeMessages           int64     `json:"safe_messages"`
	PhishingRate           float64   `json:"phishing_rate"`
	AverageRiskScore       float64   `json:"average_risk_score"`
	ScansLast24h           int64     `json:"scans_last_24h"`
	DistinctUsersLast24h   int64     `json:"distinct_users_last_24h"`
	TotalUsers             int64     `json:"total_users"`
	AverageInferenceTimeMs float64   `json:"average_inference_time_ms"`
	ModelVersion           string    `json:"model_version"`
	Timestamp              time.Time `json:"timestamp"`
}
