package modelmetrics

import (
	"math"
	"testing"
	"time"

	"phishguard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestApplyPredictionCreatesRow(t *testing.T) {
	now := time.Now().UTC()
	d := day(2025, 3, 1)

	m := ApplyPrediction(nil, "v1.0.0", d, true, 12, now)

	if m.ModelVersion != "v1.0.0" || !m.MetricDate.Equal(d) {
		t.Errorf("row key = %s/%v", m.ModelVersion, m.MetricDate)
	}
	if m.TotalPredictions != 1 || m.PhishingPredictions != 1 || m.SafePredictions != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0",
			m.TotalPredictions, m.PhishingPredictions, m.SafePredictions)
	}
	if m.AvgInferenceTimeMs != 12 || m.MinInferenceTimeMs != 12 || m.MaxInferenceTimeMs != 12 {
		t.Errorf("timings = %v/%d/%d, want 12 for all",
			m.AvgInferenceTimeMs, m.MinInferenceTimeMs, m.MaxInferenceTimeMs)
	}
}

func TestApplyPredictionTimingAggregates(t *testing.T) {
	now := time.Now().UTC()
	d := day(2025, 3, 1)
	timings := []int64{40, 5, 23, 17, 90}

	var m *models.ModelMetricsDaily
	var sum int64
	for i, ms := range timings {
		m = ApplyPrediction(m, "v1.0.0", d, i%2 == 0, ms, now)
		sum += ms
	}

	want := float64(sum) / float64(len(timings))
	if math.Abs(m.AvgInferenceTimeMs-want) > 1e-12 {
		t.Errorf("avg = %v, want %v", m.AvgInferenceTimeMs, want)
	}
	if m.MinInferenceTimeMs != 5 || m.MaxInferenceTimeMs != 90 {
		t.Errorf("min/max = %d/%d, want 5/90", m.MinInferenceTimeMs, m.MaxInferenceTimeMs)
	}
	if m.PhishingPredictions+m.SafePredictions != m.TotalPredictions {
		t.Errorf("phishing %d + safe %d != total %d",
			m.PhishingPredictions, m.SafePredictions, m.TotalPredictions)
	}
}

func TestApplyFeedbackFillsCells(t *testing.T) {
	m := &models.ModelMetricsDaily{}

	// predicted phishing, user confirms -> TP
	ApplyFeedback(m, true, nil, models.FeedbackCorrect)
	// predicted phishing, user contradicts -> FP
	ApplyFeedback(m, true, nil, models.FeedbackIncorrect)
	// predicted safe, user confirms -> TN
	ApplyFeedback(m, false, nil, models.FeedbackCorrect)
	// predicted safe, user contradicts -> FN
	ApplyFeedback(m, false, nil, models.FeedbackIncorrect)

	if m.TruePositives != 1 || m.FalsePositives != 1 || m.TrueNegatives != 1 || m.FalseNegatives != 1 {
		t.Errorf("matrix = %d/%d/%d/%d, want 1 each",
			m.TruePositives, m.FalsePositives, m.TrueNegatives, m.FalseNegatives)
	}
	if m.Precision != 0.5 || m.Recall != 0.5 || m.F1Score != 0.5 {
		t.Errorf("ratios = %v/%v/%v, want 0.5 each", m.Precision, m.Recall, m.F1Score)
	}
}

func TestApplyFeedbackUnsureLeavesMatrixAlone(t *testing.T) {
	m := &models.ModelMetricsDaily{}

	if !ApplyFeedback(m, true, nil, models.FeedbackUnsure) {
		t.Fatal("first UNSURE submission should still count as a change")
	}

	if m.TruePositives+m.FalsePositives+m.TrueNegatives+m.FalseNegatives != 0 {
		t.Errorf("UNSURE touched the confusion matrix: %+v", m)
	}
}

func TestApplyFeedbackRelabelMovesCell(t *testing.T) {
	m := &models.ModelMetricsDaily{}

	ApplyFeedback(m, true, nil, models.FeedbackCorrect)
	prev := models.FeedbackCorrect
	ApplyFeedback(m, true, &prev, models.FeedbackIncorrect)

	if m.TruePositives != 0 || m.FalsePositives != 1 {
		t.Errorf("TP/FP = %d/%d, want 0/1 after relabel", m.TruePositives, m.FalsePositives)
	}
	if m.Precision != 0 {
		t.Errorf("precision = %v, want 0", m.Precision)
	}
}

func TestApplyFeedbackSameLabelIsNoop(t *testing.T) {
	m := &models.ModelMetricsDaily{}

	ApplyFeedback(m, true, nil, models.FeedbackCorrect)
	prev := models.FeedbackCorrect
	if ApplyFeedback(m, true, &prev, models.FeedbackCorrect) {
		t.Fatal("resubmitting the same label should not change the row")
	}
	if m.TruePositives != 1 {
		t.Errorf("TP = %d, want 1", m.TruePositives)
	}
}

func TestMatrixNeverExceedsFeedbackCount(t *testing.T) {
	m := &models.ModelMetricsDaily{}
	labels := []string{
		models.FeedbackCorrect, models.FeedbackUnsure, models.FeedbackIncorrect,
		models.FeedbackCorrect, models.FeedbackUnsure,
	}

	for i, label := range labels {
		ApplyFeedback(m, i%2 == 0, nil, label)
	}

	cells := m.TruePositives + m.FalsePositives + m.TrueNegatives + m.FalseNegatives
	if cells > int64(len(labels)) {
		t.Errorf("matrix total %d exceeds %d feedback submissions", cells, len(labels))
	}
}

func TestRatios(t *testing.T) {
	tests := []struct {
		tp, fp, fn            int64
		precision, recall, f1 float64
	}{
		{0, 0, 0, 0, 0, 0},
		{10, 0, 0, 1, 1, 1},
		{8, 2, 2, 0.8, 0.8, 0.8},
		{0, 5, 0, 0, 0, 0},
		{0, 0, 5, 0, 0, 0},
	}
	for _, tt := range tests {
		p, r, f1 := Ratios(tt.tp, tt.fp, tt.fn)
		if math.Abs(p-tt.precision) > 1e-12 || math.Abs(r-tt.recall) > 1e-12 || math.Abs(f1-tt.f1) > 1e-12 {
			t.Errorf("Ratios(%d,%d,%d) = %v/%v/%v, want %v/%v/%v",
				tt.tp, tt.fp, tt.fn, p, r, f1, tt.precision, tt.recall, tt.f1)
		}
	}
}
