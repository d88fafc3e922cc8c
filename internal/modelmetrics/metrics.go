// Package modelmetrics holds the per-(model version, date) metric
// arithmetic: prediction counters, inference timing, and the
// feedback-driven confusion matrix with its derived ratios. Pure
// functions; the repository runs them inside the row's transaction.
package modelmetrics

import (
	"time"

	"phishguard/internal/models"
)

// ApplyPrediction folds one prediction into the row for (version,
// date), creating it when m is nil. The average inference time stays
// the exact mean across all predictions counted so far.
func ApplyPrediction(m *models.ModelMetricsDaily, version string, date time.Time, isPhishing bool, inferenceMs int64, now time.Time) *models.ModelMetricsDaily {
	if m == nil {
		m = &models.ModelMetricsDaily{
			ModelVersion: version,
			MetricDate:   date,
			CreatedAt:    now,
		}
	}

	newTotal := m.TotalPredictions + 1
	m.AvgInferenceTimeMs = (m.AvgInferenceTimeMs*float64(m.TotalPredictions) + float64(inferenceMs)) / float64(newTotal)
	if m.TotalPredictions == 0 || inferenceMs < m.MinInferenceTimeMs {
		m.MinInferenceTimeMs = inferenceMs
	}
	if inferenceMs > m.MaxInferenceTimeMs {
		m.MaxInferenceTimeMs = inferenceMs
	}
	m.TotalPredictions = newTotal

	if isPhishing {
		m.PhishingPredictions++
	} else {
		m.SafePredictions++
	}

	return m
}

// ApplyFeedback updates the confusion matrix for feedback on a scan
// that was predicted phishing or safe. CORRECT confirms the verdict,
// INCORRECT contradicts it, UNSURE touches no cell. previous is the
// label the scan already carried: its contribution is removed first,
// so relabeling moves the count between cells instead of inflating
// them. Ratios are recomputed after every change; never left stale.
// The returned bool reports whether the row changed.
func ApplyFeedback(m *models.ModelMetricsDaily, predictedPhishing bool, previous *string, label string) bool {
	if previous != nil && *previous == label {
		return false
	}

	if previous != nil {
		addCell(m, predictedPhishing, *previous, -1)
	}
	addCell(m, predictedPhishing, label, 1)
	Recalculate(m)

	return true
}

func addCell(m *models.ModelMetricsDaily, predictedPhishing bool, label string, delta int64) {
	switch {
	case predictedPhishing && label == models.FeedbackCorrect:
		m.TruePositives += delta
	case predictedPhishing && label == models.FeedbackIncorrect:
		m.FalsePositives += delta
	case !predictedPhishing && label == models.FeedbackCorrect:
		m.TrueNegatives += delta
	case !predictedPhishing && label == models.FeedbackIncorrect:
		m.FalseNegatives += delta
	}
	// UNSURE touches none of the four counters.
}

// Recalculate refreshes precision, recall and F1 from the confusion
// counters, with 0/0 defined as 0.
func Recalculate(m *models.ModelMetricsDaily) {
	m.Precision, m.Recall, m.F1Score = Ratios(m.TruePositives, m.FalsePositives, m.FalseNegatives)
}

// Ratios computes precision = TP/(TP+FP), recall = TP/(TP+FN) and
// F1 = 2PR/(P+R), each 0 when its denominator is 0.
func Ratios(tp, fp, fn int64) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
