package stats

import (
	"math"
	"testing"
	"time"

	"phishguard/internal/models"
)

func TestApplyScanSeedsFirstScan(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := ApplyScan(nil, "user-1", 0.83, true, now)

	if s.UserID != "user-1" {
		t.Errorf("user id = %q", s.UserID)
	}
	if s.TotalScans != 1 || s.PhishingDetected != 1 || s.SafeMessages != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0", s.TotalScans, s.PhishingDetected, s.SafeMessages)
	}
	if s.AverageRiskScore != 0.83 || s.HighestRiskScore != 0.83 {
		t.Errorf("scores = %v/%v, want 0.83/0.83", s.AverageRiskScore, s.HighestRiskScore)
	}
	if s.FirstScanDate == nil || !s.FirstScanDate.Equal(now) {
		t.Errorf("first scan date = %v, want %v", s.FirstScanDate, now)
	}
	if s.LastScanDate == nil || !s.LastScanDate.Equal(now) {
		t.Errorf("last scan date = %v, want %v", s.LastScanDate, now)
	}
}

func TestApplyScanRunningMeanIsExact(t *testing.T) {
	now := time.Now().UTC()
	scores := []float64{0.12, 0.95, 0.5, 0.33, 0.77, 0.01, 0.66}

	var s *models.UserStatistics
	var sum float64
	for _, score := range scores {
		s = ApplyScan(s, "user-1", score, score >= 0.5, now)
		sum += score
	}

	want := sum / float64(len(scores))
	if math.Abs(s.AverageRiskScore-want) > 1e-12 {
		t.Errorf("average = %v, want %v", s.AverageRiskScore, want)
	}
	if s.HighestRiskScore != 0.95 {
		t.Errorf("highest = %v, want 0.95", s.HighestRiskScore)
	}
}

func TestApplyScanTotalEqualsPhishingPlusSafe(t *testing.T) {
	now := time.Now().UTC()

	var s *models.UserStatistics
	for i := 0; i < 100; i++ {
		s = ApplyScan(s, "user-1", float64(i)/100.0, i%3 == 0, now)
	}

	if s.TotalScans != 100 {
		t.Fatalf("total = %d, want 100", s.TotalScans)
	}
	if s.PhishingDetected+s.SafeMessages != s.TotalScans {
		t.Errorf("phishing %d + safe %d != total %d",
			s.PhishingDetected, s.SafeMessages, s.TotalScans)
	}
}

func TestApplyScanKeepsFirstScanDate(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	s := ApplyScan(nil, "user-1", 0.2, false, first)
	s = ApplyScan(s, "user-1", 0.3, false, later)

	if !s.FirstScanDate.Equal(first) {
		t.Errorf("first scan date moved to %v", s.FirstScanDate)
	}
	if !s.LastScanDate.Equal(later) {
		t.Errorf("last scan date = %v, want %v", s.LastScanDate, later)
	}
}

func TestApplyFeedbackFirstSubmission(t *testing.T) {
	now := time.Now().UTC()
	s := &models.UserStatistics{UserID: "user-1"}

	if !ApplyFeedback(s, nil, models.FeedbackCorrect, now) {
		t.Fatal("expected change on first submission")
	}
	if s.FeedbackProvided != 1 || s.CorrectPredictions != 1 || s.IncorrectPredictions != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0",
			s.FeedbackProvided, s.CorrectPredictions, s.IncorrectPredictions)
	}
}

func TestApplyFeedbackSameLabelIsNoop(t *testing.T) {
	now := time.Now().UTC()
	s := &models.UserStatistics{UserID: "user-1"}

	ApplyFeedback(s, nil, models.FeedbackCorrect, now)
	prev := models.FeedbackCorrect
	if ApplyFeedback(s, &prev, models.FeedbackCorrect, now) {
		t.Fatal("resubmitting the same label should not change the aggregate")
	}
	if s.FeedbackProvided != 1 || s.CorrectPredictions != 1 {
		t.Errorf("counters drifted: provided %d, correct %d", s.FeedbackProvided, s.CorrectPredictions)
	}
}

func TestApplyFeedbackRelabelMovesCount(t *testing.T) {
	now := time.Now().UTC()
	s := &models.UserStatistics{UserID: "user-1"}

	ApplyFeedback(s, nil, models.FeedbackCorrect, now)
	prev := models.FeedbackCorrect
	if !ApplyFeedback(s, &prev, models.FeedbackIncorrect, now) {
		t.Fatal("expected change on relabel")
	}

	if s.FeedbackProvided != 1 {
		t.Errorf("feedback_provided = %d, want 1 (a scan counts once)", s.FeedbackProvided)
	}
	if s.CorrectPredictions != 0 || s.IncorrectPredictions != 1 {
		t.Errorf("correct/incorrect = %d/%d, want 0/1",
			s.CorrectPredictions, s.IncorrectPredictions)
	}
}

func TestApplyFeedbackUnsureCountsProvidedOnly(t *testing.T) {
	now := time.Now().UTC()
	s := &models.UserStatistics{UserID: "user-1"}

	ApplyFeedback(s, nil, models.FeedbackUnsure, now)

	if s.FeedbackProvided != 1 {
		t.Errorf("feedback_provided = %d, want 1", s.FeedbackProvided)
	}
	if s.CorrectPredictions != 0 || s.IncorrectPredictions != 0 {
		t.Errorf("UNSURE must not touch correct/incorrect, got %d/%d",
			s.CorrectPredictions, s.IncorrectPredictions)
	}
}
