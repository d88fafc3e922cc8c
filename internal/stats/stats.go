// Package stats holds the per-user aggregate arithmetic. The functions
// are pure so the repository can run them inside whatever transaction
// guards the aggregate row, and tests can verify the invariants
// (total = phishing + safe, exact running mean) without a database.
package stats

import (
	"time"

	"phishguard/internal/models"
)

// ApplyScan folds one classified scan into the user's aggregate and
// returns the row to persist. A nil aggregate (first scan) is seeded
// from this single scan. The running mean stays the exact arithmetic
// mean of every score seen: (oldMean*oldTotal + score) / newTotal.
func ApplyScan(s *models.UserStatistics, userID string, riskScore float64, isPhishing bool, now time.Time) *models.UserStatistics {
	if s == nil {
		s = &models.UserStatistics{UserID: userID}
	}

	newTotal := s.TotalScans + 1
	s.AverageRiskScore = (s.AverageRiskScore*float64(s.TotalScans) + riskScore) / float64(newTotal)
	s.TotalScans = newTotal

	if isPhishing {
		s.PhishingDetected++
	} else {
		s.SafeMessages++
	}
	if riskScore > s.HighestRiskScore {
		s.HighestRiskScore = riskScore
	}
	if s.FirstScanDate == nil {
		first := now
		s.FirstScanDate = &first
	}
	last := now
	s.LastScanDate = &last
	s.UpdatedAt = now

	return s
}

// ApplyFeedback adjusts the feedback counters for a submission on one
// of the user's scans. previous is the label already stored on that
// scan (nil on first submission). Resubmitting the same label is a
// no-op; a different label replaces the old one's contribution, so a
// scan never counts more than once in feedback_provided. The returned
// bool reports whether the aggregate changed.
func ApplyFeedback(s *models.UserStatistics, previous *string, label string, now time.Time) bool {
	if previous != nil && *previous == label {
		return false
	}

	if previous == nil {
		s.FeedbackProvided++
	} else {
		switch *previous {
		case models.FeedbackCorrect:
			s.CorrectPredictions--
		case models.FeedbackIncorrect:
			s.IncorrectPredictions--
		}
	}

	switch label {
	case models.FeedbackCorrect:
		s.CorrectPredictions++
	case models.FeedbackIncorrect:
		s.IncorrectPredictions++
	}
	s.UpdatedAt = now

	return true
}
