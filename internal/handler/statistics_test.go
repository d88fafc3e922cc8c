package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
)

type stubStatsRepo struct {
	stats *models.UserStatistics
}

func (s *stubStatsRepo) GetByUser(_ context.Context, userID string) (*models.UserStatistics, error) {
	if s.stats != nil && s.stats.UserID == userID {
		return s.stats, nil
	}
	return nil, apperr.NotFound("statistics for user %q", userID)
}

func (s *stubStatsRepo) TopUsers(_ context.Context, _ int) ([]*models.UserStatistics, error) {
	return []*models.UserStatistics{}, nil
}

func statisticsRouter(repo *stubStatsRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStatisticsHandler(repo, zap.NewNop())
	r := gin.New()
	r.GET("/api/statistics/:user_id", h.GetByUser)
	return r
}

func TestStatisticsEndpoint(t *testing.T) {
	router := statisticsRouter(&stubStatsRepo{stats: &models.UserStatistics{
		UserID:           "user-1",
		TotalScans:       12,
		PhishingDetected: 4,
		SafeMessages:     8,
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/statistics/user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Statistics models.UserStatistics `json:"statistics"`
		Status     string                `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Statistics.TotalScans != 12 || resp.Statistics.PhishingDetected != 4 {
		t.Errorf("statistics = %+v", resp.Statistics)
	}
}

func TestStatisticsEndpointUnknownUser(t *testing.T) {
	router := statisticsRouter(&stubStatsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/statistics/nobody", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
