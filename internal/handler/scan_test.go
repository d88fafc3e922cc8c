package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
	"phishguard/internal/service"
)

type stubScanService struct {
	result  *service.ScanResult
	page    *service.HistoryPage
	err     error
	lastIn  service.ScanInput
	history struct {
		userID        string
		limit, offset int
		phishingOnly  bool
	}
}

func (s *stubScanService) Scan(_ context.Context, in service.ScanInput) (*service.ScanResult, error) {
	s.lastIn = in
	return s.result, s.err
}

func (s *stubScanService) History(_ context.Context, userID string, limit, offset int, phishingOnly bool) (*service.HistoryPage, error) {
	s.history.userID = userID
	s.history.limit = limit
	s.history.offset = offset
	s.history.phishingOnly = phishingOnly
	return s.page, s.err
}

func (s *stubScanService) Duplicates(_ context.Context, _ string, _ int) ([]*models.DuplicateGroup, error) {
	return nil, s.err
}

func scanRouter(svc service.ScanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScanHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/scan", h.Scan)
	r.GET("/api/history", h.History)
	r.GET("/api/duplicates", h.Duplicates)
	return r
}

func TestScanEndpoint(t *testing.T) {
	svc := &stubScanService{result: &service.ScanResult{
		ScanID:     7,
		IsPhishing: true,
		RiskScore:  0.91,
		Confidence: models.ConfidenceHigh,
		Message:    "Phishing detected - High risk!",
		Timestamp:  time.Now().UTC(),
	}}
	router := scanRouter(svc)

	body := bytes.NewBufferString(`{"message": "verify your account now", "user_id": "user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scan", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.lastIn.Message != "verify your account now" || svc.lastIn.UserID != "user-1" {
		t.Errorf("service input = %+v", svc.lastIn)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["scan_id"].(float64) != 7 || resp["is_phishing"] != true {
		t.Errorf("response = %v", resp)
	}
	if resp["confidence"] != models.ConfidenceHigh {
		t.Errorf("confidence = %v", resp["confidence"])
	}
}

func TestScanEndpointEmptyMessage(t *testing.T) {
	svc := &stubScanService{err: apperr.InvalidInput("message cannot be empty")}
	router := scanRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{"message": ""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "invalid_input" {
		t.Errorf("status field = %v", resp["status"])
	}
}

func TestScanEndpointMalformedBody(t *testing.T) {
	router := scanRouter(&stubScanService{})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHistoryEndpointQueryParams(t *testing.T) {
	svc := &stubScanService{page: &service.HistoryPage{Scans: []*models.ScanRecord{}}}
	router := scanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=user-1&limit=25&offset=50&phishing_only=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.history.userID != "user-1" || svc.history.limit != 25 || svc.history.offset != 50 || !svc.history.phishingOnly {
		t.Errorf("service args = %+v", svc.history)
	}
}

func TestHistoryEndpointRejectsBadLimit(t *testing.T) {
	router := scanRouter(&stubScanService{page: &service.HistoryPage{}})

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=user-1&limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
