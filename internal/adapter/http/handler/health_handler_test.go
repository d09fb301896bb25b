package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/infrastructure/database"
)

type stubInference struct {
	status *service.InferenceStatus
	err    error
}

func (s *stubInference) Health(ctx context.Context) (*service.InferenceStatus, error) {
	return s.status, s.err
}

func (s *stubInference) Ready(ctx context.Context) error {
	return s.err
}

func getHealth(t *testing.T, handler *HealthHandler) (int, HealthStatus) {
	t.Helper()
	router := gin.New()
	router.GET("/health", handler.Health)

	req, _ := http.NewRequest("GET", "/health", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w.Code, status
}

func TestHealthHandler_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("healthy when no dependencies", func(t *testing.T) {
		code, status := getHealth(t, NewHealthHandler(nil, nil, nil))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "not configured", status.Components["database"])
		assert.Equal(t, "not configured", status.Components["redis"])
		assert.Equal(t, "not configured", status.Components["nli"])
	})

	t.Run("healthy with sqlite and loaded model", func(t *testing.T) {
		db, err := database.NewSQLiteDB(":memory:", nil)
		require.NoError(t, err)
		nli := &stubInference{status: &service.InferenceStatus{Status: "ok", ModelLoaded: true, Model: "facebook/bart-large-mnli"}}

		code, status := getHealth(t, NewHealthHandler(db, nil, nli))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", status.Components["database"])
		assert.Equal(t, "ok", status.Components["nli"])
	})

	t.Run("unhealthy when nli is down", func(t *testing.T) {
		nli := &stubInference{err: errors.New("connection refused")}

		code, status := getHealth(t, NewHealthHandler(nil, nil, nli))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", status.Status)
		assert.Equal(t, "error: connection refused", status.Components["nli"])
	})

	t.Run("unhealthy when model is not loaded", func(t *testing.T) {
		nli := &stubInference{status: &service.InferenceStatus{Status: "ok"}}

		code, status := getHealth(t, NewHealthHandler(nil, nil, nli))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "model not loaded", status.Components["nli"])
	})
}

func TestHealthHandler_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ready when no database", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil, &stubInference{err: errors.New("down")})

		router := gin.New()
		router.GET("/ready", handler.Ready)

		req, _ := http.NewRequest("GET", "/ready", http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ready")
	})
}
