package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by middleware.RequestID.
const (
	requestIDKey    = "request_id"
	requestStartKey = "request_start"
)

// Response is the envelope around every API payload.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *MetaInfo  `json:"meta"`
}

// ErrorInfo represents error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo carries the request ID and, when middleware.RequestID ran, the
// time spent serving the request. Training and NLI calls dominate it.
type MetaInfo struct {
	Timestamp string  `json:"timestamp"`
	RequestID string  `json:"request_id"`
	ElapsedMS float64 `json:"elapsed_ms,omitempty"`
}

func newMeta(c *gin.Context) *MetaInfo {
	now := time.Now()
	meta := &MetaInfo{
		Timestamp: now.UTC().Format(time.RFC3339),
		RequestID: c.GetString(requestIDKey),
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}
	if start := c.GetTime(requestStartKey); !start.IsZero() {
		meta.ElapsedMS = float64(now.Sub(start).Microseconds()) / 1000
	}
	return meta
}

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// respondCreated answers 201 and points Location at the new resource.
func respondCreated(c *gin.Context, location string, data any) {
	c.Header("Location", location)
	respondSuccess(c, http.StatusCreated, data)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
		Meta: newMeta(c),
	})
}
