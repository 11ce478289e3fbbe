package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		panicValue  any
		loggedError string
	}{
		{"StringPanic", "wallet map is nil", `"error":"wallet map is nil"`},
		{"ErrorPanic", errors.New("index out of range"), `"error":"index out of range"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			router := gin.New()
			router.Use(CorrelationID(), Recovery(newBufferLogger(&logs, slog.LevelError)))
			router.POST("/api/v1/sales", func(c *gin.Context) {
				c.Set(ActorKey, shared.Actor{ID: "u-9"})
				panic(tt.panicValue)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil)
			req.Header.Set(CorrelationIDHeader, "corr-panic")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			var body errorEnvelope
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
			assert.Equal(t, "corr-panic", body.CorrelationID)

			out := logs.String()
			assert.Contains(t, out, `"msg":"Panic recovered"`)
			assert.Contains(t, out, tt.loggedError)
			assert.Contains(t, out, `"stack":`)
			assert.Contains(t, out, `"method":"POST"`)
			assert.Contains(t, out, `"actor_id":"u-9"`)
		})
	}

	t.Run("PassThrough", func(t *testing.T) {
		var logs bytes.Buffer
		router := gin.New()
		router.Use(Recovery(newBufferLogger(&logs, slog.LevelInfo)))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, logs.String())
	})
}
