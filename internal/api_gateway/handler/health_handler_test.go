package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedCode   int
		expectedStatus string
		expectedDeps   map[string]string
	}{
		{
			name:           "AllUp",
			checks:         map[string]Pinger{"postgres": stubPinger{}, "mongodb": stubPinger{}},
			expectedCode:   http.StatusOK,
			expectedStatus: "ok",
			expectedDeps:   map[string]string{"postgres": "up", "mongodb": "up"},
		},
		{
			name:           "MongoDown",
			checks:         map[string]Pinger{"postgres": stubPinger{}, "mongodb": stubPinger{err: errors.New("no reachable servers")}},
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: "degraded",
			expectedDeps:   map[string]string{"postgres": "up", "mongodb": "down"},
		},
		{
			name:           "NoDependencies",
			checks:         nil,
			expectedCode:   http.StatusOK,
			expectedStatus: "ok",
			expectedDeps:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(newTestLogger(), tt.checks)
			router := newTestRouter(testActor)
			router.GET("/health", h.Check)

			rr := serveJSON(router, http.MethodGet, "/health", nil, nil)

			assert.Equal(t, tt.expectedCode, rr.Code)
			var body struct {
				Status       string            `json:"status"`
				Dependencies map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedStatus, body.Status)
			assert.Equal(t, tt.expectedDeps, body.Dependencies)
		})
	}
}
