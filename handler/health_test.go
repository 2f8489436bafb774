package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var wrapped struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&wrapped))
	assert.Equal(t, "healthy", wrapped.Data["status"])
	assert.Equal(t, "document-analysis-service", wrapped.Data["service"])
}
