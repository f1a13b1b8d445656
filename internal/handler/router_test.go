package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voiceify/internal/handler/synthesis"
	"github.com/zhouzirui/voiceify/internal/metrics"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	audiostore "github.com/zhouzirui/voiceify/internal/storage/audio"
)

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(context.Context, speechmodel.Request) (string, error) {
	return "http://gw/audio/x.wav", nil
}

func (stubSynthesizer) BackendName() string { return "stub" }

func TestRouterServesSynthesisAndMetrics(t *testing.T) {
	m := metrics.New()
	router := NewRouter(synthesis.New(stubSynthesizer{}, audiostore.NewFileStore(t.TempDir()), m), m)

	req := httptest.NewRequest(http.MethodPost, "/api/synthesize", strings.NewReader(`{"text":"hi","voice":"Amy"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"audioUrl":"http://gw/audio/x.wav"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `voiceify_synthesis_requests_total{outcome="success"} 1`)
}
