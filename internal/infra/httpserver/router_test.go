package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/solidity-sec/internal/application/analysis"
	"github.com/bryanwahyu/solidity-sec/internal/middleware"
)

func analysesTotal(t *testing.T) uint64 {
	t.Helper()
	v, ok := middleware.GetMetrics()["analyses_total"].(uint64)
	require.True(t, ok)
	return v
}

func TestSubmit_RejectionDoesNotCountAnalysis(t *testing.T) {
	// validation fails before any repository or model is touched, so the
	// zero-value service is enough here
	h := NewRouter(&appanalysis.Service{}, nil)

	before := analysesTotal(t)

	for _, body := range []string{
		`{"contract_name": "Vault", "contract_code": ""}`,
		`{not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	assert.Equal(t, before, analysesTotal(t))
}

func TestRouter_RejectsMalformedIDs(t *testing.T) {
	h := NewRouter(&appanalysis.Service{}, nil)

	for _, path := range []string{
		"/v1/analyses/not-a-uuid",
		"/v1/analyses/not-a-uuid/status",
		"/v1/contracts/not-a-uuid",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/contracts/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
