package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgate/subgate/pkg/events"
	"github.com/subgate/subgate/pkg/gate"
	"github.com/subgate/subgate/pkg/registry"
	"github.com/subgate/subgate/pkg/types"
)

type staticOracle bool

func (o staticOracle) IsMember(ctx context.Context, userID types.UserID) bool {
	return bool(o)
}

type staticProvisioner struct {
	err error
}

func (p *staticProvisioner) Provision(ctx context.Context, userID types.UserID) (*types.Credential, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &types.Credential{
		ID:        "cred-1",
		Email:     "user_1@myserver",
		AccessURL: "vless://cred-1@vpn.example.com:443",
	}, nil
}

func newTestServer(t *testing.T, member bool, provisionErr error) *Server {
	t.Helper()
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	g := gate.New(registry.New(), staticOracle(member), &staticProvisioner{err: provisionErr}, broker, zerolog.Nop())
	return NewServer(":0", g, zerolog.Nop())
}

func postAccess(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/access", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleAccess_Granted(t *testing.T) {
	server := newTestServer(t, true, nil)

	rec := postAccess(t, server, `{"user_id": 42}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "granted", resp.Outcome)
	require.NotNil(t, resp.Credential)
	assert.Equal(t, "cred-1", resp.Credential.ID)
	assert.NotEmpty(t, resp.Credential.AccessURL)
}

func TestHandleAccess_Denied(t *testing.T) {
	server := newTestServer(t, false, nil)

	rec := postAccess(t, server, `{"user_id": 42}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "denied", resp.Outcome)
	assert.Nil(t, resp.Credential)
	assert.NotEmpty(t, resp.Reason)
}

func TestHandleAccess_ProvisioningFailure(t *testing.T) {
	server := newTestServer(t, true, errors.New("backend down"))

	rec := postAccess(t, server, `{"user_id": 42}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Outcome)
	assert.NotContains(t, resp.Reason, "backend down")
}

func TestHandleAccess_BadRequest(t *testing.T) {
	server := newTestServer(t, true, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "not json"},
		{"missing user id", `{}`},
		{"negative user id", `{"user_id": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAccess(t, server, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subgate_")
}
