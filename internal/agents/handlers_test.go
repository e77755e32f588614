package agents

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitgenius/backend/internal/chain"
	"github.com/bitgenius/backend/internal/chaincall"
)

const (
	testContract = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	testSender   = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
)

type stubGateway struct {
	builder     *chaincall.Builder
	built       []*chaincall.CallDescriptor
	agent       map[string]any
	agentErr    error
	chainStatus string
	statusErr   error
}

func newStubGateway() *stubGateway {
	return &stubGateway{builder: chaincall.NewBuilder(testContract, "bitgenius-agent")}
}

func (s *stubGateway) Builder() *chaincall.Builder { return s.builder }

func (s *stubGateway) BuildTransaction(ctx context.Context, desc *chaincall.CallDescriptor) (json.RawMessage, error) {
	s.built = append(s.built, desc)
	return json.RawMessage(`{"tx":"00payload"}`), nil
}

func (s *stubGateway) GetAgentByID(ctx context.Context, agentID int64) (map[string]any, error) {
	if s.agentErr != nil {
		return nil, s.agentErr
	}
	return s.agent, nil
}

func (s *stubGateway) GetAgentStatus(ctx context.Context, agentID int64) (string, error) {
	if s.statusErr != nil {
		return "", s.statusErr
	}
	if s.chainStatus == "" {
		return "unknown", nil
	}
	return s.chainStatus, nil
}

func (s *stubGateway) GetTemplates(ctx context.Context) ([]map[string]any, error) {
	return []map[string]any{
		{"template_id": "dca", "description": "dollar cost average", "default_strategy": "buy daily"},
	}, nil
}

func newTestRouter(gw ChainGateway, mirror StatusStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(gw, mirror, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := gin.New()
	h.RegisterRoutes(r.Group("/v1/agents"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAgent_BuildsRegisterCall(t *testing.T) {
	gw := newStubGateway()
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "POST", "/v1/agents", `{
		"name": "dca-bot",
		"agent_type": "trader",
		"strategy": "buy the dip",
		"trigger_condition": "price < 50000",
		"privacy_enabled": true,
		"allocation": 100000,
		"sender": "`+testSender+`"
	}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "transaction_payload")
	assert.Contains(t, w.Body.String(), "Stacks.js")

	require.Len(t, gw.built, 1)
	assert.Equal(t, chaincall.FnRegisterAgent, gw.built[0].Function)
	assert.Equal(t, testSender, gw.built[0].Sender)
	require.Len(t, gw.built[0].Args, 6)
}

func TestCreateAgent_ValidationFailuresNameTheField(t *testing.T) {
	r := newTestRouter(newStubGateway(), NewMemoryStatusStore())

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"agent_type":"t","strategy":"s","trigger_condition":"c","allocation":1,"sender":"` + testSender + `"}`, "name"},
		{"long agent type", `{"name":"a","agent_type":"` + strings.Repeat("x", 21) + `","strategy":"s","trigger_condition":"c","allocation":1,"sender":"` + testSender + `"}`, "agent_type"},
		{"zero allocation", `{"name":"a","agent_type":"t","strategy":"s","trigger_condition":"c","allocation":0,"sender":"` + testSender + `"}`, "allocation"},
		{"bad sender", `{"name":"a","agent_type":"t","strategy":"s","trigger_condition":"c","allocation":1,"sender":"0xdeadbeef"}`, "sender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, "POST", "/v1/agents", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.field)
		})
	}
}

func TestUpdateStatus_NormalizesAliases(t *testing.T) {
	gw := newStubGateway()
	mirror := NewMemoryStatusStore()
	r := newTestRouter(gw, mirror)

	w := doJSON(r, "POST", "/v1/agents/4/status", `{"status":"ACTIVE","sender":"`+testSender+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"online"`)

	// The builder only ever saw the canonical value.
	require.Len(t, gw.built, 1)
	assert.Equal(t, chaincall.FnUpdateAgentStatus, gw.built[0].Function)
	raw, err := json.Marshal(gw.built[0].Args[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"string-ascii","value":"online"}`, string(raw))

	// Mirrored for immediate reads.
	rec, err := mirror.GetStatus(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "online", rec.Status)
	assert.False(t, rec.LastActive.IsZero())
}

func TestUpdateStatus_UnknownStatusListsAccepted(t *testing.T) {
	gw := newStubGateway()
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "POST", "/v1/agents/4/status", `{"status":"hibernating","sender":"`+testSender+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")
	for _, alias := range []string{"active", "paused", "disabled"} {
		assert.Contains(t, w.Body.String(), alias)
	}
	assert.Empty(t, gw.built)
}

func TestUpdateStatus_RequiresValidSender(t *testing.T) {
	r := newTestRouter(newStubGateway(), NewMemoryStatusStore())

	w := doJSON(r, "POST", "/v1/agents/4/status", `{"status":"online"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sender")
}

func TestGetAgent_DecodesTuple(t *testing.T) {
	gw := newStubGateway()
	gw.agent = map[string]any{
		"owner":             testSender,
		"name":              "dca-bot",
		"agent_type":        "trader",
		"strategy":          "buy the dip",
		"status":            "online",
		"trigger_condition": "price < 50000",
		"privacy_enabled":   true,
		"allocation":        int64(100000),
		"created_at":        int64(1772366400),
		"last_active":       int64(1772366500),
	}
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/4", "")
	require.Equal(t, http.StatusOK, w.Code)

	var agent Agent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agent))
	assert.Equal(t, int64(4), agent.AgentID)
	assert.Equal(t, "dca-bot", agent.Name)
	assert.Equal(t, testSender, agent.Owner)
	assert.True(t, agent.PrivacyEnabled)
	assert.Equal(t, int64(1772366400), agent.CreatedAt)
}

func TestGetAgent_NotFoundIs404(t *testing.T) {
	gw := newStubGateway()
	gw.agentErr = chain.ErrAgentNotFound
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/99", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "agent_not_found")
}

func TestGetAgent_RejectsBadID(t *testing.T) {
	r := newTestRouter(newStubGateway(), NewMemoryStatusStore())

	assert.Equal(t, http.StatusBadRequest, doJSON(r, "GET", "/v1/agents/-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, "GET", "/v1/agents/0", "").Code)
}

func TestGetStatus_MirrorLifecycle(t *testing.T) {
	mirror := NewMemoryStatusStore()
	r := newTestRouter(newStubGateway(), mirror)

	require.NoError(t, mirror.SetStatus(context.Background(), 8, "idle"))
	w := doJSON(r, "GET", "/v1/agents/8/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"idle"`)
	assert.NotContains(t, w.Body.String(), `"source"`)
}

func TestGetStatus_MirrorMissReadsChain(t *testing.T) {
	gw := newStubGateway()
	gw.chainStatus = "ACTIVE"
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/8/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Aliases read from the chain normalize like written ones do.
	assert.JSONEq(t, `{"agent_id":8,"status":"online","source":"chain"}`, w.Body.String())
}

func TestGetStatus_UnknownChainValuePassesThrough(t *testing.T) {
	r := newTestRouter(newStubGateway(), NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/8/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unknown"`)
}

func TestGetStatus_ChainFailureIs502(t *testing.T) {
	gw := newStubGateway()
	gw.statusErr = &chain.RPCError{Code: 502, Message: "gateway down"}
	r := newTestRouter(gw, NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/8/status", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetTemplates(t *testing.T) {
	r := newTestRouter(newStubGateway(), NewMemoryStatusStore())

	w := doJSON(r, "GET", "/v1/agents/templates", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Templates []Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Templates, 1)
	assert.Equal(t, "dca", resp.Templates[0].TemplateID)
	assert.Equal(t, "buy daily", resp.Templates[0].DefaultStrategy)
}
