package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/authorization"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/observability"
	obsmetrics "github.com/smallbiznis/agencydesk/internal/observability/metrics"
	"github.com/smallbiznis/agencydesk/internal/ratelimit"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"github.com/smallbiznis/agencydesk/internal/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	agentA = "0b6f1a4e-8f3c-4d2b-9a51-7c2e4f1d8a01"
	agentB = "5d2c7e9a-1b4f-4c8e-a3d6-9e0f2b7c4a12"
)

type packSvcStub struct {
	packdomain.Service
	created *packdomain.CreateRequest
}

func (p *packSvcStub) Create(_ context.Context, req packdomain.CreateRequest) (*packdomain.Response, error) {
	p.created = &req
	return &packdomain.Response{ID: "1", Name: req.Name}, nil
}

func (p *packSvcStub) Get(_ context.Context, id string) (*packdomain.Response, error) {
	if id != "1" {
		return nil, packdomain.ErrPackNotFound
	}
	return &packdomain.Response{ID: id, Code: "bronze"}, nil
}

func (p *packSvcStub) ListActive(context.Context, int) ([]packdomain.Response, error) {
	return []packdomain.Response{{ID: "1", Code: "bronze"}}, nil
}

type commissionSvcStub struct {
	commissiondomain.Service
	amount decimal.Decimal
}

func (c *commissionSvcStub) Resolve(_ context.Context, packID string, amount decimal.Decimal) (*commissiondomain.ResolveResponse, error) {
	c.amount = amount
	if packID == "corrupt" {
		return nil, fmt.Errorf("pack bronze: %w: gap between range 1 (max 70000) and range 2 (min 70500)", commissiondomain.ErrInvalidRangeData)
	}
	if amount.IsNegative() {
		return nil, commissiondomain.ErrNegativeAmount
	}
	return &commissiondomain.ResolveResponse{PackID: packID, Amount: amount, Commission: amount.Mul(decimal.NewFromInt(76)).Shift(-2)}, nil
}

type agentSvcStub struct {
	agentdomain.Service
}

func (agentSvcStub) Get(_ context.Context, agentID string) (*agentdomain.Response, error) {
	return &agentdomain.Response{AgentID: agentID, CurrentPercentage: decimal.NewFromInt(76)}, nil
}

func (agentSvcStub) Assign(_ context.Context, _ string, req agentdomain.AssignRequest) (*agentdomain.Response, error) {
	if req.PackID == "2" {
		return nil, agentdomain.ErrPackInactive
	}
	return &agentdomain.Response{PackID: req.PackID, StartDate: *req.StartDate}, nil
}

type revenueSvcStub struct {
	revenuedomain.Service
	recorded int
}

func (r *revenueSvcStub) Record(_ context.Context, agentID string, req revenuedomain.RecordRequest) (*revenuedomain.Response, error) {
	if !req.Source.Valid() {
		return nil, revenuedomain.ErrInvalidSource
	}
	r.recorded++
	return &revenuedomain.Response{AgentID: agentID, Source: req.Source, Amount: req.Amount}, nil
}

type statementStub struct{}

func (statementStub) Generate(_ context.Context, agentID string) (*statement.Statement, error) {
	return &statement.Statement{AgentID: agentID, Filename: "statement.pdf", Content: []byte("%PDF-1.3")}, nil
}

type limiterStub struct {
	allowed bool
}

func (limiterStub) Enabled() bool { return true }

func (l limiterStub) AllowAgent(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{Allowed: l.allowed, Limit: 20, RetryAfter: 1500 * time.Millisecond}, nil
}

type testServer struct {
	*Server
	packs   *packSvcStub
	engine  *commissionSvcStub
	revenue *revenueSvcStub
}

func newTestServer(t *testing.T, limiter revenueLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	httpMetrics, err := obsmetrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry())
	require.NoError(t, err)

	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)

	ts := &testServer{
		packs:   &packSvcStub{},
		engine:  &commissionSvcStub{},
		revenue: &revenueSvcStub{},
	}
	ts.Server = &Server{
		engine:             NewEngine(observability.Config{Environment: "test"}, httpMetrics),
		authzSvc:           authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		packSvc:            ts.packs,
		commissionSvc:      ts.engine,
		agentCommissionSvc: agentSvcStub{},
		revenueSvc:         ts.revenue,
		statementSvc:       statementStub{},
		revenueLimiter:     limiter,
	}
	if ts.revenueLimiter == nil {
		ts.revenueLimiter = (*ratelimit.RevenueIngestLimiter)(nil)
	}
	ts.registerAPIRoutes()
	return ts
}

func (ts *testServer) do(method, path, actorID, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set(HeaderActorID, actorID)
		req.Header.Set(HeaderActorRole, role)
	}
	rec := httptest.NewRecorder()
	ts.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_RequiresActor(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/commission-packs", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/commission-packs", "not-a-uuid", "agent", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommissionPacks_AdminOnlyWrites(t *testing.T) {
	ts := newTestServer(t, nil)
	body := map[string]any{
		"name":   "Platinum",
		"ranges": []map[string]any{{"min_amount": "0", "percentage": "80"}},
	}

	rec := ts.do(http.MethodPost, "/api/commission-packs", agentA, "agent", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, ts.packs.created)

	rec = ts.do(http.MethodPost, "/api/commission-packs", "42", "admin", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, ts.packs.created)
	assert.Equal(t, "Platinum", ts.packs.created.Name)
	assert.Nil(t, ts.packs.created.Ranges[0].MaxAmount)

	rec = ts.do(http.MethodGet, "/api/commission-packs?year=2026", agentA, "agent", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCommissionPacks_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/commission-packs/9", agentA, "agent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/commission-packs?year=soon", agentA, "agent", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_year", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodPost, "/api/commission-packs/1/resolve", agentA, "agent", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", decodeError(t, rec).Errors[0].Field)

	rec = ts.do(http.MethodPost, "/api/commission-packs/1/resolve", agentA, "agent", map[string]any{"amount": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "commission_error", payload.Type)
	assert.Equal(t, "negative_amount", payload.Errors[0].Code)
	assert.Equal(t, "amount must not be negative", payload.Errors[0].Message)
}

func TestCommissionErrors_HideInternalDetail(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/commission-packs/corrupt/resolve", agentA, "agent", map[string]any{"amount": 1000})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_range_data", payload.Errors[0].Code)
	assert.Equal(t, "commission pack ranges are invalid", payload.Errors[0].Message)
	assert.NotContains(t, rec.Body.String(), "70000")
	assert.NotContains(t, rec.Body.String(), "bronze")
}

func TestResolve_AcceptsStringAndNumberAmounts(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/commission-packs/1/resolve", agentA, "agent", map[string]any{"amount": "35001"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.engine.amount.Equal(decimal.NewFromInt(35001)))

	var resp struct {
		Data commissiondomain.ResolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "26600.76", resp.Data.Commission.String())

	rec = ts.do(http.MethodPost, "/api/commission-packs/1/resolve", agentA, "agent", map[string]any{"amount": 95000.5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "95000.5", ts.engine.amount.String())
}

func TestAgentRoutes_OwnershipScope(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/agents/"+agentA+"/commission", agentA, "agent", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/agents/"+agentB+"/commission", agentA, "agent", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/agents/"+agentB+"/commission", "42", "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Agents cannot assign packs, not even to themselves.
	rec = ts.do(http.MethodPut, "/api/agents/"+agentA+"/commission", agentA, "agent", map[string]any{"pack_id": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssign_ParsesDatesAndMapsInactivePack(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPut, "/api/agents/"+agentA+"/commission", "42", "admin", map[string]any{
		"pack_id":    "1",
		"start_date": "2026-03-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data agentdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), resp.Data.StartDate)

	rec = ts.do(http.MethodPut, "/api/agents/"+agentA+"/commission", "42", "admin", map[string]any{
		"pack_id":    "2",
		"start_date": "2026-03-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPut, "/api/agents/"+agentA+"/commission", "42", "admin", map[string]any{
		"pack_id":    "1",
		"start_date": "first of march",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordRevenue(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/agents/"+agentA+"/revenue", agentA, "agent", map[string]any{
		"source": "sale",
		"amount": "12000",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, ts.revenue.recorded)

	rec = ts.do(http.MethodPost, "/api/agents/"+agentA+"/revenue", agentA, "agent", map[string]any{
		"source": "lottery",
		"amount": "12000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_source", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodPost, "/api/agents/"+agentB+"/revenue", agentA, "agent", map[string]any{
		"source": "sale",
		"amount": "1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordRevenue_RateLimited(t *testing.T) {
	ts := newTestServer(t, limiterStub{allowed: false})

	rec := ts.do(http.MethodPost, "/api/agents/"+agentA+"/revenue", agentA, "agent", map[string]any{
		"source": "sale",
		"amount": "12000",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "20", rec.Header().Get("X-RateLimit-Limit"))
	assert.Zero(t, ts.revenue.recorded)
}

func TestStatementDownload(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/agents/"+agentA+"/commission/statement", agentA, "agent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statement.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
