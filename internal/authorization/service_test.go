package authorization

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	agentA = "3b241101-e2bb-4255-8caf-4136c566a962"
	agentB = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
)

func newService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorize_AdminCanDoEverything(t *testing.T) {
	svc := newService(t)
	admin := obscontext.Actor{ID: "ops-1", Role: RoleAdmin}
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectCommissionPack, ActionPackCreate, ""))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectAgentCommission, ActionCommissionAssign, agentA))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectRevenue, ActionRevenueRecord, agentB))
}

func TestAuthorize_AgentLimitedToOwnRecords(t *testing.T) {
	svc := newService(t)
	agent := obscontext.Actor{ID: agentA, Role: RoleAgent}
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, agent, ObjectCommissionPack, ActionPackView, ""))
	assert.NoError(t, svc.Authorize(ctx, agent, ObjectAgentCommission, ActionCommissionSimulate, agentA))
	assert.NoError(t, svc.Authorize(ctx, agent, ObjectRevenue, ActionRevenueRecord, agentA))

	assert.ErrorIs(t, svc.Authorize(ctx, agent, ObjectRevenue, ActionRevenueRecord, agentB), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, agent, ObjectAgentCommission, ActionCommissionAssign, agentA), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, agent, ObjectCommissionPack, ActionPackCreate, ""), ErrForbidden)
}

func TestAuthorize_SubjectsAreScopedByRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin := obscontext.Actor{ID: agentA, Role: RoleAdmin}
	require.NoError(t, svc.Authorize(ctx, admin, ObjectCommissionPack, ActionPackCreate, ""))

	// same id acting as an agent gets only agent rights
	agent := obscontext.Actor{ID: agentA, Role: RoleAgent}
	assert.ErrorIs(t, svc.Authorize(ctx, agent, ObjectCommissionPack, ActionPackCreate, ""), ErrForbidden)
}

func TestAuthorize_RejectsBadInput(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor obscontext.Actor
		obj   string
		act   string
		want  error
	}{
		{"missing object", obscontext.Actor{ID: "x", Role: RoleAdmin}, "", ActionPackView, ErrInvalidObject},
		{"missing action", obscontext.Actor{ID: "x", Role: RoleAdmin}, ObjectRevenue, " ", ErrInvalidAction},
		{"missing id", obscontext.Actor{Role: RoleAdmin}, ObjectRevenue, ActionRevenueView, ErrInvalidActor},
		{"unknown role", obscontext.Actor{ID: "x", Role: "broker"}, ObjectRevenue, ActionRevenueView, ErrInvalidActor},
		{"agent id not uuid", obscontext.Actor{ID: "agent-1", Role: RoleAgent}, ObjectRevenue, ActionRevenueView, ErrInvalidActor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Authorize(ctx, tc.actor, tc.obj, tc.act, agentA), tc.want)
		})
	}
}

func TestSeedPolicies_Idempotent(t *testing.T) {
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)

	before, err := enforcer.GetPolicy()
	require.NoError(t, err)
	require.NoError(t, seedPolicies(enforcer))
	after, err := enforcer.GetPolicy()
	require.NoError(t, err)

	assert.Len(t, after, len(before))
}
