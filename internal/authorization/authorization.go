package authorization

import (
	"context"
	"errors"

	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
)

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

const (
	ObjectCommissionPack  = "commission_pack"
	ObjectAgentCommission = "agent_commission"
	ObjectRevenue         = "revenue"
)

const (
	ActionPackView    = "commission_pack.view"
	ActionPackCreate  = "commission_pack.create"
	ActionPackUpdate  = "commission_pack.update"
	ActionPackResolve = "commission_pack.resolve"

	ActionCommissionView      = "agent_commission.view"
	ActionCommissionAssign    = "agent_commission.assign"
	ActionCommissionRecompute = "agent_commission.recompute"
	ActionCommissionSimulate  = "agent_commission.simulate"
	ActionCommissionStatement = "agent_commission.statement"

	ActionRevenueView   = "revenue.view"
	ActionRevenueRecord = "revenue.record"
)

const (
	scopeAny = "any"
	scopeOwn = "own"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	// Authorize checks actor against object/action. ownerAgentID is the
	// agent the request targets, empty when the object is not agent-owned.
	Authorize(ctx context.Context, actor obscontext.Actor, object, action, ownerAgentID string) error
}
