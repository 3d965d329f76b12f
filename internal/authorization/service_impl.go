package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
	"github.com/smallbiznis/agencydesk/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer persists policies through the gorm adapter.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return newEnforcer(adapter)
}

// NewMemoryEnforcer keeps policies in memory only.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	return newEnforcer(nil)
}

func newEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if adapter == nil {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoSave(adapter != nil)
	enforcer.EnableAutoBuildRoleLinks(true)
	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor obscontext.Actor, object, action, ownerAgentID string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := resolveActor(actor)
	if err != nil {
		return err
	}
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	owner := ""
	if id, err := uuid.Parse(strings.TrimSpace(ownerAgentID)); err == nil {
		owner = "agent:" + id.String()
	}

	allowed, err := s.enforcer.Enforce(subject, object, action, owner)
	if err != nil {
		return err
	}
	if !allowed {
		logger.WithContext(ctx, s.log).Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
			zap.String("owner", owner),
		)
		return ErrForbidden
	}
	return nil
}

func resolveActor(actor obscontext.Actor) (string, string, error) {
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	id := strings.TrimSpace(actor.ID)
	if id == "" {
		return "", "", ErrInvalidActor
	}

	switch role {
	case RoleAdmin:
		return "admin:" + id, "role:admin", nil
	case RoleAgent:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return "", "", ErrInvalidActor
		}
		return "agent:" + parsed.String(), "role:agent", nil
	default:
		return "", "", ErrInvalidActor
	}
}

func (s *ServiceImpl) ensureGrouping(subject, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin permissions
		{"role:admin", ObjectCommissionPack, ActionPackView, scopeAny},
		{"role:admin", ObjectCommissionPack, ActionPackCreate, scopeAny},
		{"role:admin", ObjectCommissionPack, ActionPackUpdate, scopeAny},
		{"role:admin", ObjectCommissionPack, ActionPackResolve, scopeAny},
		{"role:admin", ObjectAgentCommission, ActionCommissionView, scopeAny},
		{"role:admin", ObjectAgentCommission, ActionCommissionAssign, scopeAny},
		{"role:admin", ObjectAgentCommission, ActionCommissionRecompute, scopeAny},
		{"role:admin", ObjectAgentCommission, ActionCommissionSimulate, scopeAny},
		{"role:admin", ObjectAgentCommission, ActionCommissionStatement, scopeAny},
		{"role:admin", ObjectRevenue, ActionRevenueView, scopeAny},
		{"role:admin", ObjectRevenue, ActionRevenueRecord, scopeAny},

		// Agent permissions, limited to their own records
		{"role:agent", ObjectCommissionPack, ActionPackView, scopeAny},
		{"role:agent", ObjectCommissionPack, ActionPackResolve, scopeAny},
		{"role:agent", ObjectAgentCommission, ActionCommissionView, scopeOwn},
		{"role:agent", ObjectAgentCommission, ActionCommissionRecompute, scopeOwn},
		{"role:agent", ObjectAgentCommission, ActionCommissionSimulate, scopeOwn},
		{"role:agent", ObjectAgentCommission, ActionCommissionStatement, scopeOwn},
		{"role:agent", ObjectRevenue, ActionRevenueView, scopeOwn},
		{"role:agent", ObjectRevenue, ActionRevenueRecord, scopeOwn},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
