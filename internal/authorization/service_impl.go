package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectInvoice   = "invoice"
	ObjectCustomer  = "customer"
	ObjectCatalog   = "catalog_item"
	ObjectReport    = "report"
	ObjectDashboard = "dashboard"
	ObjectUser      = "user"
	ObjectRole      = "role"
	ObjectSystem    = "system"
	ObjectAuditLog  = "audit_log"
)

const (
	ActionInvoiceView      = "invoice.view"
	ActionInvoiceCreate    = "invoice.create"
	ActionInvoiceUpdate    = "invoice.update"
	ActionInvoiceDelete    = "invoice.delete"
	ActionInvoiceIssue     = "invoice.issue"
	ActionInvoiceCancel    = "invoice.cancel"
	ActionInvoiceSendEmail = "invoice.send_email"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"
	ActionCustomerUpdate = "customer.update"
	ActionCustomerDelete = "customer.delete"

	ActionCatalogView   = "catalog_item.view"
	ActionCatalogCreate = "catalog_item.create"
	ActionCatalogUpdate = "catalog_item.update"
	ActionCatalogDelete = "catalog_item.delete"

	ActionReportView    = "report.view"
	ActionDashboardView = "dashboard.view"

	ActionUserManage      = "user.manage"
	ActionRoleManage      = "role.manage"
	ActionSystemConfigure = "system.configure"
	ActionAuditLogView    = "audit_log.view"
)

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleViewer     = "viewer"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
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
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, companyID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return ErrInvalidCompany
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, actorType, actorID, err := s.resolveActor(actor)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, companyID, object, action)
		return err
	}

	domain := fmt.Sprintf("company:%s", companyID)
	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, companyID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, actorType, actorID, companyID, object, action)
	}
	return nil
}

func (s *ServiceImpl) AssignRole(ctx context.Context, companyID string, userID string, role string) error {
	subject, domain, roleName, err := normalizeAssignment(companyID, userID, role)
	if err != nil {
		return err
	}

	// A user holds exactly one role per company.
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
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
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if !has {
		if _, err := s.enforcer.AddGroupingPolicy(subject, roleName, domain); err != nil {
			return err
		}
	}

	s.auditRoleChange(ctx, companyID, userID, role, "role.assigned")
	return nil
}

func (s *ServiceImpl) RevokeRole(ctx context.Context, companyID string, userID string, role string) error {
	subject, domain, roleName, err := normalizeAssignment(companyID, userID, role)
	if err != nil {
		return err
	}

	removed, err := s.enforcer.RemoveGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if !removed {
		return ErrRoleNotAssigned
	}

	s.auditRoleChange(ctx, companyID, userID, role, "role.revoked")
	return nil
}

func (s *ServiceImpl) RolesForUser(ctx context.Context, companyID string, userID string) ([]string, error) {
	_ = ctx
	subject, domain, _, err := normalizeAssignment(companyID, userID, RoleViewer)
	if err != nil {
		return nil, err
	}

	rules, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 2 {
			continue
		}
		roles = append(roles, strings.TrimPrefix(rule[1], "role:"))
	}
	sort.Strings(roles)
	return roles, nil
}

func (s *ServiceImpl) Roles() []string {
	return []string{RoleAdmin, RoleAccountant, RoleViewer}
}

func (s *ServiceImpl) PermissionsForRole(role string) ([][2]string, error) {
	roleName, err := normalizeRole(role)
	if err != nil {
		return nil, err
	}
	perms := make([][2]string, 0, len(rolePolicies))
	for _, policy := range rolePolicies {
		if policy[0] != roleName {
			continue
		}
		perms = append(perms, [2]string{policy[1], policy[2]})
	}
	return perms, nil
}

func (s *ServiceImpl) resolveActor(actor string) (string, string, *string, error) {
	if actor == "system" {
		return actor, "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", nil, ErrInvalidActor
		}
		userIDStr := userID.String()
		return actor, "user", &userIDStr, nil
	}
	return "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, companyID string, object string, action string) {
	s.auditDecision(ctx, actorType, actorID, companyID, object, action, "authorization.denied")
}

func (s *ServiceImpl) auditGranted(ctx context.Context, actorType string, actorID *string, companyID string, object string, action string) {
	s.auditDecision(ctx, actorType, actorID, companyID, object, action, "authorization.granted")
}

func (s *ServiceImpl) auditDecision(ctx context.Context, actorType string, actorID *string, companyID string, object string, action string, event string) {
	if s.auditSvc == nil {
		return
	}
	parsedCompanyID, err := snowflake.ParseString(companyID)
	if err != nil || parsedCompanyID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedCompanyID, actorType, actorID, event, "authorization", &targetID, map[string]any{
		"object":     object,
		"action":     action,
		"company_id": companyID,
	})
}

func (s *ServiceImpl) auditRoleChange(ctx context.Context, companyID string, userID string, role string, event string) {
	if s.auditSvc == nil {
		return
	}
	parsedCompanyID, err := snowflake.ParseString(companyID)
	if err != nil || parsedCompanyID == 0 {
		return
	}
	targetID := userID
	_ = s.auditSvc.AuditLog(ctx, &parsedCompanyID, "", nil, event, "role", &targetID, map[string]any{
		"role":    role,
		"user_id": userID,
	})
}

func normalizeAssignment(companyID string, userID string, role string) (string, string, string, error) {
	parsedCompanyID, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil || parsedCompanyID == 0 {
		return "", "", "", ErrInvalidCompany
	}
	parsedUserID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || parsedUserID == 0 {
		return "", "", "", ErrInvalidActor
	}
	roleName, err := normalizeRole(role)
	if err != nil {
		return "", "", "", err
	}

	subject := fmt.Sprintf("user:%s", parsedUserID.String())
	domain := fmt.Sprintf("company:%s", parsedCompanyID.String())
	return subject, domain, roleName, nil
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return "role:" + RoleAdmin, nil
	case RoleAccountant:
		return "role:" + RoleAccountant, nil
	case RoleViewer:
		return "role:" + RoleViewer, nil
	default:
		return "", ErrUnknownRole
	}
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionInvoiceCancel, ActionInvoiceDelete, ActionRoleManage, ActionSystemConfigure:
		return true
	default:
		return false
	}
}

var rolePolicies = [][]string{
	// Viewer permissions (read-only)
	{"role:" + RoleViewer, ObjectInvoice, ActionInvoiceView},
	{"role:" + RoleViewer, ObjectCustomer, ActionCustomerView},
	{"role:" + RoleViewer, ObjectCatalog, ActionCatalogView},
	{"role:" + RoleViewer, ObjectDashboard, ActionDashboardView},

	// Accountant permissions
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceView},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceCreate},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceUpdate},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceDelete},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceIssue},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceCancel},
	{"role:" + RoleAccountant, ObjectInvoice, ActionInvoiceSendEmail},
	{"role:" + RoleAccountant, ObjectCustomer, ActionCustomerView},
	{"role:" + RoleAccountant, ObjectCustomer, ActionCustomerCreate},
	{"role:" + RoleAccountant, ObjectCustomer, ActionCustomerUpdate},
	{"role:" + RoleAccountant, ObjectCatalog, ActionCatalogView},
	{"role:" + RoleAccountant, ObjectCatalog, ActionCatalogCreate},
	{"role:" + RoleAccountant, ObjectCatalog, ActionCatalogUpdate},
	{"role:" + RoleAccountant, ObjectReport, ActionReportView},
	{"role:" + RoleAccountant, ObjectDashboard, ActionDashboardView},

	// Admin permissions
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceView},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceCreate},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceUpdate},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceDelete},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceIssue},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceCancel},
	{"role:" + RoleAdmin, ObjectInvoice, ActionInvoiceSendEmail},
	{"role:" + RoleAdmin, ObjectCustomer, ActionCustomerView},
	{"role:" + RoleAdmin, ObjectCustomer, ActionCustomerCreate},
	{"role:" + RoleAdmin, ObjectCustomer, ActionCustomerUpdate},
	{"role:" + RoleAdmin, ObjectCustomer, ActionCustomerDelete},
	{"role:" + RoleAdmin, ObjectCatalog, ActionCatalogView},
	{"role:" + RoleAdmin, ObjectCatalog, ActionCatalogCreate},
	{"role:" + RoleAdmin, ObjectCatalog, ActionCatalogUpdate},
	{"role:" + RoleAdmin, ObjectCatalog, ActionCatalogDelete},
	{"role:" + RoleAdmin, ObjectReport, ActionReportView},
	{"role:" + RoleAdmin, ObjectDashboard, ActionDashboardView},
	{"role:" + RoleAdmin, ObjectUser, ActionUserManage},
	{"role:" + RoleAdmin, ObjectRole, ActionRoleManage},
	{"role:" + RoleAdmin, ObjectSystem, ActionSystemConfigure},
	{"role:" + RoleAdmin, ObjectAuditLog, ActionAuditLogView},
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for _, policy := range rolePolicies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
