package domain

import "context"

// TenantScope bounds an operation to one company. The zero value means
// system-wide (all tenants), which is what every scheduled run starts with:
// the executor hands tasks a fresh, empty scope instead of whatever ambient
// request identity the process may be carrying.
type TenantScope struct {
	CompanyID string
}

// ScopeAllTenants is the unrestricted scope scheduled jobs run under.
var ScopeAllTenants = TenantScope{}

// IsAllTenants reports whether the scope is unrestricted.
func (s TenantScope) IsAllTenants() bool { return s.CompanyID == "" }

type tenantScopeKey struct{}

// WithTenantScope returns a context carrying the given scope.
func WithTenantScope(ctx context.Context, scope TenantScope) context.Context {
	return context.WithValue(ctx, tenantScopeKey{}, scope)
}

// TenantScopeFrom extracts the scope from ctx, defaulting to all tenants.
func TenantScopeFrom(ctx context.Context) TenantScope {
	if s, ok := ctx.Value(tenantScopeKey{}).(TenantScope); ok {
		return s
	}
	return ScopeAllTenants
}
