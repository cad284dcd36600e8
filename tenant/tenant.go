// Package tenant defines the isolation boundary for task execution.
//
// Every agent invocation carries a tenant context; any tenant data access
// goes through a DataHandle derived from the caller's user token. No handle
// is ever created without a token: absence is a configuration error, never
// a silent fallback to elevated privilege.
package tenant

import (
	"errors"
	"slices"
)

// Common errors.
var (
	// ErrMissingToken indicates a handle was requested without a user token.
	ErrMissingToken = errors.New("user token required for tenant data handle")

	// ErrInvalidToken indicates the token did not resolve to a tenant.
	ErrInvalidToken = errors.New("invalid user token")

	// ErrWrongTenant indicates a handle was used outside its tenant.
	ErrWrongTenant = errors.New("handle not valid for tenant")

	// ErrRecordNotFound indicates the requested record does not exist.
	ErrRecordNotFound = errors.New("record not found")
)

// Context carries the tenant scoping for one task execution.
type Context struct {
	// TenantID is the isolation boundary.
	TenantID string `json:"tenantId"`

	// BusinessID is the business entity the task concerns.
	BusinessID string `json:"businessId,omitempty"`

	// UserID is the human on whose behalf the task runs.
	UserID string `json:"userId,omitempty"`

	// AllowedAgents lists the agent roles permitted to act for this tenant.
	AllowedAgents []string `json:"allowedAgents"`

	// UserToken is the credential used to derive tenant-scoped data handles.
	UserToken string `json:"-"`
}

// Allows reports whether the given agent role may execute for this tenant.
func (c Context) Allows(role string) bool {
	return slices.Contains(c.AllowedAgents, role)
}
