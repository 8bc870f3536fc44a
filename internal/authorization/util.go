// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"net/http"
	"slices"

	"github.com/canonical/provider-sync-service/internal/types"
)

const (
	// CAN_VIEW_PERMISSION reads connections, sync jobs and members.
	CAN_VIEW_PERMISSION = "can_view"
	// CAN_EDIT_PERMISSION connects providers and starts, cancels or retries syncs.
	CAN_EDIT_PERMISSION = "can_edit"
	// CAN_MANAGE_PERMISSION changes the tenant and its members.
	CAN_MANAGE_PERMISSION = "can_manage"
)

var rolePermissions = map[types.Role][]string{
	types.RoleAppAdmin:     {CAN_VIEW_PERMISSION, CAN_EDIT_PERMISSION, CAN_MANAGE_PERMISSION},
	types.RoleTenantAdmin:  {CAN_VIEW_PERMISSION, CAN_EDIT_PERMISSION, CAN_MANAGE_PERMISSION},
	types.RoleTenantUser:   {CAN_VIEW_PERMISSION, CAN_EDIT_PERMISSION},
	types.RoleSupportUser:  {CAN_VIEW_PERMISSION, CAN_EDIT_PERMISSION},
	types.RoleReadOnlyUser: {CAN_VIEW_PERMISSION},
}

// Allowed reports whether role grants permission. Unknown roles grant nothing.
func Allowed(role types.Role, permission string) bool {
	return slices.Contains(rolePermissions[role], permission)
}

// PermissionFor maps an HTTP method to the permission a request needs.
func PermissionFor(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return CAN_VIEW_PERMISSION
	default:
		return CAN_EDIT_PERMISSION
	}
}

func TenantResource(tenantID string) string {
	return "tenant:" + tenantID
}
