package gate

import "strings"

// Permission names an action on a resource type.
// Format: "resource:action" (e.g., "product:create", "order:view")
type Permission string

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], Action(parts[1])
}

// WildcardAll matches any resource or action segment.
const WildcardAll = "*"

// PermissionAll matches every permission.
const PermissionAll Permission = "*:*"

// Matches checks if this permission (used as a pattern) matches a requested permission.
// Supports wildcards: "*:*" matches all, "product:*" matches all product actions,
// "*:delete" matches delete on any resource.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == WildcardAll || res == reqRes
	actOK := string(act) == WildcardAll || act == reqAct
	return resOK && actOK
}
