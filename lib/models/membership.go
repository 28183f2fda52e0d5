package models

// Role names form a closed set. At most one member per organization should
// hold RoleOrganizationOwner at any time; the authorization gate relies on
// callers pairing demote+promote calls (or the batch operation) to keep it.
const (
	RoleOrganizationOwner = "Organization_Owner"
	RoleAdministrator     = "Administrator"
	RoleUser              = "User"
)

// ValidRole reports whether name is one of the known role names
func ValidRole(name string) bool {
	switch name {
	case RoleOrganizationOwner, RoleAdministrator, RoleUser:
		return true
	}
	return false
}

// Member represents a user's membership in an organization, shaped after the
// get_organization_members stored function result set
type Member struct {
	UserID        int64  `json:"user_id"`
	CognitoUserID string `json:"cognito_user_id"`
	Email         string `json:"email"`
	RoleID        int64  `json:"role_id"`
	RoleName      string `json:"role_name"`
}

// MemberListResponse represents the response for listing organization members
type MemberListResponse struct {
	Message string   `json:"message"`
	Users   []Member `json:"users"`
}

// AddMemberRequest represents the request payload for adding a user to an
// organization. When Invite is set the handler provisions an identity
// provider account for the email and sends the invite mail; otherwise only
// the membership row is created.
type AddMemberRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	RoleName         string `json:"role_name"`
	Invite           bool   `json:"invite,omitempty"`
}

// UpdateRoleRequest represents the request payload for changing one member's
// role
type UpdateRoleRequest struct {
	OrganizationName string `json:"organization_name"`
	CognitoUserID    string `json:"cognito_user_id"`
	Email            string `json:"email"`
	RoleName         string `json:"role_name"`
}

// RoleChange is one element of a batch role update
type RoleChange struct {
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
}

// BatchUpdateRolesRequest applies a set of role changes atomically, so a
// demote+promote pair cannot be half-applied
type BatchUpdateRolesRequest struct {
	OrganizationName string       `json:"organization_name"`
	CognitoUserID    string       `json:"cognito_user_id"`
	Changes          []RoleChange `json:"changes"`
}
