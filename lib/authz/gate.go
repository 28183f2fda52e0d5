// Package authz implements the organization authorization gate. The gate
// decides who may read or mutate organization metadata and membership roles;
// persistence itself is delegated to the data repositories.
package authz

import (
	"context"
	"errors"
	"fmt"
	"orghub/lib/data"
	"orghub/lib/models"

	"github.com/sirupsen/logrus"
)

// Sentinel errors mapped to HTTP statuses by the Lambda handlers. A caller
// with no role in an existing organization gets ErrForbidden; a nonexistent
// organization gets ErrNotFound, so clients can tell the two apart.
var (
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("organization not found")
	ErrValidation = errors.New("invalid request")
)

// Gate enforces organization-level authorization rules
type Gate struct {
	Orgs    data.OrgRepository
	Members data.MembershipRepository
	Logger  *logrus.Logger
}

// resolveCaller fetches the organization's member list and locates the
// caller in it. The returned list is the authoritative snapshot for the
// current call; role decisions are made against it, never against stale
// client state.
func (g *Gate) resolveCaller(ctx context.Context, organizationName, callerID string) ([]models.Member, *models.Member, error) {
	members, err := g.Members.GetMembersByOrganization(ctx, organizationName)
	if err != nil {
		return nil, nil, err
	}

	if len(members) == 0 {
		exists, err := g.Orgs.OrganizationExists(ctx, organizationName)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, ErrNotFound
		}
		return nil, nil, ErrForbidden
	}

	for i := range members {
		if members[i].CognitoUserID == callerID {
			return members, &members[i], nil
		}
	}
	return members, nil, nil
}

// ListMembers returns the membership list if the caller holds any role in
// the organization
func (g *Gate) ListMembers(ctx context.Context, organizationName, callerID string) ([]models.Member, error) {
	members, caller, err := g.resolveCaller(ctx, organizationName, callerID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		g.Logger.WithFields(logrus.Fields{
			"operation":         "ListMembers",
			"organization_name": organizationName,
			"cognito_user_id":   callerID,
		}).Warn("Caller has no role in organization")
		return nil, ErrForbidden
	}

	return members, nil
}

// UpdateDescription changes the organization description. Permitted for the
// Organization_Owner and Administrator roles only.
func (g *Gate) UpdateDescription(ctx context.Context, organizationName, newDescription, callerID string) error {
	if organizationName == "" || newDescription == "" || callerID == "" {
		return fmt.Errorf("%w: organization_name, new_description and cognito_user_id are required", ErrValidation)
	}

	_, caller, err := g.resolveCaller(ctx, organizationName, callerID)
	if err != nil {
		return err
	}
	if caller == nil || (caller.RoleName != models.RoleOrganizationOwner && caller.RoleName != models.RoleAdministrator) {
		g.Logger.WithFields(logrus.Fields{
			"operation":         "UpdateDescription",
			"organization_name": organizationName,
			"cognito_user_id":   callerID,
		}).Warn("Caller is not owner or administrator")
		return ErrForbidden
	}

	return g.Orgs.UpdateDescription(ctx, organizationName, newDescription)
}

// authorizeRoleChange checks that the caller is the organization owner as
// recorded in the member list fetched for this call. Only the owner row
// present at fetch time may reassign roles; a member promoted to owner in a
// concurrent request is recognized on the next fetch.
func (g *Gate) authorizeRoleChange(ctx context.Context, organizationName, callerID string) error {
	_, caller, err := g.resolveCaller(ctx, organizationName, callerID)
	if err != nil {
		return err
	}
	if caller == nil || caller.RoleName != models.RoleOrganizationOwner {
		g.Logger.WithFields(logrus.Fields{
			"operation":         "authorizeRoleChange",
			"organization_name": organizationName,
			"cognito_user_id":   callerID,
		}).Warn("Caller is not the organization owner")
		return ErrForbidden
	}
	return nil
}

// UpdateRole changes one member's role. The gate does not demote an existing
// owner when newRole is Organization_Owner: pairing the demote call is the
// caller's burden, or use UpdateRoles for an atomic pair.
func (g *Gate) UpdateRole(ctx context.Context, organizationName, callerID, targetEmail, newRole string) error {
	if organizationName == "" || callerID == "" || targetEmail == "" {
		return fmt.Errorf("%w: organization_name, cognito_user_id and email are required", ErrValidation)
	}
	if !models.ValidRole(newRole) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, newRole)
	}

	if err := g.authorizeRoleChange(ctx, organizationName, callerID); err != nil {
		return err
	}

	return g.Members.UpdateMemberRole(ctx, organizationName, targetEmail, newRole)
}

// UpdateRoles applies a set of role changes atomically under the same
// authorization rule as UpdateRole
func (g *Gate) UpdateRoles(ctx context.Context, organizationName, callerID string, changes []models.RoleChange) error {
	if organizationName == "" || callerID == "" {
		return fmt.Errorf("%w: organization_name and cognito_user_id are required", ErrValidation)
	}
	if len(changes) == 0 {
		return fmt.Errorf("%w: at least one role change is required", ErrValidation)
	}
	for _, change := range changes {
		if change.Email == "" || !models.ValidRole(change.RoleName) {
			return fmt.Errorf("%w: invalid role change for %q", ErrValidation, change.Email)
		}
	}

	if err := g.authorizeRoleChange(ctx, organizationName, callerID); err != nil {
		return err
	}

	return g.Members.UpdateMemberRoles(ctx, organizationName, changes)
}

// AddMember creates a membership row for a user identified by email. The
// email is not checked against the identity provider here; account creation
// is a separate concern.
func (g *Gate) AddMember(ctx context.Context, organizationName, email, roleName string) error {
	if organizationName == "" || email == "" {
		return fmt.Errorf("%w: organization_name and email are required", ErrValidation)
	}
	if roleName == "" {
		roleName = models.RoleUser
	}
	if !models.ValidRole(roleName) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, roleName)
	}

	exists, err := g.Orgs.OrganizationExists(ctx, organizationName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	return g.Members.AddMember(ctx, organizationName, email, roleName)
}
