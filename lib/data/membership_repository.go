package data

import (
	"context"
	"database/sql"
	"fmt"
	"orghub/lib/models"

	"github.com/sirupsen/logrus"
)

// MembershipRepository defines the interface for membership data operations
type MembershipRepository interface {
	GetMembersByOrganization(ctx context.Context, organizationName string) ([]models.Member, error)
	AddMember(ctx context.Context, organizationName, email, roleName string) error
	UpdateMemberRole(ctx context.Context, organizationName, email, roleName string) error
	UpdateMemberRoles(ctx context.Context, organizationName string, changes []models.RoleChange) error
}

// MembershipDao implements the MembershipRepository interface for PostgreSQL
type MembershipDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// GetMembersByOrganization returns every membership row for the organization
func (dao *MembershipDao) GetMembersByOrganization(ctx context.Context, organizationName string) ([]models.Member, error) {
	query := `SELECT user_id, cognito_user_id, email, role_id, role_name FROM get_organization_members($1)`

	rows, err := dao.DB.QueryContext(ctx, query, organizationName)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "GetMembersByOrganization",
			"organization_name": organizationName,
			"error":             err.Error(),
		}).Error("Failed to get organization members")
		return nil, fmt.Errorf("failed to get organization members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.CognitoUserID, &m.Email, &m.RoleID, &m.RoleName); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read member rows: %w", err)
	}

	return members, nil
}

// AddMember creates a membership row for the user identified by email. No
// check is made here that the email belongs to an identity-provider account.
func (dao *MembershipDao) AddMember(ctx context.Context, organizationName, email, roleName string) error {
	query := `SELECT add_organization_member($1, $2, $3)`

	if _, err := dao.DB.ExecContext(ctx, query, organizationName, email, roleName); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "AddMember",
			"organization_name": organizationName,
			"email":             email,
			"role_name":         roleName,
			"error":             err.Error(),
		}).Error("Failed to add organization member")
		return fmt.Errorf("failed to add organization member: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":         "AddMember",
		"organization_name": organizationName,
		"email":             email,
		"role_name":         roleName,
	}).Info("Organization member added successfully")

	return nil
}

// UpdateMemberRole changes one member's role
func (dao *MembershipDao) UpdateMemberRole(ctx context.Context, organizationName, email, roleName string) error {
	if _, err := dao.DB.ExecContext(ctx, `SELECT set_member_role($1, $2, $3)`, organizationName, email, roleName); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "UpdateMemberRole",
			"organization_name": organizationName,
			"email":             email,
			"role_name":         roleName,
			"error":             err.Error(),
		}).Error("Failed to update member role")
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return nil
}

// UpdateMemberRoles applies a set of role changes inside a single
// transaction. Either every change lands or none does, so a demote+promote
// pair cannot be half-applied.
func (dao *MembershipDao) UpdateMemberRoles(ctx context.Context, organizationName string, changes []models.RoleChange) error {
	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start role update transaction: %w", err)
	}
	defer tx.Rollback()

	for _, change := range changes {
		if _, err := tx.ExecContext(ctx, `SELECT set_member_role($1, $2, $3)`, organizationName, change.Email, change.RoleName); err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation":         "UpdateMemberRoles",
				"organization_name": organizationName,
				"email":             change.Email,
				"role_name":         change.RoleName,
				"error":             err.Error(),
			}).Error("Failed to update member role, rolling back batch")
			return fmt.Errorf("failed to update role for %s: %w", change.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role update transaction: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":         "UpdateMemberRoles",
		"organization_name": organizationName,
		"changes":           len(changes),
	}).Info("Member roles updated successfully")

	return nil
}
