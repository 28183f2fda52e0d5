package data

import (
	"context"
	"database/sql"
	"fmt"
	"orghub/lib/models"

	"github.com/sirupsen/logrus"
)

// OrgRepository defines the interface for organization data operations.
// All persistence goes through stored functions; their bodies are owned by
// the database and treated as an external collaborator here.
type OrgRepository interface {
	CreateOrganization(ctx context.Context, req *models.CreateOrganizationRequest) (*models.Organization, error)
	GetOrganizationsByUser(ctx context.Context, cognitoUserID string) ([]models.Organization, error)
	OrganizationExists(ctx context.Context, organizationName string) (bool, error)
	UpdateDescription(ctx context.Context, organizationName, newDescription string) error
}

// OrgDao implements the OrgRepository interface for PostgreSQL
type OrgDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// CreateOrganization creates an organization and its owner membership in one
// stored-function call. The creating user is recorded as Organization_Owner.
func (dao *OrgDao) CreateOrganization(ctx context.Context, req *models.CreateOrganizationRequest) (*models.Organization, error) {
	query := `SELECT create_organization($1, $2, $3, $4, $5)`

	_, err := dao.DB.ExecContext(ctx, query,
		req.OrganizationName,
		req.Description,
		req.CognitoUserID,
		req.Name,
		req.Email,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "CreateOrganization",
			"organization_name": req.OrganizationName,
			"error":             err.Error(),
		}).Error("Failed to create organization")
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":         "CreateOrganization",
		"organization_name": req.OrganizationName,
		"cognito_user_id":   req.CognitoUserID,
	}).Info("Organization created successfully")

	return &models.Organization{
		OrganizationName: req.OrganizationName,
		Description:      req.Description,
	}, nil
}

// GetOrganizationsByUser retrieves every organization the user belongs to
func (dao *OrgDao) GetOrganizationsByUser(ctx context.Context, cognitoUserID string) ([]models.Organization, error) {
	query := `SELECT organization_name, description FROM get_user_organizations($1)`

	rows, err := dao.DB.QueryContext(ctx, query, cognitoUserID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":       "GetOrganizationsByUser",
			"cognito_user_id": cognitoUserID,
			"error":           err.Error(),
		}).Error("Failed to get organizations for user")
		return nil, fmt.Errorf("failed to get organizations for user: %w", err)
	}
	defer rows.Close()

	organizations := []models.Organization{}
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.OrganizationName, &org.Description); err != nil {
			return nil, fmt.Errorf("failed to scan organization row: %w", err)
		}
		organizations = append(organizations, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read organization rows: %w", err)
	}

	return organizations, nil
}

// OrganizationExists reports whether an organization with the given name
// exists. Callers use this to distinguish "forbidden" from "not found".
func (dao *OrgDao) OrganizationExists(ctx context.Context, organizationName string) (bool, error) {
	query := `SELECT organization_exists($1)`

	var exists bool
	err := dao.DB.QueryRowContext(ctx, query, organizationName).Scan(&exists)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "OrganizationExists",
			"organization_name": organizationName,
			"error":             err.Error(),
		}).Error("Failed to check organization existence")
		return false, fmt.Errorf("failed to check organization existence: %w", err)
	}

	return exists, nil
}

// UpdateDescription persists a new organization description. Authorization is
// the caller's responsibility; this only forwards the write.
func (dao *OrgDao) UpdateDescription(ctx context.Context, organizationName, newDescription string) error {
	query := `SELECT set_organization_description($1, $2)`

	if _, err := dao.DB.ExecContext(ctx, query, organizationName, newDescription); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":         "UpdateDescription",
			"organization_name": organizationName,
			"error":             err.Error(),
		}).Error("Failed to update organization description")
		return fmt.Errorf("failed to update organization description: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":         "UpdateDescription",
		"organization_name": organizationName,
	}).Info("Organization description updated successfully")

	return nil
}
