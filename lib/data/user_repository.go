package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// UserRepository defines the interface for application-local user records
type UserRepository interface {
	// CreateUser creates the application-local user row for a confirmed
	// identity-provider account and returns its numeric id. The stored
	// function is idempotent: a repeated call for the same cognito_user_id
	// returns the existing row's id instead of inserting a duplicate.
	CreateUser(ctx context.Context, cognitoUserID, email, name string) (int64, error)
}

// UserDao implements the UserRepository interface for PostgreSQL
type UserDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

func (dao *UserDao) CreateUser(ctx context.Context, cognitoUserID, email, name string) (int64, error) {
	query := `SELECT create_app_user($1, $2, $3)`

	var userID int64
	err := dao.DB.QueryRowContext(ctx, query, cognitoUserID, email, name).Scan(&userID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":       "CreateUser",
			"cognito_user_id": cognitoUserID,
			"email":           email,
			"error":           err.Error(),
		}).Error("Failed to create application user")
		return 0, fmt.Errorf("failed to create application user: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":       "CreateUser",
		"cognito_user_id": cognitoUserID,
		"user_id":         userID,
	}).Debug("Application user record ensured")

	return userID, nil
}
