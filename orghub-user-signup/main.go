// Package main implements the Cognito Post-Confirmation Lambda trigger.
//
// When a user finishes confirming their account, this trigger creates the
// application-local user row that memberships join against. The stored
// function is idempotent, so a re-fired trigger (or a user confirming after
// a partial earlier run) never produces a duplicate row — the database is
// the source of truth, not a client-side flag.
//
// Errors never block Cognito confirmation: the user can always finish
// signing up even if the database is briefly unavailable, and a later login
// path can repair the missing row.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"orghub/lib/clients"
	"orghub/lib/constants"
	"orghub/lib/data"
	"orghub/lib/util"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
var (
	logger         *logrus.Logger
	isLocal        bool
	ssmRepository  data.SSMRepository
	ssmParams      map[string]string
	sqlDB          *sql.DB
	userRepository data.UserRepository
)

func Handler(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	// Correlation ID for tracking this signup end-to-end
	correlationID := uuid.New().String()

	cognitoUserID := event.UserName
	email := event.Request.UserAttributes["email"]
	name := event.Request.UserAttributes["name"]

	if cognitoUserID == "" || email == "" {
		logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"trigger_source": event.TriggerSource,
			"operation":      "Handler",
		}).Error("Cognito event is missing username or email attribute")
		return event, nil // Never block confirmation
	}

	userID, err := userRepository.CreateUser(ctx, cognitoUserID, email, name)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"correlation_id":  correlationID,
			"cognito_user_id": cognitoUserID,
			"operation":       "Handler",
			"error":           err.Error(),
		}).Error("Failed to create application user, signup continues without a local record")
		return event, nil // Never block confirmation
	}

	logger.WithFields(logrus.Fields{
		"correlation_id":  correlationID,
		"cognito_user_id": cognitoUserID,
		"user_id":         userID,
		"operation":       "Handler",
	}).Debug("Application user record created")

	return event, nil
}

func setupPostgresSQLClient(ssmParams map[string]string) error {
	var err error

	sqlDB, err = clients.NewPostgresSQLClient(
		ssmParams[constants.DATABASE_RDS_ENDPOINT],
		ssmParams[constants.DATABASE_PORT],
		ssmParams[constants.DATABASE_NAME],
		ssmParams[constants.DATABASE_USERNAME],
		ssmParams[constants.DATABASE_PASSWORD],
		ssmParams[constants.SSL_MODE],
	)
	if err != nil {
		return fmt.Errorf("error creating PostgreSQL client: %w", err)
	}

	userRepository = &data.UserDao{
		DB:     sqlDB,
		Logger: logger,
	}
	return nil
}

// main is the Lambda function entry point
func main() {
	lambda.Start(Handler)
}

func init() {
	var err error

	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})

	logger.WithField("operation", "init").Error("Initializing User Signup Lambda")

	ssmClient := clients.NewSSMClient(isLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	logger.WithField("operation", "init").Error("User Signup Lambda initialization completed successfully")
}
