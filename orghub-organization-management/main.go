// Package main implements the organization management Lambda fronted by API
// Gateway. It serves organization creation, the caller's organization list,
// and description updates gated by the caller's role.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"orghub/lib/api"
	"orghub/lib/authz"
	"orghub/lib/clients"
	"orghub/lib/constants"
	"orghub/lib/data"
	"orghub/lib/models"
	"orghub/lib/util"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
// These are initialized once during Lambda cold start and reused across invocations
var (
	logger        *logrus.Logger
	isLocal       bool
	ssmRepository data.SSMRepository
	ssmParams     map[string]string
	sqlDB         *sql.DB
	orgRepository data.OrgRepository
	gate          *authz.Gate
)

func LambdaHandler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "LambdaHandler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Organization management request received")

	// Preflight must short-circuit before any handler logic
	if request.HTTPMethod == http.MethodOptions {
		return api.PreflightResponse(), nil
	}

	path := strings.Trim(request.Path, "/")

	switch {
	case request.HTTPMethod == http.MethodPost && path == "organizations":
		return handleCreateOrganization(ctx, request.Body), nil
	case request.HTTPMethod == http.MethodGet && path == "organizations":
		return handleGetOrganizations(ctx, request.QueryStringParameters["cognito_user_id"]), nil
	case request.HTTPMethod == http.MethodPut && path == "organizations/description":
		return handleUpdateDescription(ctx, request.Body), nil
	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

// handleCreateOrganization handles POST /organizations. The creating user
// becomes the Organization_Owner.
func handleCreateOrganization(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var createReq models.CreateOrganizationRequest
	if err := json.Unmarshal([]byte(body), &createReq); err != nil {
		logger.WithError(err).Error("Failed to parse create organization request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	if createReq.OrganizationName == "" || createReq.CognitoUserID == "" {
		return api.ErrorResponse(http.StatusBadRequest, "Missing organization_name or cognito_user_id in the request", logger)
	}

	org, err := orgRepository.CreateOrganization(ctx, &createReq)
	if err != nil {
		logger.WithError(err).Error("Failed to create organization")
		return api.ErrorResponse(http.StatusInternalServerError, "Error creating organization", logger)
	}

	return api.SuccessResponse(http.StatusCreated, map[string]interface{}{
		"message":      "Organization created successfully",
		"organization": org,
	}, logger)
}

// handleGetOrganizations handles GET /organizations?cognito_user_id=...
func handleGetOrganizations(ctx context.Context, cognitoUserID string) events.APIGatewayProxyResponse {
	if cognitoUserID == "" {
		return api.ErrorResponse(http.StatusBadRequest, "Missing cognito_user_id in the request", logger)
	}

	organizations, err := orgRepository.GetOrganizationsByUser(ctx, cognitoUserID)
	if err != nil {
		logger.WithError(err).Error("Failed to get organizations")
		return api.ErrorResponse(http.StatusInternalServerError, "Error fetching organizations", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.OrganizationListResponse{
		Message:       "Organizations retrieved successfully",
		Organizations: organizations,
	}, logger)
}

// handleUpdateDescription handles PUT /organizations/description, permitted
// for owners and administrators only
func handleUpdateDescription(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateDescriptionRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		logger.WithError(err).Error("Failed to parse update description request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	err := gate.UpdateDescription(ctx, updateReq.OrganizationName, updateReq.NewDescription, updateReq.CognitoUserID)
	if err != nil {
		return gateErrorResponse(err, "Error updating organization description")
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{
		"message": "Organization description updated successfully",
	}, logger)
}

// gateErrorResponse maps gate sentinel errors to HTTP statuses
func gateErrorResponse(err error, internalMessage string) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, authz.ErrValidation):
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, authz.ErrForbidden):
		return api.ErrorResponse(http.StatusForbidden, "Forbidden", logger)
	case errors.Is(err, authz.ErrNotFound):
		return api.ErrorResponse(http.StatusNotFound, "Organization not found", logger)
	default:
		logger.WithError(err).Error(internalMessage)
		return api.ErrorResponse(http.StatusInternalServerError, internalMessage, logger)
	}
}

// main is the Lambda function entry point.
// It simply starts the AWS Lambda runtime with our handler function.
func main() {
	lambda.Start(LambdaHandler)
}

func init() {
	var err error

	isLocal = parseIsLocal()
	logger = setupLogger(isLocal)

	// Initialize AWS SSM Parameter Store client for configuration management
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

	logger.WithFields(logrus.Fields{
		"operation":    "init",
		"params_count": len(ssmParams),
	}).Debug("Retrieved SSM parameters")

	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	logger.WithField("operation", "init").Error("Organization Management Lambda initialization completed successfully")
}

func parseIsLocal() bool {
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	return isLocal
}

func setupLogger(isLocal bool) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})
	return logger
}

func setupPostgresSQLClient(ssmParams map[string]string) error {
	var err error

	// All connection details come from SSM Parameter Store; the pool is
	// reused across Lambda invocations
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

	orgRepository = &data.OrgDao{
		DB:     sqlDB,
		Logger: logger,
	}

	gate = &authz.Gate{
		Orgs: orgRepository,
		Members: &data.MembershipDao{
			DB:     sqlDB,
			Logger: logger,
		},
		Logger: logger,
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.WithField("operation", "setupPostgresSQLClient").Debug("PostgreSQL client initialized successfully")
	}
	return nil
}
