// Package main implements the membership management Lambda fronted by API
// Gateway. It serves the member list, member addition (optionally
// provisioning the Cognito account), single role updates, and the atomic
// batch role update.
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
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"
)

// Handler struct contains all dependencies for the Lambda function
type Handler struct {
	DB            *sql.DB
	Logger        *logrus.Logger
	Gate          *authz.Gate
	CognitoClient *cognitoidentityprovider.Client
	UserPoolID    string
}

// Global variables for Lambda cold start optimization
var (
	logger        *logrus.Logger
	isLocal       bool
	ssmRepository data.SSMRepository
	ssmParams     map[string]string
	sqlDB         *sql.DB
	handler       *Handler
)

func LambdaHandler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "LambdaHandler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Membership management request received")

	if request.HTTPMethod == http.MethodOptions {
		return api.PreflightResponse(), nil
	}

	path := strings.Trim(request.Path, "/")

	switch {
	case request.HTTPMethod == http.MethodGet && path == "members":
		return handler.listMembers(ctx, request), nil
	case request.HTTPMethod == http.MethodPost && path == "members":
		return handler.addMember(ctx, request.Body), nil
	case request.HTTPMethod == http.MethodPut && path == "members/role":
		return handler.updateRole(ctx, request.Body), nil
	case request.HTTPMethod == http.MethodPut && path == "members/roles":
		return handler.updateRoles(ctx, request.Body), nil
	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

// listMembers handles GET /members?organization_name=...&cognito_user_id=...
// A caller with no role in the organization gets 403, distinct from 404 for
// an organization that does not exist.
func (h *Handler) listMembers(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	organizationName := request.QueryStringParameters["organization_name"]
	cognitoUserID := request.QueryStringParameters["cognito_user_id"]
	if organizationName == "" || cognitoUserID == "" {
		return api.ErrorResponse(http.StatusBadRequest, "Missing organization_name or cognito_user_id in the request", h.Logger)
	}

	members, err := h.Gate.ListMembers(ctx, organizationName, cognitoUserID)
	if err != nil {
		return h.gateErrorResponse(err, "Error fetching users")
	}

	return api.SuccessResponse(http.StatusOK, models.MemberListResponse{
		Message: "Users retrieved successfully",
		Users:   members,
	}, h.Logger)
}

// addMember handles POST /members
func (h *Handler) addMember(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var addReq models.AddMemberRequest
	if err := json.Unmarshal([]byte(body), &addReq); err != nil {
		h.Logger.WithError(err).Error("Failed to parse add member request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger)
	}

	// Provision the Cognito account first when requested, so a failed
	// provider call never leaves a dangling membership row
	if addReq.Invite {
		if err := h.createCognitoUser(ctx, addReq.Email); err != nil {
			h.Logger.WithError(err).Error("Failed to create user in Cognito")
			return api.ErrorResponse(http.StatusInternalServerError, "Failed to create user account", h.Logger)
		}
	}

	if err := h.Gate.AddMember(ctx, addReq.OrganizationName, addReq.Email, addReq.RoleName); err != nil {
		return h.gateErrorResponse(err, "Error adding user")
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{
		"message": "User added successfully",
	}, h.Logger)
}

// updateRole handles PUT /members/role
func (h *Handler) updateRole(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateRoleRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		h.Logger.WithError(err).Error("Failed to parse update role request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger)
	}

	err := h.Gate.UpdateRole(ctx, updateReq.OrganizationName, updateReq.CognitoUserID, updateReq.Email, updateReq.RoleName)
	if err != nil {
		return h.gateErrorResponse(err, "Error updating user role")
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{
		"message": "User role updated successfully",
	}, h.Logger)
}

// updateRoles handles PUT /members/roles, applying every change in one
// transaction
func (h *Handler) updateRoles(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var batchReq models.BatchUpdateRolesRequest
	if err := json.Unmarshal([]byte(body), &batchReq); err != nil {
		h.Logger.WithError(err).Error("Failed to parse batch role update request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger)
	}

	err := h.Gate.UpdateRoles(ctx, batchReq.OrganizationName, batchReq.CognitoUserID, batchReq.Changes)
	if err != nil {
		return h.gateErrorResponse(err, "Error updating user roles")
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{
		"message": "User roles updated successfully",
	}, h.Logger)
}

func (h *Handler) gateErrorResponse(err error, internalMessage string) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, authz.ErrValidation):
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), h.Logger)
	case errors.Is(err, authz.ErrForbidden):
		return api.ErrorResponse(http.StatusForbidden, "Forbidden", h.Logger)
	case errors.Is(err, authz.ErrNotFound):
		return api.ErrorResponse(http.StatusNotFound, "Organization not found", h.Logger)
	default:
		h.Logger.WithError(err).Error(internalMessage)
		return api.ErrorResponse(http.StatusInternalServerError, internalMessage, h.Logger)
	}
}

// createCognitoUser provisions an account for the invited email. Cognito
// sends the invite mail with the temporary password.
func (h *Handler) createCognitoUser(ctx context.Context, email string) error {
	input := &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId: &h.UserPoolID,
		Username:   &email,
	}

	if _, err := h.CognitoClient.AdminCreateUser(ctx, input); err != nil {
		return fmt.Errorf("failed to create user in Cognito: %w", err)
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "createCognitoUser",
		"email":     email,
	}).Info("Cognito user created, invite email sent")
	return nil
}

// main is the Lambda function entry point
func main() {
	lambda.Start(LambdaHandler)
}

func init() {
	var err error

	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})

	// Setup SSM client
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

	err = setupHandler(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up membership handler")
	}

	logger.WithField("operation", "init").Error("Membership Management Lambda initialization completed successfully")
}

func setupHandler(ssmParams map[string]string) error {
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

	userPoolID := ssmParams[constants.COGNITO_USER_POOL_ID]
	if userPoolID == "" {
		return fmt.Errorf("COGNITO_USER_POOL_ID not found in SSM parameters")
	}

	gate := &authz.Gate{
		Orgs:    &data.OrgDao{DB: sqlDB, Logger: logger},
		Members: &data.MembershipDao{DB: sqlDB, Logger: logger},
		Logger:  logger,
	}

	handler = &Handler{
		DB:            sqlDB,
		Logger:        logger,
		Gate:          gate,
		CognitoClient: clients.NewCognitoIdentityProviderClient(isLocal),
		UserPoolID:    userPoolID,
	}

	return nil
}
