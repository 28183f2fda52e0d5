package models

// Organization represents an organization. The organization name is the
// natural key used across the HTTP boundary and the stored functions.
type Organization struct {
	OrganizationName string `json:"organization_name"`
	Description      string `json:"description"`
}

// CreateOrganizationRequest represents the request payload for creating an
// organization. The creator becomes the Organization_Owner.
type CreateOrganizationRequest struct {
	OrganizationName string `json:"organization_name"`
	Description      string `json:"description"`
	CognitoUserID    string `json:"cognito_user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
}

// UpdateDescriptionRequest represents the request payload for changing an
// organization description
type UpdateDescriptionRequest struct {
	OrganizationName string `json:"organization_name"`
	NewDescription   string `json:"new_description"`
	CognitoUserID    string `json:"cognito_user_id"`
}

// OrganizationListResponse represents the response for listing a user's
// organizations
type OrganizationListResponse struct {
	Message       string         `json:"message"`
	Organizations []Organization `json:"organizations"`
}
