package models

// User represents an application-local user. Identity fields mirror the
// identity provider; UserID is the numeric join key for memberships.
type User struct {
	UserID        int64  `json:"user_id"`
	CognitoUserID string `json:"cognito_user_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
}
