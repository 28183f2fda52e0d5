package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// Account lifecycle operations. These are thin pass-throughs to the identity
// provider; the session state machine only changes where tokens are involved.

// Authenticate performs an interactive username/password sign-in, persists
// the issued tokens and validates the new session.
func (m *Manager) Authenticate(ctx context.Context, username, password string) error {
	out, err := m.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(m.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		m.setState(StateUnauthenticated)
		return fmt.Errorf("authentication failed: %w", err)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		m.setState(StateUnauthenticated)
		return errors.New("authentication response contained no tokens")
	}

	result := out.AuthenticationResult
	if err := m.store.Set(KeyAccessToken, *result.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if result.RefreshToken != nil {
		if err := m.store.Set(KeyRefreshToken, *result.RefreshToken); err != nil {
			return fmt.Errorf("failed to persist refresh token: %w", err)
		}
	}
	if result.IdToken != nil {
		if err := m.store.Set(KeyIDToken, *result.IdToken); err != nil {
			return fmt.Errorf("failed to persist id token: %w", err)
		}
	}

	return m.Login(ctx)
}

// SignUp registers a new account with the name attribute and returns the
// provider's subject id
func (m *Manager) SignUp(ctx context.Context, email, password, name string) (string, error) {
	out, err := m.api.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(m.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sign-up failed: %w", err)
	}
	if out.UserSub == nil {
		return "", nil
	}
	return *out.UserSub, nil
}

// ConfirmSignUp confirms a registration with the emailed code
func (m *Manager) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := m.api.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(m.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	return nil
}

// ForgotPassword starts the password reset flow
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	_, err := m.api.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(m.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return fmt.Errorf("forgot-password request failed: %w", err)
	}
	return nil
}

// ConfirmForgotPassword completes the password reset flow with the emailed
// code and a new password
func (m *Manager) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := m.api.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(m.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	return nil
}

// ChangePassword changes the password for the authenticated session
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	token, err := m.store.Get(KeyAccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" {
		return errors.New("not authenticated")
	}

	_, err = m.api.ChangePassword(ctx, &cognitoidentityprovider.ChangePasswordInput{
		AccessToken:      aws.String(token),
		PreviousPassword: aws.String(oldPassword),
		ProposedPassword: aws.String(newPassword),
	})
	if err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}
	return nil
}

// UpdateUserAttributes updates provider-side attributes for the
// authenticated session and revalidates so the cached identity stays in sync
func (m *Manager) UpdateUserAttributes(ctx context.Context, attributes map[string]string) error {
	token, err := m.store.Get(KeyAccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" {
		return errors.New("not authenticated")
	}

	attrs := make([]types.AttributeType, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, types.AttributeType{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	_, err = m.api.UpdateUserAttributes(ctx, &cognitoidentityprovider.UpdateUserAttributesInput{
		AccessToken:    aws.String(token),
		UserAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("attribute update failed: %w", err)
	}

	return m.CheckAuthentication(ctx)
}
