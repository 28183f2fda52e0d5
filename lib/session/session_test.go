package session

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCognito simulates the identity provider. Tokens in validTokens are
// accepted by GetUser; everything else is rejected as not authorized.
type fakeCognito struct {
	validTokens  map[string]bool
	refreshTo    string
	refreshErr   error
	getUserCalls int
	refreshCalls int
	signOutCalls int
}

func (f *fakeCognito) GetUser(_ context.Context, params *cognitoidentityprovider.GetUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error) {
	f.getUserCalls++
	if !f.validTokens[aws.ToString(params.AccessToken)] {
		return nil, &types.NotAuthorizedException{Message: aws.String("Access Token has expired")}
	}
	return &cognitoidentityprovider.GetUserOutput{
		UserAttributes: []types.AttributeType{
			{Name: aws.String("name"), Value: aws.String("Alice Example")},
			{Name: aws.String("email"), Value: aws.String("alice@example.com")},
			{Name: aws.String("sub"), Value: aws.String("sub-alice")},
		},
	}, nil
}

func (f *fakeCognito) InitiateAuth(_ context.Context, params *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	if params.AuthFlow == types.AuthFlowTypeRefreshTokenAuth {
		f.refreshCalls++
		if f.refreshErr != nil {
			return nil, f.refreshErr
		}
		return &cognitoidentityprovider.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{
				AccessToken: aws.String(f.refreshTo),
			},
		}, nil
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("interactive-access"),
			RefreshToken: aws.String("interactive-refresh"),
			IdToken:      aws.String("interactive-id"),
		},
	}, nil
}

func (f *fakeCognito) GlobalSignOut(_ context.Context, _ *cognitoidentityprovider.GlobalSignOutInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
	f.signOutCalls++
	return &cognitoidentityprovider.GlobalSignOutOutput{}, nil
}

func (f *fakeCognito) SignUp(_ context.Context, _ *cognitoidentityprovider.SignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	return &cognitoidentityprovider.SignUpOutput{UserSub: aws.String("sub-new")}, nil
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, _ *cognitoidentityprovider.ConfirmSignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error) {
	return &cognitoidentityprovider.ConfirmSignUpOutput{}, nil
}

func (f *fakeCognito) ForgotPassword(_ context.Context, _ *cognitoidentityprovider.ForgotPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
	return &cognitoidentityprovider.ForgotPasswordOutput{}, nil
}

func (f *fakeCognito) ConfirmForgotPassword(_ context.Context, _ *cognitoidentityprovider.ConfirmForgotPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error) {
	return &cognitoidentityprovider.ConfirmForgotPasswordOutput{}, nil
}

func (f *fakeCognito) ChangePassword(_ context.Context, _ *cognitoidentityprovider.ChangePasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ChangePasswordOutput, error) {
	return &cognitoidentityprovider.ChangePasswordOutput{}, nil
}

func (f *fakeCognito) UpdateUserAttributes(_ context.Context, _ *cognitoidentityprovider.UpdateUserAttributesInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.UpdateUserAttributesOutput, error) {
	return &cognitoidentityprovider.UpdateUserAttributesOutput{}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestCheckAuthentication_NoToken(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{}}
	m := NewManager(api, NewMemStore(), "client-id", quietLogger())

	require.NoError(t, m.CheckAuthentication(context.Background()))

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.False(t, m.Authenticated())
	assert.Zero(t, api.getUserCalls)
}

func TestCheckAuthentication_ValidToken(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{"good-token": true}}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyAccessToken, "good-token"))
	m := NewManager(api, store, "client-id", quietLogger())

	require.NoError(t, m.CheckAuthentication(context.Background()))

	assert.True(t, m.Authenticated())
	assert.Equal(t, Identity{
		Name:          "Alice Example",
		Email:         "alice@example.com",
		CognitoUserID: "sub-alice",
	}, m.Identity())

	name, _ := store.Get(KeyName)
	email, _ := store.Get(KeyEmail)
	sub, _ := store.Get(KeyCognitoUserID)
	assert.Equal(t, "Alice Example", name)
	assert.Equal(t, "alice@example.com", email)
	assert.Equal(t, "sub-alice", sub)
}

// An expired token must trigger exactly one refresh and at most one retried
// GetUser call.
func TestCheckAuthentication_ExpiredTokenRefreshesOnce(t *testing.T) {
	api := &fakeCognito{
		validTokens: map[string]bool{"fresh-token": true},
		refreshTo:   "fresh-token",
	}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyAccessToken, "stale-token"))
	require.NoError(t, store.Set(KeyRefreshToken, "refresh-token"))
	m := NewManager(api, store, "client-id", quietLogger())

	require.NoError(t, m.CheckAuthentication(context.Background()))

	assert.True(t, m.Authenticated())
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, 2, api.getUserCalls)

	persisted, _ := store.Get(KeyAccessToken)
	assert.Equal(t, "fresh-token", persisted)
}

// If the provider keeps rejecting even the refreshed token, the retry is
// still bounded to one.
func TestCheckAuthentication_RefreshedTokenStillRejected(t *testing.T) {
	api := &fakeCognito{
		validTokens: map[string]bool{},
		refreshTo:   "still-bad-token",
	}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyAccessToken, "stale-token"))
	require.NoError(t, store.Set(KeyRefreshToken, "refresh-token"))
	m := NewManager(api, store, "client-id", quietLogger())

	err := m.CheckAuthentication(context.Background())
	require.Error(t, err)

	assert.False(t, m.Authenticated())
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, 2, api.getUserCalls)
}

func TestRefreshAccessToken_NoRefreshToken(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{}}
	m := NewManager(api, NewMemStore(), "client-id", quietLogger())

	result := m.RefreshAccessToken(context.Background())

	assert.Equal(t, NeedsLogin, result.Outcome)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Zero(t, api.refreshCalls)
}

func TestRefreshAccessToken_Rejected(t *testing.T) {
	api := &fakeCognito{
		refreshErr: &types.NotAuthorizedException{Message: aws.String("Refresh Token has been revoked")},
	}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyRefreshToken, "revoked"))
	m := NewManager(api, store, "client-id", quietLogger())

	result := m.RefreshAccessToken(context.Background())

	assert.Equal(t, NeedsLogin, result.Outcome)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestRefreshAccessToken_TransientFailure(t *testing.T) {
	api := &fakeCognito{refreshErr: errors.New("connection reset")}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyRefreshToken, "refresh-token"))
	m := NewManager(api, store, "client-id", quietLogger())

	result := m.RefreshAccessToken(context.Background())

	assert.Equal(t, TransientError, result.Outcome)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestLogout_ClearsPersistedSession(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{"good-token": true}}
	store := NewMemStore()
	for key, value := range map[string]string{
		KeyAccessToken:   "good-token",
		KeyRefreshToken:  "refresh-token",
		KeyIDToken:       "id-token",
		KeyName:          "Alice Example",
		KeyEmail:         "alice@example.com",
		KeyCognitoUserID: "sub-alice",
		KeyOrganizations: `[{"organization_name":"Acme"}]`,
	} {
		require.NoError(t, store.Set(key, value))
	}
	m := NewManager(api, store, "client-id", quietLogger())

	require.NoError(t, m.Logout(context.Background()))

	assert.Equal(t, 1, api.signOutCalls)
	assert.False(t, m.Authenticated())
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyName, KeyEmail, KeyCognitoUserID} {
		value, _ := store.Get(key)
		assert.Empty(t, value, key)
	}
}

func TestAuthenticate_PersistsTokensAndValidates(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{"interactive-access": true}}
	store := NewMemStore()
	m := NewManager(api, store, "client-id", quietLogger())

	require.NoError(t, m.Authenticate(context.Background(), "alice@example.com", "hunter2"))

	assert.True(t, m.Authenticated())
	access, _ := store.Get(KeyAccessToken)
	refresh, _ := store.Get(KeyRefreshToken)
	assert.Equal(t, "interactive-access", access)
	assert.Equal(t, "interactive-refresh", refresh)
}

func TestSubscribe_ObservesTransitions(t *testing.T) {
	api := &fakeCognito{validTokens: map[string]bool{"good-token": true}}
	store := NewMemStore()
	require.NoError(t, store.Set(KeyAccessToken, "good-token"))
	m := NewManager(api, store, "client-id", quietLogger())

	ch, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.CheckAuthentication(context.Background()))

	assert.Equal(t, StateValidating, <-ch)
	assert.Equal(t, StateAuthenticated, <-ch)
}
