// Package session owns the client-side authentication lifecycle: token
// persistence, validation against Cognito, transparent refresh with a
// bounded retry, and an observable authenticated state. Consumers inject a
// Manager and subscribe to state changes instead of reading ambient globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// CognitoAPI is the subset of the Cognito identity provider client the
// session manager uses. The concrete *cognitoidentityprovider.Client
// satisfies it; tests substitute a fake.
type CognitoAPI interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	ForgotPassword(ctx context.Context, params *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
	ChangePassword(ctx context.Context, params *cognitoidentityprovider.ChangePasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ChangePasswordOutput, error)
	UpdateUserAttributes(ctx context.Context, params *cognitoidentityprovider.UpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.UpdateUserAttributesOutput, error)
}

// State is the session lifecycle state
type State int

const (
	StateUnknown State = iota
	StateValidating
	StateRefreshing
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateValidating:
		return "validating"
	case StateRefreshing:
		return "refreshing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "invalid"
}

// Identity holds the attributes mirrored from the identity provider
type Identity struct {
	Name          string
	Email         string
	CognitoUserID string
}

// RefreshOutcome classifies a token refresh attempt
type RefreshOutcome int

const (
	// Refreshed means a new access token was obtained and persisted
	Refreshed RefreshOutcome = iota
	// NeedsLogin means the refresh credential is missing or rejected; only
	// an interactive sign-in can recover the session
	NeedsLogin
	// TransientError means the provider call failed for a reason that may
	// resolve on its own (network, throttling)
	TransientError
)

// RefreshResult is the typed result of RefreshAccessToken
type RefreshResult struct {
	Outcome     RefreshOutcome
	AccessToken string
	Err         error
}

// Manager is the single source of truth for "is this process authenticated".
// State transitions are observable only through Authenticated/Identity/State
// and subscriptions; no other component mutates session state directly.
type Manager struct {
	api      CognitoAPI
	store    Store
	clientID string
	logger   *logrus.Logger

	mu       sync.Mutex
	state    State
	identity Identity
	subs     map[int]chan State
	nextSub  int
}

// NewManager creates a session manager. State starts Unknown until the first
// CheckAuthentication call.
func NewManager(api CognitoAPI, store Store, clientID string, logger *logrus.Logger) *Manager {
	return &Manager{
		api:      api,
		store:    store,
		clientID: clientID,
		logger:   logger,
		state:    StateUnknown,
		subs:     map[int]chan State{},
	}
}

// Subscribe registers a state observer. The returned cancel function must be
// called to release the channel. Slow subscribers drop intermediate states
// rather than blocking a transition.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan State, 8)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
	m.mu.Unlock()
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether the last identity-provider call succeeded
// with the currently stored access token
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

// Identity returns the identity fields from the last successful validation
func (m *Manager) Identity() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// CheckAuthentication resynchronizes session state with the persisted
// tokens. No persisted access token is terminal for this cycle: the session
// is simply unauthenticated, not an error.
func (m *Manager) CheckAuthentication(ctx context.Context) error {
	token, err := m.store.Get(KeyAccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" {
		m.setState(StateUnauthenticated)
		return nil
	}

	m.setState(StateValidating)
	return m.fetchUserData(ctx, token, true)
}

// Login resynchronizes state after an interactive sign-in
func (m *Manager) Login(ctx context.Context) error {
	return m.CheckAuthentication(ctx)
}

// fetchUserData validates the token against Cognito and caches the identity
// attributes. On a token-invalid failure it refreshes and retries exactly
// once; allowRefresh bounds the recursion.
func (m *Manager) fetchUserData(ctx context.Context, token string, allowRefresh bool) error {
	out, err := m.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		if tokenInvalid(err) && allowRefresh {
			m.logger.WithField("operation", "fetchUserData").Debug("Access token rejected, attempting refresh")
			result := m.RefreshAccessToken(ctx)
			if result.Outcome == Refreshed {
				return m.fetchUserData(ctx, result.AccessToken, false)
			}
			m.setState(StateUnauthenticated)
			return fmt.Errorf("session expired and refresh failed: %w", result.Err)
		}

		m.logger.WithFields(logrus.Fields{
			"operation": "fetchUserData",
			"error":     err.Error(),
		}).Error("Failed to fetch user data")
		m.setState(StateUnauthenticated)
		return fmt.Errorf("failed to fetch user data: %w", err)
	}

	attrs := map[string]string{}
	for _, attr := range out.UserAttributes {
		if attr.Name != nil && attr.Value != nil {
			attrs[*attr.Name] = *attr.Value
		}
	}

	identity := Identity{
		Name:          attrs["name"],
		Email:         attrs["email"],
		CognitoUserID: attrs["sub"],
	}
	if err := m.store.Set(KeyName, identity.Name); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	if err := m.store.Set(KeyEmail, identity.Email); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	if err := m.store.Set(KeyCognitoUserID, identity.CognitoUserID); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}

	m.mu.Lock()
	m.identity = identity
	m.mu.Unlock()
	m.setState(StateAuthenticated)

	m.logger.WithFields(logrus.Fields{
		"operation":       "fetchUserData",
		"cognito_user_id": identity.CognitoUserID,
	}).Debug("Session validated")

	return nil
}

// RefreshAccessToken exchanges the persisted refresh token for a new access
// token and persists it. Any failure leaves the session unauthenticated; the
// outcome tells the caller whether an interactive sign-in is required.
func (m *Manager) RefreshAccessToken(ctx context.Context) RefreshResult {
	refreshToken, err := m.store.Get(KeyRefreshToken)
	if err != nil {
		m.setState(StateUnauthenticated)
		return RefreshResult{Outcome: TransientError, Err: fmt.Errorf("failed to read refresh token: %w", err)}
	}
	if refreshToken == "" {
		m.setState(StateUnauthenticated)
		return RefreshResult{Outcome: NeedsLogin, Err: errors.New("no refresh token available")}
	}

	m.setState(StateRefreshing)

	out, err := m.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(m.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"operation": "RefreshAccessToken",
			"error":     err.Error(),
		}).Error("Failed to refresh access token")
		m.setState(StateUnauthenticated)
		if tokenInvalid(err) {
			return RefreshResult{Outcome: NeedsLogin, Err: err}
		}
		return RefreshResult{Outcome: TransientError, Err: err}
	}

	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		m.setState(StateUnauthenticated)
		return RefreshResult{Outcome: TransientError, Err: errors.New("refresh response contained no access token")}
	}

	newToken := *out.AuthenticationResult.AccessToken
	if err := m.store.Set(KeyAccessToken, newToken); err != nil {
		m.setState(StateUnauthenticated)
		return RefreshResult{Outcome: TransientError, Err: fmt.Errorf("failed to persist access token: %w", err)}
	}
	if out.AuthenticationResult.IdToken != nil {
		if err := m.store.Set(KeyIDToken, *out.AuthenticationResult.IdToken); err != nil {
			return RefreshResult{Outcome: TransientError, Err: fmt.Errorf("failed to persist id token: %w", err)}
		}
	}

	m.logger.WithField("operation", "RefreshAccessToken").Debug("Access token refreshed")
	return RefreshResult{Outcome: Refreshed, AccessToken: newToken}
}

// Logout revokes the session with the provider (best effort) and clears all
// persisted session keys
func (m *Manager) Logout(ctx context.Context) error {
	token, _ := m.store.Get(KeyAccessToken)
	if token != "" {
		if _, err := m.api.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
			AccessToken: aws.String(token),
		}); err != nil {
			// Local teardown proceeds even when revocation fails
			m.logger.WithFields(logrus.Fields{
				"operation": "Logout",
				"error":     err.Error(),
			}).Warn("Global sign-out failed")
		}
	}

	err := m.store.Delete(
		KeyAccessToken,
		KeyRefreshToken,
		KeyIDToken,
		KeyName,
		KeyEmail,
		KeyCognitoUserID,
		KeyOrganizations,
	)

	m.mu.Lock()
	m.identity = Identity{}
	m.mu.Unlock()
	m.setState(StateUnauthenticated)

	if err != nil {
		return fmt.Errorf("failed to clear session store: %w", err)
	}
	return nil
}

// tokenInvalid reports whether the provider rejected the credential itself,
// as opposed to a transport or service failure
func tokenInvalid(err error) bool {
	var notAuthorized *types.NotAuthorizedException
	return errors.As(err, &notAuthorized)
}
