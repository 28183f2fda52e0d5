// Package orgapi is the HTTP client for the organization API, the Go
// counterpart of the frontend's fetch calls. Responses use the HTTP status
// as the primary signal; 403 and 404 map to sentinel errors so callers can
// distinguish no-access from nonexistence.
package orgapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"orghub/lib/models"
	"orghub/lib/session"

	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
)

// Client talks to the organization API. The session store caches the
// organization list under the organizations key, mirroring the persisted
// client state the UI reads on reload.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Store   session.Store
	Logger  *logrus.Logger
}

func NewClient(baseURL string, store session.Store, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    http.DefaultClient,
		Store:   store,
		Logger:  logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		var msg messageResponse
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil && msg.Message != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// FetchOrganizations retrieves the caller's organizations and caches them in
// the session store for reload survival
func (c *Client) FetchOrganizations(ctx context.Context, cognitoUserID string) ([]models.Organization, error) {
	query := url.Values{"cognito_user_id": {cognitoUserID}}

	var out models.OrganizationListResponse
	if err := c.do(ctx, http.MethodGet, "/organizations", query, nil, &out); err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(out.Organizations); err == nil {
		if err := c.Store.Set(session.KeyOrganizations, string(raw)); err != nil {
			c.Logger.WithError(err).Warn("Failed to cache organization list")
		}
	}
	return out.Organizations, nil
}

// CachedOrganizations returns the organization list persisted by the last
// FetchOrganizations call, or nil when nothing is cached
func (c *Client) CachedOrganizations() ([]models.Organization, error) {
	raw, err := c.Store.Get(session.KeyOrganizations)
	if err != nil || raw == "" {
		return nil, err
	}

	var organizations []models.Organization
	if err := json.Unmarshal([]byte(raw), &organizations); err != nil {
		return nil, fmt.Errorf("failed to parse cached organizations: %w", err)
	}
	return organizations, nil
}

// CreateOrganization creates an organization with the caller as owner and
// refreshes the cached organization list
func (c *Client) CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) error {
	if err := c.do(ctx, http.MethodPost, "/organizations", nil, req, nil); err != nil {
		return err
	}
	_, err := c.FetchOrganizations(ctx, req.CognitoUserID)
	return err
}

// UpdateDescription changes an organization description. No data beyond
// success comes back; callers re-fetch to observe the new state.
func (c *Client) UpdateDescription(ctx context.Context, req models.UpdateDescriptionRequest) error {
	return c.do(ctx, http.MethodPut, "/organizations/description", nil, req, nil)
}

// ListMembers returns the organization's membership list
func (c *Client) ListMembers(ctx context.Context, organizationName, cognitoUserID string) ([]models.Member, error) {
	query := url.Values{
		"organization_name": {organizationName},
		"cognito_user_id":   {cognitoUserID},
	}

	var out models.MemberListResponse
	if err := c.do(ctx, http.MethodGet, "/members", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// AddMember adds a user to an organization by email
func (c *Client) AddMember(ctx context.Context, req models.AddMemberRequest) error {
	return c.do(ctx, http.MethodPost, "/members", nil, req, nil)
}

// UpdateRole changes one member's role
func (c *Client) UpdateRole(ctx context.Context, req models.UpdateRoleRequest) error {
	return c.do(ctx, http.MethodPut, "/members/role", nil, req, nil)
}

// UpdateRoles applies a set of role changes in one atomic request, replacing
// the old one-request-per-member loop that could partially apply
func (c *Client) UpdateRoles(ctx context.Context, req models.BatchUpdateRolesRequest) error {
	return c.do(ctx, http.MethodPut, "/members/roles", nil, req, nil)
}
