package orgapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"orghub/lib/models"
	"orghub/lib/session"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *session.MemStore, *httptest.Server) {
	server := httptest.NewServer(handler)
	store := session.NewMemStore()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(server.URL, store, logger), store, server
}

func TestFetchOrganizations_CachesResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations", r.URL.Path)
		assert.Equal(t, "sub-alice", r.URL.Query().Get("cognito_user_id"))
		json.NewEncoder(w).Encode(models.OrganizationListResponse{
			Message: "Organizations retrieved successfully",
			Organizations: []models.Organization{
				{OrganizationName: "Acme", Description: "widgets"},
			},
		})
	})
	client, store, server := newTestClient(handler)
	defer server.Close()

	orgs, err := client.FetchOrganizations(context.Background(), "sub-alice")
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme", orgs[0].OrganizationName)

	cached, _ := store.Get(session.KeyOrganizations)
	assert.Contains(t, cached, "Acme")

	fromCache, err := client.CachedOrganizations()
	require.NoError(t, err)
	assert.Equal(t, orgs, fromCache)
}

func TestListMembers_ForbiddenDistinctFromNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("organization_name") {
		case "Acme":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client, _, server := newTestClient(handler)
	defer server.Close()

	_, err := client.ListMembers(context.Background(), "Acme", "stranger")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = client.ListMembers(context.Background(), "Ghost", "stranger")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRoles_SendsBatchBody(t *testing.T) {
	var got models.BatchUpdateRolesRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/members/roles", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	client, _, server := newTestClient(handler)
	defer server.Close()

	err := client.UpdateRoles(context.Background(), models.BatchUpdateRolesRequest{
		OrganizationName: "Acme",
		CognitoUserID:    "owner-a",
		Changes: []models.RoleChange{
			{Email: "alice@acme.test", RoleName: models.RoleAdministrator},
			{Email: "bob@acme.test", RoleName: models.RoleOrganizationOwner},
		},
	})
	require.NoError(t, err)
	assert.Len(t, got.Changes, 2)
	assert.Equal(t, "Acme", got.OrganizationName)
}

func TestDo_SurfacesServerMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   true,
			"message": "Missing organization_name",
		})
	})
	client, _, server := newTestClient(handler)
	defer server.Close()

	err := client.UpdateDescription(context.Background(), models.UpdateDescriptionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing organization_name")
}
