package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_NegativeValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("CreateUser invalid email", func(t *testing.T) {
		code := doJSON(t, srv, http.MethodPost, "/v1/users", "", map[string]string{
			"userId": "neg_user1", "email": "bad",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("CreateUser malformed json", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/users", http.NoBody)
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	createUser(t, srv, "neg_valid_user")

	t.Run("SendFriendRequest missing recipient", func(t *testing.T) {
		code := doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "neg_valid_user", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("SendFriendRequest to self", func(t *testing.T) {
		code := doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "neg_valid_user", map[string]string{
			"recipientId": "neg_valid_user",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("CreatePlaydate end before start", func(t *testing.T) {
		start := time.Now().UTC().Add(time.Hour)
		code := doJSON(t, srv, http.MethodPost, "/v1/playdates", "neg_valid_user", map[string]interface{}{
			"title":     "backwards",
			"startTime": start,
			"endTime":   start.Add(-time.Hour),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("ListPlaydates bad limit", func(t *testing.T) {
		resp := getRaw(t, srv, "/v1/playdates?limit=abc")
		assert.Equal(t, http.StatusBadRequest, resp)
	})

	t.Run("SendInvitation missing fields", func(t *testing.T) {
		code := doJSON(t, srv, http.MethodPost, "/v1/invitations", "neg_valid_user", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func getRaw(t *testing.T, srv *httptest.Server, path string) int {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}
