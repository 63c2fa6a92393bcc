package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunavps/auth-service/auth"
	"github.com/lunavps/auth-service/internal/config"
	"github.com/lunavps/auth-service/server"
	fakesessionrepo "github.com/lunavps/auth-service/sessions/repofakes"
	"github.com/lunavps/auth-service/token"
	"github.com/lunavps/auth-service/users"
	fakeuserrepo "github.com/lunavps/auth-service/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

func setupTestServer(t *testing.T) *server.Server {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	require.NoError(t, ur.Upsert(&users.User{
		Email:        testUserEmail,
		PasswordHash: hash,
		Role:         users.RoleUser,
		Active:       true,
	}))

	issuer := token.New(token.NewHMACSigner("test-secret"))
	service, err := auth.NewService(
		auth.Repos{Users: ur, Sessions: fakesessionrepo.NewFakeSessionRepo()},
		auth.NewCredentialsAuthenticator(ur),
		issuer,
	)
	require.NoError(t, err)

	srv, err := server.New(config.New(), service)
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, srv *server.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeTokenPair(t *testing.T, rec *httptest.ResponseRecorder) auth.TokenPair {
	t.Helper()

	var pair auth.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	return pair
}

func TestLoginEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	rec := postJSON(t, srv, server.RouteAuthLogin, map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	pair := decodeTokenPair(t, rec)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	srv := setupTestServer(t)

	rec := postJSON(t, srv, server.RouteAuthLogin, map[string]string{
		"email":    testUserEmail,
		"password": "wrongPassword1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "invalid_credentials", body["error"])
}

func TestLoginEndpointMissingFields(t *testing.T) {
	srv := setupTestServer(t)

	rec := postJSON(t, srv, server.RouteAuthLogin, map[string]string{"email": testUserEmail})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	login := postJSON(t, srv, server.RouteAuthLogin, map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})
	require.Equal(t, http.StatusOK, login.Code)
	pair := decodeTokenPair(t, login)

	refresh := postJSON(t, srv, server.RouteAuthRefresh, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refresh.Code)

	rotated := decodeTokenPair(t, refresh)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token is single-use.
	replay := postJSON(t, srv, server.RouteAuthRefresh, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestRefreshEndpointUnknownToken(t *testing.T) {
	srv := setupTestServer(t)

	rec := postJSON(t, srv, server.RouteAuthRefresh, map[string]string{
		"refresh_token": "never-issued",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "invalid_refresh_token", body["error"])
}

func TestLogoutEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	login := postJSON(t, srv, server.RouteAuthLogin, map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})
	pair := decodeTokenPair(t, login)

	logout := postJSON(t, srv, server.RouteAuthLogout, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, logout.Code)

	// The session is gone; a refresh with the same token is rejected.
	refresh := postJSON(t, srv, server.RouteAuthRefresh, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, refresh.Code)
}

func TestHealthzEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteHealthz, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
