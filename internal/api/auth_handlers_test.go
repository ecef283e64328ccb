package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"drzewo-plikow/internal/auth"
	"drzewo-plikow/internal/models"

	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	body, _ := json.Marshal(LoginRequest{Username: "api_test_user", Password: "password"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	testServer.LoginHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	claims, err := auth.VerifyJWT(resp.AccessToken, testServer.config.JWT.Secret)
	require.NoError(t, err)
	require.Equal(t, testUserClaims.UserID, claims.UserID)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	body, _ := json.Marshal(LoginRequest{Username: "api_test_user", Password: "zle_haslo"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	testServer.LoginHandler(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	body, _ = json.Marshal(LoginRequest{Username: "nie_ma_takiego", Password: "password"})
	req = httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr = httptest.NewRecorder()

	testServer.LoginHandler(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddleware(t *testing.T) {
	handler := testServer.AuthMiddleware(http.HandlerFunc(testServer.GetCurrentUserHandler))

	// Poprawny token przechodzi i trafia do handlera z claimami w kontekście
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var user models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	require.Equal(t, "api_test_user", user.Username)
	require.NotContains(t, rr.Body.String(), "password_hash")

	// Brak nagłówka
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Zepsuty token
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer nie.token.jwt")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
