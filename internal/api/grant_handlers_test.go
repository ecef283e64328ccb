package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"drzewo-plikow/internal/database"
	"drzewo-plikow/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newGrantRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/users/{userId}/grants", testServer.ListGrantsHandler)
	r.Put("/users/{userId}/grants", testServer.ReplaceGrantsHandler)
	return r
}

func TestReplaceGrantsHandler_AdminOnly(t *testing.T) {
	body, _ := json.Marshal(ReplaceGrantsRequest{})
	target := fmt.Sprintf("/users/%d/grants", testOtherClaims.UserID)

	req := authedRequest(testUserClaims, "PUT", target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = authedRequest(testUserClaims, "GET", target, nil)
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestReplaceGrantsHandler(t *testing.T) {
	folder := createFolderViaAPI(t, testUserClaims, "Do_Nadania", nil)
	target := fmt.Sprintf("/users/%d/grants", testOtherClaims.UserID)

	body, _ := json.Marshal(ReplaceGrantsRequest{Grants: []database.GrantParams{
		{NodeID: folder.ID, CanRead: true, CanWrite: false},
	}})

	req := authedRequest(testAdminClaims, "PUT", target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	req = authedRequest(testAdminClaims, "GET", target, nil)
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var grants []models.Grant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &grants))
	require.Len(t, grants, 1)
	require.Equal(t, folder.ID, grants[0].NodeID)
	require.True(t, grants[0].CanRead)
	require.False(t, grants[0].CanWrite)

	// Wymiana hurtowa: pusty zestaw zdejmuje wszystko
	body, _ = json.Marshal(ReplaceGrantsRequest{})
	req = authedRequest(testAdminClaims, "PUT", target, bytes.NewReader(body))
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req = authedRequest(testAdminClaims, "GET", target, nil)
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	grants = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &grants))
	require.Empty(t, grants)
}

func TestReplaceGrantsHandler_BadInput(t *testing.T) {
	target := fmt.Sprintf("/users/%d/grants", testOtherClaims.UserID)

	// Nieistniejący nod w zestawie
	body, _ := json.Marshal(ReplaceGrantsRequest{Grants: []database.GrantParams{
		{NodeID: "nie_ma_takiego_noda", CanRead: true},
	}})
	req := authedRequest(testAdminClaims, "PUT", target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Nieistniejący użytkownik
	body, _ = json.Marshal(ReplaceGrantsRequest{})
	req = authedRequest(testAdminClaims, "PUT", "/users/999999/grants", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Identyfikator niebędący liczbą
	req = authedRequest(testAdminClaims, "PUT", "/users/abc/grants", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	newGrantRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
