package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kakshahq/kaksha-api/internal/middleware"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthSignupSetsCookie(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(postJSON("/api/auth/signup",
		`{"username":"meera","email":"meera@example.com","password":"secret123","role":"teacher"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tokenCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.TokenCookieName {
			tokenCookie = cookie
		}
	}
	require.NotNil(t, tokenCookie)
	require.NotEmpty(t, tokenCookie.Value)
	require.True(t, tokenCookie.HttpOnly)

	payload := decodeResponse(t, resp)
	require.True(t, payload.Success)
	require.NotEmpty(t, dataField(t, payload, "jwt_token"))
}

func TestAuthSigninUnknownEmailReturns404(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(postJSON("/api/auth/signin",
		`{"email":"nobody@example.com","password":"secret123"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.False(t, payload.Success)
	require.Equal(t, "user does not exist", payload.Message)
}

func TestAuthSigninWrongPasswordReturns400(t *testing.T) {
	app, db := setupApp(t)
	seedUser(t, db, "arjun", "student")

	resp, err := app.Test(postJSON("/api/auth/signin",
		`{"email":"arjun@example.com","password":"wrong-password"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthSignupDuplicateEmailConflicts(t *testing.T) {
	app, db := setupApp(t)
	seedUser(t, db, "taken", "student")

	resp, err := app.Test(postJSON("/api/auth/signup",
		`{"username":"other","email":"taken@example.com","password":"secret123"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthLogoutExpiresCookie(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.TokenCookieName {
			tokenCookie = cookie
		}
	}
	require.NotNil(t, tokenCookie)
	require.Empty(t, tokenCookie.Value)
}
