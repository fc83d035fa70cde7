package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Astemirdum/bookbarter/pkg/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueParse(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens(auth.Config{Secret: "s3cret", TTL: time.Hour})
	userID := uuid.New()

	token, exp, err := tokens.Issue(userID, "ava@x.com")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "ava@x.com", claims.Email)

	_, err = auth.NewTokens(auth.Config{Secret: "other"}).Parse(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens(auth.Config{Secret: "s3cret"})
	userID := uuid.New()
	token, _, err := tokens.Issue(userID, "ava@x.com")
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedBody string
	}{
		{name: "ok", header: "Bearer " + token, expectedCode: http.StatusOK, expectedBody: userID.String()},
		{name: "no header", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"No Authorization Header"}`},
		{name: "not bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"Invalid Authorization Header"}`},
		{name: "bad token", header: "Bearer abc", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"invalid or expired token"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/me", func(c echo.Context) error {
				id, ok := auth.UserID(c.Request().Context())
				if !ok {
					return echo.NewHTTPError(http.StatusInternalServerError, "no user")
				}
				return c.String(http.StatusOK, id.String())
			}, auth.Middleware(tokens))

			r := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				r.Header.Set(auth.AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
