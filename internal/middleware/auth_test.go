package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestUserIDFromToken(t *testing.T) {
	token := signedToken(t, "user-1", "jwt-secret")

	userID, err := UserIDFromToken(token, "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = UserIDFromToken(token, "other-secret")
	assert.Error(t, err)

	_, err = UserIDFromToken("garbage", "jwt-secret")
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	e := echo.New()
	h := Auth("jwt-secret")(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signedToken(t, "user-1", "jwt-secret"))
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "user-1", rec.Body.String())

	// EventSource clients pass the token as a query parameter.
	req = httptest.NewRequest(http.MethodGet, "/?token="+signedToken(t, "user-2", "jwt-secret"), nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "user-2", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
