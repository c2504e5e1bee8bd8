package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Nickname string `json:"nickname,omitempty"`
}

type account struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	Secret    string     `json:"-"`
}

type accountList struct {
	Accounts []account `json:"accounts"`
}

func testDocument() *Document {
	doc := New("test API", "1.0.0").
		Server("/api/v1", "base").
		CookieAuth("accessCookie", "access_token", "access cookie")

	doc.Operation(http.MethodPost, "/signup").ID("signup").
		Body(signupRequest{}, "signup").
		Response(http.StatusCreated, account{}, "created").
		Build()
	doc.Operation(http.MethodGet, "/accounts/:id").ID("getAccount").
		Security("accessCookie").
		Response(http.StatusOK, account{}, "account").
		Build()
	doc.Operation(http.MethodGet, "/accounts").ID("listAccounts").
		QueryParam("q", "filter", false).
		Response(http.StatusOK, accountList{}, "accounts").
		Build()
	return doc
}

func TestDocument_Schemas(t *testing.T) {
	doc := testDocument()
	spec := doc.Spec()

	require.NotNil(t, spec.Paths.Find("/accounts/{id}"))

	signup := spec.Components.Schemas["signupRequest"]
	require.NotNil(t, signup)
	email := signup.Value.Properties["email"].Value
	assert.Equal(t, "email", email.Format)
	pw := signup.Value.Properties["password"].Value
	assert.Equal(t, uint64(8), pw.MinLength)
	require.NotNil(t, pw.MaxLength)
	assert.Equal(t, uint64(128), *pw.MaxLength)
	assert.ElementsMatch(t, []string{"email", "password"}, signup.Value.Required)

	acc := spec.Components.Schemas["account"].Value
	assert.NotContains(t, acc.Properties, "Secret")
	assert.Equal(t, "date-time", acc.Properties["createdAt"].Value.Format)
	assert.True(t, acc.Properties["deletedAt"].Value.Nullable)
	assert.ElementsMatch(t, []string{"id", "createdAt"}, acc.Required)

	list := spec.Components.Schemas["accountList"].Value
	assert.True(t, list.Properties["accounts"].Value.Type.Is("array"))
}

func TestDocument_Validate(t *testing.T) {
	require.NoError(t, testDocument().Validate(context.Background()))
}

func TestDocument_Handlers(t *testing.T) {
	doc := testDocument()
	e := echo.New()
	e.GET("/openapi.json", doc.JSONHandler())
	e.GET("/openapi.yaml", doc.YAMLHandler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/accounts/{id}"`)
	assert.Contains(t, rec.Body.String(), `"$ref": "#/components/schemas/account"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestEchoPathToOpenAPI(t *testing.T) {
	assert.Equal(t, "/users/{id}/sessions/{sid}", echoPathToOpenAPI("/users/:id/sessions/:sid"))
	assert.Equal(t, "/health", echoPathToOpenAPI("/health"))
}
