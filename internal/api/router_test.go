package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/database"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	events := services.NewEventService(db)
	projects := services.NewProjectService(db, events)
	router := NewRouter(Dependencies{
		DB:             db,
		Tokens:         auth.NewTokenIssuer("test-secret", time.Hour),
		Users:          services.NewUserService(db, events, bcrypt.MinCost),
		Projects:       projects,
		Comments:       services.NewCommentService(db, projects, events),
		Events:         events,
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv}
}

func (a *testAPI) do(method, path, token string, body any) (*http.Response, []byte) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(a.t, err)
	return resp, buf.Bytes()
}

func (a *testAPI) signup(name string) (token, userID string) {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/api/v1/user/signup", "", map[string]string{
		"email":     name + "@example.com",
		"password":  "password1",
		"firstName": name,
		"lastName":  "Tester",
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, string(body))

	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	require.NoError(a.t, json.Unmarshal(body, &out))
	require.NotEmpty(a.t, out.Token)
	return out.Token, out.UserID
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details []struct {
		Field string `json:"field"`
	} `json:"details"`
}

func TestSignupSigninFlow(t *testing.T) {
	a := newTestAPI(t)
	token, userID := a.signup("ada")

	resp, body := a.do(http.MethodPost, "/api/v1/user/signup", "", map[string]string{
		"email": "ADA@example.com", "password": "password1", "firstName": "Ada", "lastName": "Again",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", decode[errorBody](t, body).Code)

	resp, body = a.do(http.MethodPost, "/api/v1/user/signin", "", map[string]string{
		"email": "ada@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	signin := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, body)
	assert.Equal(t, userID, signin.User.ID)
	assert.NotContains(t, string(body), "password")

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, signin.Token, cookie.Value)

	resp, _ = a.do(http.MethodPost, "/api/v1/user/signin", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/api/v1/user/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, decode[models.User](t, body).ID)

	resp, _ = a.do(http.MethodGet, "/api/v1/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodGet, "/api/v1/user/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupValidationDetails(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(http.MethodPost, "/api/v1/user/signup", "", map[string]string{
		"email": "nope", "password": "123", "firstName": "A", "lastName": "B",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	eb := decode[errorBody](t, body)
	assert.Equal(t, "invalid_request", eb.Code)
	fields := make([]string, 0, len(eb.Details))
	for _, d := range eb.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)

	resp, _ = a.do(http.MethodPost, "/api/v1/user/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	adaToken, adaID := a.signup("ada")
	bobToken, _ := a.signup("bob")

	resp, _ := a.do(http.MethodPost, "/api/v1/projects", "", map[string]string{"title": "T", "description": "D"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/api/v1/projects", adaToken, map[string]string{
		"title": "T", "description": "D", "githubUrl": "not-a-url",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := a.do(http.MethodPost, "/api/v1/projects", adaToken, map[string]string{
		"title": "T", "description": "D", "githubUrl": "https://example.com/x",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	project := decode[models.Project](t, body)
	assert.Equal(t, adaID, project.OwnerID)
	require.NotNil(t, project.Owner)
	assert.Equal(t, "ada@example.com", project.Owner.Email)

	resp, body = a.do(http.MethodGet, "/api/v1/projects", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Project](t, body), 1)

	resp, body = a.do(http.MethodGet, "/api/v1/projects/mine", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]\n", string(body))

	resp, _ = a.do(http.MethodGet, "/api/v1/projects/"+project.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.do(http.MethodGet, "/api/v1/projects/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = a.do(http.MethodGet, "/api/v1/projects/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Invalid payload from a non-owner is still forbidden.
	resp, body = a.do(http.MethodPatch, "/api/v1/projects/"+project.ID, bobToken, map[string]string{"title": ""})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode[errorBody](t, body).Code)
	resp, _ = a.do(http.MethodDelete, "/api/v1/projects/"+project.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = a.do(http.MethodPut, "/api/v1/projects/"+project.ID, adaToken, map[string]string{"title": "T2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Project](t, body)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "D", updated.Description)

	resp, _ = a.do(http.MethodDelete, "/api/v1/projects/"+project.ID, adaToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = a.do(http.MethodGet, "/api/v1/projects/"+project.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentsOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	adaToken, _ := a.signup("ada")
	bobToken, bobID := a.signup("bob")

	_, body := a.do(http.MethodPost, "/api/v1/projects", adaToken, map[string]string{"title": "T", "description": "D"})
	project := decode[models.Project](t, body)

	resp, body := a.do(http.MethodPost, "/api/v1/projects/"+project.ID+"/comments", bobToken, map[string]string{"body": "Nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	comment := decode[models.Comment](t, body)
	assert.Equal(t, bobID, comment.AuthorID)
	assert.Equal(t, models.CategoryGeneral, comment.Category)

	resp, _ = a.do(http.MethodPost, "/api/v1/projects/"+uuid.NewString()+"/comments", bobToken, map[string]string{"body": "Nice"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/api/v1/projects/"+project.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Comment](t, body), 1)

	resp, _ = a.do(http.MethodPatch, "/api/v1/comments/"+comment.ID, adaToken, map[string]string{"body": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = a.do(http.MethodPatch, "/api/v1/comments/"+comment.ID, bobToken, map[string]string{"category": "approval"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.CategoryApproval, decode[models.Comment](t, body).Category)

	resp, _ = a.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, adaToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = a.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, bobToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestEventsAndOperationsEndpoints(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.signup("ada")

	resp, _ := a.do(http.MethodGet, "/api/v1/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := a.do(http.MethodGet, "/api/v1/events?limit=5", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[[]models.Event](t, body)
	require.Len(t, events, 1)
	assert.Equal(t, "user.signup", events[0].Type)

	resp, body = a.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]any](t, body)["database"])

	resp, body = a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "projecthub_http_request_duration_seconds")
}

func TestUpdateBodyErrorsReportedOnlyToOwner(t *testing.T) {
	a := newTestAPI(t)
	adaToken, _ := a.signup("ada")
	bobToken, _ := a.signup("bob")

	_, body := a.do(http.MethodPost, "/api/v1/projects", adaToken, map[string]string{"title": "T", "description": "D"})
	project := decode[models.Project](t, body)
	_, body = a.do(http.MethodPost, "/api/v1/projects/"+project.ID+"/comments", adaToken, map[string]string{"body": "Note"})
	comment := decode[models.Comment](t, body)

	projectPath := "/api/v1/projects/" + project.ID
	commentPath := "/api/v1/comments/" + comment.ID

	for _, tc := range []struct {
		name string
		body any
	}{
		{"wrong field type", `{"title": 42, "body": 42}`},
		{"not json", "not json"},
		{"empty body", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := a.do(http.MethodPatch, projectPath, bobToken, tc.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			resp, _ = a.do(http.MethodPatch, commentPath, bobToken, tc.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}

	resp, _ := a.do(http.MethodPatch, "/api/v1/projects/"+uuid.NewString(), bobToken, "not json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodPatch, projectPath, adaToken, `{"title": 42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decode[errorBody](t, body).Code)
	resp, _ = a.do(http.MethodPatch, commentPath, adaToken, "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEmptyPatchIsNoOp(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.signup("ada")

	_, body := a.do(http.MethodPost, "/api/v1/projects", token, map[string]string{"title": "T", "description": "D"})
	project := decode[models.Project](t, body)
	_, body = a.do(http.MethodPost, "/api/v1/projects/"+project.ID+"/comments", token, map[string]string{"body": "Note"})
	comment := decode[models.Comment](t, body)

	time.Sleep(5 * time.Millisecond)

	resp, body := a.do(http.MethodPatch, "/api/v1/projects/"+project.ID, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[models.Project](t, body)
	assert.Equal(t, project.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, project.Title, got.Title)

	resp, body = a.do(http.MethodPut, "/api/v1/comments/"+comment.ID, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, comment.UpdatedAt, decode[models.Comment](t, body).UpdatedAt)
}
