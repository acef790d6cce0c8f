package web

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/labinventory/internal/model"
	"github.com/erazemk/labinventory/internal/upstream"
)

func adminLoginAPI(t *testing.T) *fakeAPI {
	return newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		body := decodeJSONBody(t, r)
		if body["email"] != "admin@lab.com" || body["password"] != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"token":"abc","user":{"name":"Admin","role":"admin","email":"admin@lab.com"}}`))
	})
}

func TestLoginPageRendersForm(t *testing.T) {
	api := unusedAPI(t)
	app := setupTestApp(t, api.client(), api.client())

	resp, body := app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="admin@lab.com"`)
	assert.Contains(t, body, `value="admin123"`)
	assert.Contains(t, body, "Default credentials:")
	assert.Contains(t, body, ">Login</button>")
	assert.NotContains(t, body, "alert-error")

	// A new browser gets its storage cookie on first visit.
	assert.NotEmpty(t, app.storageID(t))
}

func TestLoginSuccessStoresSession(t *testing.T) {
	api := adminLoginAPI(t)
	app := setupTestApp(t, api.client(), unusedAPI(t).client())

	resp, _ := app.postForm(t, "/login", url.Values{
		"email":    {"admin@lab.com"},
		"password": {"admin123"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	ctx := context.Background()
	id := app.storageID(t)

	token, ok, err := app.storage.GetItem(ctx, id, model.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	user, _, _ := app.storage.GetItem(ctx, id, model.KeyUser)
	assert.JSONEq(t, `{"name":"Admin","role":"admin","email":"admin@lab.com"}`, user)

	labUser, _, _ := app.storage.GetItem(ctx, id, model.KeyLabUser)
	assert.JSONEq(t, `{"name":"Admin","role":"admin"}`, labUser)
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	api := adminLoginAPI(t)
	app := setupTestApp(t, api.client(), unusedAPI(t).client())
	app.useStorageID(t, "browser-1")

	// An empty token does not count as logged in, so the form is shown.
	require.NoError(t, app.storage.SetItem(context.Background(), "browser-1", model.KeyToken, ""))
	resp, _ := app.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.postForm(t, "/login", url.Values{"email": {"admin@lab.com"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	token, _, _ := app.storage.GetItem(context.Background(), "browser-1", model.KeyToken)
	assert.Equal(t, "abc", token)
}

func TestLoginRedirectsWithoutNetworkWhenTokenPresent(t *testing.T) {
	api := unusedAPI(t)
	app := setupTestApp(t, api.client(), api.client())
	app.useStorageID(t, "browser-1")
	require.NoError(t, app.storage.SetItem(context.Background(), "browser-1", model.KeyToken, "stale-token"))

	for _, path := range []string{"/", "/login"} {
		resp, _ := app.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/dashboard", resp.Header.Get("Location"), path)
	}
	assert.EqualValues(t, 0, api.calls.Load())
}

func TestLoginErrorPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error first", `{"error":"Invalid credentials","message":"Unauthorized"}`, "Invalid credentials"},
		{"message second", `{"message":"Account disabled"}`, "Account disabled"},
		{"fallback", `{}`, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tt.body))
			})
			app := setupTestApp(t, api.client(), unusedAPI(t).client())

			resp, body := app.postForm(t, "/login", url.Values{"email": {"x@lab.com"}, "password": {"nope"}})
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `role="alert">`+tt.want+`</div>`)
			// The submitted values stay in the form.
			assert.Contains(t, body, `value="x@lab.com"`)
			// Loading is cleared once the attempt finishes.
			assert.Contains(t, body, ">Login</button>")

			_, ok, _ := app.storage.GetItem(context.Background(), app.storageID(t), model.KeyToken)
			assert.False(t, ok)
		})
	}
}

func TestLoginConnectionFailure(t *testing.T) {
	down := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	client := down.client()
	down.server.Close()

	app := setupTestApp(t, client, unusedAPI(t).client())

	resp, body := app.postForm(t, "/login", url.Values{"email": {"admin@lab.com"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alert-error")
	assert.Contains(t, body, "login request")
}

func TestSubmitLoginClearsLoading(t *testing.T) {
	api := adminLoginAPI(t)
	app := setupTestApp(t, api.client(), unusedAPI(t).client())

	s := &Server{Storage: app.storage, AuthAPI: api.client()}

	form := loginForm{Email: "admin@lab.com", Password: "admin123", Error: "previous", Loading: true}
	assert.True(t, s.submitLogin(context.Background(), "browser-1", &form))
	assert.False(t, form.Loading)
	assert.Empty(t, form.Error)

	form = loginForm{Email: "admin@lab.com", Password: "wrong"}
	assert.False(t, s.submitLogin(context.Background(), "browser-2", &form))
	assert.False(t, form.Loading)
	assert.Equal(t, "Invalid credentials", form.Error)
}

func TestLoginErrorMessage(t *testing.T) {
	assert.Equal(t, "Login failed", loginErrorMessage(&upstream.StatusError{Op: upstream.OpLogin, Status: 500}))
	assert.Equal(t, "Bad password", loginErrorMessage(&upstream.StatusError{Op: upstream.OpLogin, Status: 401, Message: "Bad password"}))
	assert.Equal(t, "Failed to connect to server", loginErrorMessage(emptyError{}))
}

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestLogoutClearsStorage(t *testing.T) {
	api := adminLoginAPI(t)
	app := setupTestApp(t, api.client(), unusedAPI(t).client())

	app.postForm(t, "/login", url.Values{"email": {"admin@lab.com"}, "password": {"admin123"}})
	id := app.storageID(t)

	resp, _ := app.postForm(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, ok, err := app.storage.GetItem(context.Background(), id, model.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
