package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/labinventory/internal/model"
	"github.com/erazemk/labinventory/internal/upstream"
)

// Fallback messages shown on the login screen.
const (
	msgLoginFailed   = "Login failed"
	msgConnectFailed = "Failed to connect to server"
)

// loginForm is the login screen state.
type loginForm struct {
	Email    string
	Password string
	Error    string
	Loading  bool
}

type loginPageData struct {
	PageData
	Form            loginForm
	DefaultEmail    string
	DefaultPassword string
}

// LoginPage handles GET / and GET /login. A browser that already holds a
// token goes straight to the dashboard; the token is not validated.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s.hasToken(r.Context(), GetStorageID(r.Context())) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	s.renderLogin(w, loginForm{Email: s.DefaultEmail, Password: s.DefaultPassword})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	if !s.submitLogin(r.Context(), GetStorageID(r.Context()), &form) {
		s.renderLogin(w, form)
		return
	}

	slog.Info("user logged in", "email", form.Email)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Storage.Clear(r.Context(), GetStorageID(r.Context())); err != nil {
		slog.Error("failed to clear browser storage", "error", err)
	}
	clearStorageCookie(w, s.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, form loginForm) {
	s.Templates.Render(w, "login.html", &loginPageData{
		PageData:        PageData{Title: "Login", BodyClass: "page-login"},
		Form:            form,
		DefaultEmail:    s.DefaultEmail,
		DefaultPassword: s.DefaultPassword,
	})
}

func (s *Server) hasToken(ctx context.Context, storageID string) bool {
	token, ok, err := s.Storage.GetItem(ctx, storageID, model.KeyToken)
	if err != nil {
		slog.Error("failed to read browser storage", "error", err)
		return false
	}
	return ok && token != ""
}

// submitLogin runs one login attempt and reports whether it succeeded. On
// failure form.Error holds the message to show. form.Loading is set for the
// duration of the attempt and cleared on every exit path.
func (s *Server) submitLogin(ctx context.Context, storageID string, form *loginForm) bool {
	form.Error = ""
	form.Loading = true
	defer func() { form.Loading = false }()

	session, err := s.AuthAPI.Login(ctx, form.Email, form.Password)
	if err != nil {
		slog.Warn("login failed", "email", form.Email, "error", err)
		form.Error = loginErrorMessage(err)
		return false
	}

	if err := s.saveSession(ctx, storageID, session); err != nil {
		slog.Error("failed to store session", "error", err)
		form.Error = errorMessage(err, msgConnectFailed)
		return false
	}
	return true
}

// saveSession writes the token, the user object as received, and the
// reduced lab user record.
func (s *Server) saveSession(ctx context.Context, storageID string, session *model.Session) error {
	user := string(session.RawUser)
	if user == "" {
		user = "null"
	}
	labUser, err := json.Marshal(session.LabUser())
	if err != nil {
		return fmt.Errorf("encoding lab user: %w", err)
	}

	items := []struct{ key, value string }{
		{model.KeyToken, session.Token},
		{model.KeyUser, user},
		{model.KeyLabUser, string(labUser)},
	}
	for _, item := range items {
		if err := s.Storage.SetItem(ctx, storageID, item.key, item.value); err != nil {
			return err
		}
	}
	return nil
}

// loginErrorMessage prefers the server's message for rejected logins.
func loginErrorMessage(err error) string {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return msgLoginFailed
	}
	return errorMessage(err, msgConnectFailed)
}

// errorMessage returns err's text, or fallback when it has none.
func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
