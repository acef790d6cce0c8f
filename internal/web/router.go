package web

import (
	"errors"
	"net/http"

	"github.com/erazemk/labinventory/internal/store"
	"github.com/erazemk/labinventory/internal/upstream"
	webembed "github.com/erazemk/labinventory/web"
)

// Options configures the page router.
type Options struct {
	Storage      *store.Storage
	CookieSecret string
	// AuthAPI backs the login screen and InventoryAPI the dashboard.
	AuthAPI      *upstream.Client
	InventoryAPI *upstream.Client

	DashboardEmail  string
	DefaultEmail    string
	DefaultPassword string
	SecureCookies   bool

	// Templates overrides the embedded templates when set.
	Templates *Templates
}

// Server holds all dependencies for page handlers.
type Server struct {
	Storage      *store.Storage
	Templates    *Templates
	AuthAPI      *upstream.Client
	InventoryAPI *upstream.Client

	DashboardEmail  string
	DefaultEmail    string
	DefaultPassword string
	SecureCookies   bool
}

// NewRouter creates the page router with all routes registered.
func NewRouter(opts Options) (http.Handler, error) {
	if opts.Storage == nil || opts.AuthAPI == nil || opts.InventoryAPI == nil {
		return nil, errors.New("web: storage and upstream clients are required")
	}
	if opts.CookieSecret == "" {
		return nil, errors.New("web: cookie secret is required")
	}

	templates := opts.Templates
	if templates == nil {
		var err error
		if templates, err = LoadEmbeddedTemplates(); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Storage:         opts.Storage,
		Templates:       templates,
		AuthAPI:         opts.AuthAPI,
		InventoryAPI:    opts.InventoryAPI,
		DashboardEmail:  opts.DashboardEmail,
		DefaultEmail:    opts.DefaultEmail,
		DefaultPassword: opts.DefaultPassword,
		SecureCookies:   opts.SecureCookies,
	}

	mux := http.NewServeMux()
	withStorage := StorageMiddleware(opts.CookieSecret, opts.SecureCookies)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Login screen.
	mux.Handle("GET /{$}", withStorage(http.HandlerFunc(s.LoginPage)))
	mux.Handle("GET /login", withStorage(http.HandlerFunc(s.LoginPage)))
	mux.Handle("POST /login", withStorage(http.HandlerFunc(s.LoginSubmit)))
	mux.Handle("POST /logout", withStorage(http.HandlerFunc(s.Logout)))

	// Dashboard screen.
	mux.HandleFunc("GET /dashboard", s.DashboardPage)
	mux.HandleFunc("GET /dashboard/panel", s.DashboardPanel)

	return securityHeaders(mux), nil
}
