package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/labinventory/internal/model"
	"github.com/erazemk/labinventory/internal/upstream"
)

// Messages shown on the dashboard error view.
const (
	msgAuthFailed    = "Authentication failed"
	msgNoToken       = "No token received"
	msgInventoryFail = "Inventory fetch failed: %d"
	msgLoadFailed    = "Failed to load inventory"
)

// dashboardState is what the dashboard panel renders: either Error or the
// items with their summary.
type dashboardState struct {
	Items   []model.InventoryItem
	Summary model.Summary
	Error   string
}

// DashboardPage handles GET /dashboard. It renders the loading view; the page
// script fetches the panel once on load.
func (s *Server) DashboardPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "dashboard.html", &PageData{Title: "Dashboard"})
}

// DashboardPanel handles GET /dashboard/panel.
func (s *Server) DashboardPanel(w http.ResponseWriter, r *http.Request) {
	state := s.loadDashboard(r.Context())
	s.Templates.RenderFragment(w, "dashboard_panel.html", state)
}

// loadDashboard authenticates with the dashboard email and fetches the
// inventory. Any failure ends the load; nothing partial is shown.
func (s *Server) loadDashboard(ctx context.Context) dashboardState {
	token, err := s.InventoryAPI.Authenticate(ctx, s.DashboardEmail)
	if err != nil {
		return failedDashboard(err)
	}

	items, err := s.InventoryAPI.ListInventory(ctx, token)
	if err != nil {
		return failedDashboard(err)
	}

	slog.Debug("inventory loaded", "items", len(items))
	return dashboardState{Items: items, Summary: model.Summarize(items)}
}

func failedDashboard(err error) dashboardState {
	slog.Error("dashboard load failed", "error", err)
	return dashboardState{Error: dashboardErrorMessage(err)}
}

func dashboardErrorMessage(err error) string {
	if errors.Is(err, upstream.ErrNoToken) {
		return msgNoToken
	}

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Op {
		case upstream.OpAuthenticate:
			return msgAuthFailed
		case upstream.OpInventory:
			return fmt.Sprintf(msgInventoryFail, statusErr.Status)
		}
	}
	return errorMessage(err, msgLoadFailed)
}
