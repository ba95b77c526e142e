package server

// Route path constants
// Console routes are relative to a tenant's console path, e.g. "/admin".
const (
	RouteIndex  = "/{$}"
	RouteHealth = "/healthz"

	// Per tenant console routes
	RouteConsoleRoot = "/{$}"
	RouteLogin       = "/login"
	RouteLogout      = "/logout"
	RouteDashboard   = "/dashboard"
	RouteSession     = "/session"
	RouteAPIResource = "/api/{resource}"
)
