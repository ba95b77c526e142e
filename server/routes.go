package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	for _, tc := range s.consoles {
		s.initConsoleRoutes(tc)
	}
}

// initConsoleRoutes mounts one tenant console under its console path.
func (s *Server) initConsoleRoutes(tc *TenantContext) {
	p := tc.Tenant.ConsolePath
	html := func(h http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.HTMLMiddleWare(append([]func(http.HandlerFunc) http.HandlerFunc{s.InjectTenant(tc)}, mw...)...)...)
	}
	api := func(h http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, s.APIMiddleware(append([]func(http.HandlerFunc) http.HandlerFunc{s.InjectTenant(tc)}, mw...)...)...)
	}

	s.RegisterRouteHandler("GET "+p+RouteConsoleRoot, html(s.ConsoleRootHandler()))

	// LOGIN
	s.RegisterRouteHandler("GET "+p+RouteLogin, html(s.LoginPageHandler()))
	s.RegisterRouteHandler("POST "+p+RouteLogin, html(s.LoginSubmissionHandler()))
	s.RegisterRouteHandler("POST "+p+RouteLogout, html(s.LogoutHandler()))

	// Guarded pages
	s.RegisterRouteHandler("GET "+p+RouteDashboard, html(s.DashboardHandler(), s.RequireSession(tc)))

	// JSON
	s.RegisterRouteHandler("GET "+p+RouteSession, api(s.SessionHandler()))
	s.RegisterRouteHandler("GET "+p+RouteAPIResource, api(s.ResourceListHandler(), s.RequireAPISession(tc)))
}
