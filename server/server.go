package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/helpdesk-console/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	consoles []*TenantContext
	pages    map[string]*template.Template
}

// New builds the console server for the given tenant consoles. Console
// paths must be unique.
func New(cfg config.Config, consoles ...*TenantContext) (*Server, error) {
	if len(consoles) == 0 {
		return nil, errors.New("[Server New] at least one tenant console is required")
	}
	seen := map[string]bool{}
	for _, tc := range consoles {
		if seen[tc.Tenant.ConsolePath] {
			return nil, fmt.Errorf("[Server New] duplicate console path %q", tc.Tenant.ConsolePath)
		}
		seen[tc.Tenant.ConsolePath] = true
	}

	pages, err := parsePages("index.html", "login.html", "dashboard.html", "loading.html")
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to parse templates")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		consoles: consoles,
		pages:    pages,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Consoles returns the tenant consoles in registration order.
func (s *Server) Consoles() []*TenantContext {
	return s.consoles
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
