package server

import "net/http"

type consoleLink struct {
	Name string
	URL  string
}

type indexPage struct {
	AppName  string
	Consoles []consoleLink
}

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := indexPage{AppName: s.config.GetAppName()}
		for _, tc := range s.consoles {
			page.Consoles = append(page.Consoles, consoleLink{Name: tc.Tenant.Name, URL: tc.Tenant.HomeRoute})
		}
		s.render(w, http.StatusOK, "index.html", page)
	}
}
