package auth

import "github.com/rs/zerolog/log"

// Navigator moves the user to a console route. The session manager
// navigates after sign-in, sign-out and when a session is lost.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

type logNavigator struct {
	tenantID string
}

func (n logNavigator) Navigate(route string) {
	log.Debug().Str("tenant", n.tenantID).Str("route", route).Msg("navigate")
}
