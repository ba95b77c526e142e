package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/helpdesk-console/internal/config"
	"github.com/jrsteele09/helpdesk-console/internal/fakeapi"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnv(context.Background(), ".env")
	c := config.New()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running fake api")
	}
}

func run(c config.Config) error {
	figure.NewFigure("fake api", "cybermedium", true).Print()
	fmt.Println()

	list := tenants.Defaults()
	if path := c.GetTenantsFile(); path != "" {
		var err error
		if list, err = tenants.LoadFile(path); err != nil {
			return err
		}
	}

	api := fakeapi.New(fakeapi.WithTenants(list))
	if err := api.Seed(); err != nil {
		return err
	}
	for _, acc := range fakeapi.DemoAccounts {
		log.Info().Str("tenant", acc.Tenant).Str("username", acc.Username).Str("password", acc.Password).Msg("demo account")
	}

	srv := &http.Server{
		Addr:              c.GetFakeAPIPort(),
		Handler:           api.Handler(c.GetAllowedOrigins().List()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("Fake API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("server.ListenAndServe %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
