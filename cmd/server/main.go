package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/helpdesk-console/internal/config"
	"github.com/jrsteele09/helpdesk-console/server"
	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/jrsteele09/helpdesk-console/sessions/filestore"
	"github.com/jrsteele09/helpdesk-console/sessions/redisstore"
	sessionrepofakes "github.com/jrsteele09/helpdesk-console/sessions/repofakes"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnv(context.Background(), ".env")
	c := config.New()
	setupLogging(c.GetEnv())

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	tenantList, err := loadTenants(c.GetTenantsFile())
	if err != nil {
		return err
	}

	stores, closeStores, err := newStoreFactory(context.Background(), c)
	if err != nil {
		return err
	}
	defer closeStores()

	consoles := make([]*server.TenantContext, 0, len(tenantList))
	for _, tenant := range tenantList {
		store, err := stores(tenant)
		if err != nil {
			return fmt.Errorf("session store for %s: %w", tenant.ID, err)
		}
		tc, err := server.NewTenantContext(c, tenant, store)
		if err != nil {
			return err
		}
		consoles = append(consoles, tc)
	}

	consoleServer, err := server.New(c, consoles...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consoleServer.InitialiseSessions(ctx)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: consoleServer, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func loadTenants(path string) ([]*tenants.Tenant, error) {
	if path == "" {
		return tenants.Defaults(), nil
	}
	list, err := tenants.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("tenants", len(list)).Msg("tenants loaded")
	return list, nil
}

type storeFactory func(tenant *tenants.Tenant) (sessions.Store, error)

// newStoreFactory picks the session backend named by SESSION_BACKEND.
func newStoreFactory(ctx context.Context, c config.Config) (storeFactory, func(), error) {
	noop := func() {}
	switch c.GetSessionBackend() {
	case config.SessionBackendRedis:
		client, err := redisstore.Connect(ctx, c.GetRedisAddr(), c.GetRedisPassword())
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("sessions stored in redis")
		return func(tenant *tenants.Tenant) (sessions.Store, error) {
				return redisstore.New(client, tenant.StoragePrefix)
			}, func() {
				closeRedis(client)
			}, nil
	case config.SessionBackendMemory:
		log.Warn().Msg("sessions kept in memory and lost on restart")
		return func(*tenants.Tenant) (sessions.Store, error) {
			return sessionrepofakes.NewFakeSessionStore(), nil
		}, noop, nil
	default:
		dir := filepath.Join(c.GetDataFolder(), "sessions")
		var options []filestore.Option
		if key := c.GetSessionKey(); key != "" {
			options = append(options, filestore.WithEncryptionKey(key))
		}
		log.Info().Str("dir", dir).Bool("encrypted", len(options) > 0).Msg("sessions stored on disk")
		return func(tenant *tenants.Tenant) (sessions.Store, error) {
			return filestore.New(dir, tenant.StoragePrefix, options...)
		}, noop, nil
	}
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis")
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
