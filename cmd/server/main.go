package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-handoff-server/handoff"
	"github.com/jrsteele09/go-handoff-server/handoff/handoffrepo"
	"github.com/jrsteele09/go-handoff-server/internal/config"
	"github.com/jrsteele09/go-handoff-server/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	if err := config.Validate(c); err != nil {
		return err
	}

	ctx := context.Background()
	repo, closeRepo, err := newRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	provider, err := handoff.ProviderFromConfig(ctx, c)
	if err != nil {
		return err
	}

	handoffs, err := handoff.NewService(repo, provider,
		handoff.Secrets{StateKey: c.GetStateKey(), EncryptionKey: c.GetEncryptionKey()},
		handoff.WithHandoffTTL(c.GetHandoffTTL()),
		handoff.WithExchangeTimeout(c.GetExchangeTimeout()),
	)
	if err != nil {
		return err
	}

	handler, err := server.New(c, handoffs)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(server)
	return returnError
}

// newRepo selects the handoff store. The returned func releases it.
func newRepo(ctx context.Context, c config.StoreConfig) (handoffrepo.Repo, func(), error) {
	switch c.GetStoreType() {
	case config.StoreTypeRedis:
		keys := handoffrepo.Keyspace{Namespace: c.GetKeyNamespace(), Provider: c.GetKeyProvider()}
		repo, err := handoffrepo.NewRedisRepo(ctx, c.GetRedisURL(), keys)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("store", config.StoreTypeRedis).Msg("Handoff store ready")
		return repo, func() { _ = repo.Close() }, nil
	default:
		log.Warn().Str("store", config.StoreTypeMemory).Msg("Handoff store is process local; do not run more than one instance")
		return handoffrepo.NewInMemoryRepo(), func() {}, nil
	}
}

func configureLogging(c config.EnvConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	var out io.Writer = os.Stdout
	if c.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", c.GetAppName()).Logger()
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
