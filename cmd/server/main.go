package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/staticmap/internal/config"
	"github.com/woozymasta/staticmap/internal/logger"
	"github.com/woozymasta/staticmap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string        `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr          string        `short:"a" long:"addr"           env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port          int           `short:"p" long:"port"           env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	RenderTimeout time.Duration `short:"t" long:"render-timeout" env:"RENDER_TIMEOUT" description:"Timeout of a single render" default:"30s"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	src := cfg.Tiles.Source()
	if src == nil {
		log.Warn().Msg("No tile source configured, maps will have a transparent background")
	}

	srvCtx, err := server.NewServerContext(cfg, src)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	srvCtx.RenderTimeout = opts.RenderTimeout

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/render", srvCtx.HandleRender)
	mux.HandleFunc("/healthz", srvCtx.HandleHealth)
	mux.HandleFunc("/", srvCtx.HandleIndex)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.RequestLogger(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Dur("render_timeout", opts.RenderTimeout).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}
