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

	"github.com/QJones76/leaflet-challenge/internal/atlas"
	"github.com/QJones76/leaflet-challenge/internal/config"
	"github.com/QJones76/leaflet-challenge/internal/feed"
	"github.com/QJones76/leaflet-challenge/internal/logger"
	"github.com/QJones76/leaflet-challenge/internal/page"
	"github.com/QJones76/leaflet-challenge/internal/server"
	"github.com/QJones76/leaflet-challenge/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"    env:"CONFIG_FILE"    description:"Path to optional configuration file"`
	Addr       string        `short:"a" long:"addr"      env:"LISTEN_ADDRESS" description:"Address to listen on"        default:"0.0.0.0"`
	Port       int           `short:"p" long:"port"      env:"LISTEN_PORT"    description:"Port to listen on"           default:"8080"`
	Refresh    time.Duration `short:"r" long:"refresh"   env:"REFRESH"        description:"Rebuild the map every interval (0 builds once)"`
	TileProxy  bool          `short:"t" long:"tile-proxy" env:"TILE_PROXY"    description:"Serve base imagery through the WebP tile proxy"`
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

	if opts.Refresh > 0 {
		cfg.Refresh = opts.Refresh
	}
	if opts.TileProxy {
		cfg.Base.Proxy = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := page.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to assemble page")
	}

	var tileProxy *tiles.Proxy
	if cfg.Base.Proxy {
		tileProxy, err = tiles.New(tiles.DefaultClient(), cfg.Base.URL, cfg.Base.Concurrency)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start tile proxy")
		}
	}

	keeper := atlas.NewKeeper(atlas.NewBuilder(cfg, feed.New(cfg.Timeout)), cfg.Refresh)

	srvCtx, err := server.NewServerContext(keeper, renderer, tileProxy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Serve while the feeds load; handlers answer 503 until the first map exists
	go func() {
		keeper.Load(ctx)
		keeper.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Dur("refresh", cfg.Refresh).
		Bool("tile_proxy", cfg.Base.Proxy).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Server exited")
}
