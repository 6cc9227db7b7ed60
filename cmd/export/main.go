package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/QJones76/leaflet-challenge/internal/atlas"
	"github.com/QJones76/leaflet-challenge/internal/config"
	"github.com/QJones76/leaflet-challenge/internal/feed"
	"github.com/QJones76/leaflet-challenge/internal/logger"
	"github.com/QJones76/leaflet-challenge/internal/page"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to optional configuration file"`
	Output     string   `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string   `short:"f" long:"format" description:"Output format" choice:"html" choice:"json" choice:"yaml" default:"html"`
	Show       []string `short:"s" long:"show"   description:"Overlay to show initially (earthquakes, plates)"`
	Hide       []string `short:"H" long:"hide"   description:"Overlay to hide initially (earthquakes, plates)"`
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

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := atlas.NewBuilder(cfg, feed.New(cfg.Timeout)).Build(ctx)

	loaded := 0
	for _, o := range a.Overlays {
		if o.Status.Loaded {
			loaded++
		}
	}
	if loaded == 0 {
		log.Fatal().Msg("No overlay could be loaded, nothing to export")
	}

	for _, key := range opts.Hide {
		if err := a.Control.Hide(key); err != nil {
			log.Fatal().Err(err).Str("overlay", key).Msg("Cannot hide overlay")
		}
	}
	for _, key := range opts.Show {
		if err := a.Control.Show(key); err != nil {
			log.Fatal().Err(err).Str("overlay", key).Msg("Cannot show overlay")
		}
	}

	outputData, err := render(a, opts.Format)
	if err != nil {
		log.Fatal().Err(err).Str("format", opts.Format).Msg("Failed to render map")
	}

	if opts.Output == "" {
		_, _ = os.Stdout.Write(outputData)
		return
	}

	if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write output file")
	}

	log.Info().
		Str("path", opts.Output).
		Str("format", opts.Format).
		Int("overlays_loaded", loaded).
		Msg("Map exported")
}

func render(a *atlas.Atlas, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(a)
	case "json":
		doc, err := a.Document(atlas.DocumentOptions{})
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(doc, "", "  ")
	case "html":
		doc, err := a.Document(atlas.DocumentOptions{})
		if err != nil {
			return nil, err
		}
		renderer, err := page.New()
		if err != nil {
			return nil, err
		}
		return renderer.Standalone(doc)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
