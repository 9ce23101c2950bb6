package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/app"
	"github.com/hyperifyio/gosummarize/internal/extractive"
	"github.com/hyperifyio/gosummarize/internal/synth"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fs := flag.NewFlagSet("gosummarize", flag.ExitOnError)
	flagged := app.DefaultConfig()
	app.RegisterFlags(fs, &flagged)
	var (
		configPath  string
		envFiles    string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", "", "Optional YAML or JSON config file (default $GOSUMMARIZE_CONFIG)")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load (missing files are ignored)")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: gosummarize [flags] (-url URL | -input PATH)\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(app.VersionString())
		return
	}
	// Positional argument is accepted as the URL.
	if fs.NArg() > 0 && flagged.URL == "" && flagged.InputPath == "" {
		_ = fs.Set("url", fs.Arg(0))
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}
	cfg, err := app.Resolve(fs, flagged, configFilePath(configPath))
	if err != nil {
		log.Error().Err(err).Msg("config failed")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// configFilePath returns the -config value, falling back to
// GOSUMMARIZE_CONFIG. Call it after the dotenv files are loaded.
func configFilePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv("GOSUMMARIZE_CONFIG"))
}

// exitCode maps errors to the exit code policy: 2 when the input had nothing
// to summarize or the model produced nothing, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoDocument),
		errors.Is(err, extractive.ErrEmptyInput),
		errors.Is(err, extractive.ErrNoConvergence),
		errors.Is(err, synth.ErrNoSubstantiveBody):
		return 2
	}
	return 1
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
