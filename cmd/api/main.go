package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/api"
	"github.com/urmzd/droidhub/pkg/console"
	"github.com/urmzd/droidhub/pkg/db"
	"github.com/urmzd/droidhub/pkg/device/schema"
	"github.com/urmzd/droidhub/pkg/transport"

	_ "github.com/urmzd/droidhub/docs"
)

// @title           droidhub API
// @version         1.0
// @description     REST API for controlling Android devices over adb or a serial console

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// commandLogRetention is how many command log rows survive a restart.
const commandLogRetention = 10000

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/droidhub/droidhub.db)")
	adbPath := flag.String("adb", "", "Path to the adb binary (overrides the active profile)")
	consolePath := flag.String("console", "", "Serial console device; when set, adb is not used")
	baud := flag.Int("baud", console.DefaultBaudRate, "Serial console baud rate")
	debug := flag.Bool("debug", false, "Log every adb invocation")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Bootstrap if needed (first run)
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
		log.Info().Msg("Database bootstrapped successfully")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *adbPath == "" {
		*adbPath = cfg.ADBPath()
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("adb", *adbPath).
		Dur("command_timeout", cfg.CommandTimeout()).
		Str("api_address", cfg.APIAddress()).
		Msg("Configuration loaded")

	commands := database.CommandLog()
	if removed, err := commands.Prune(ctx, commandLogRetention); err != nil {
		log.Warn().Err(err).Msg("Failed to prune command log")
	} else if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Pruned command log")
	}

	controller, eventSubscriber := transport.Open(ctx, transport.Options{
		ADBPath:        *adbPath,
		ConsolePath:    *consolePath,
		BaudRate:       *baud,
		CommandTimeout: cfg.CommandTimeout(),
		PollInterval:   cfg.PollInterval(),
		Recorder:       commands,
	})

	validator := schema.NewValidator()

	router := api.NewRouter(controller, eventSubscriber, validator, commands)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		controller.Close()
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		os.Exit(0)
	}()

	addr := cfg.APIAddress()
	log.Info().Str("address", addr).Msg("Starting API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
