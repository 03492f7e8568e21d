package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/console"
	"github.com/urmzd/droidhub/pkg/db"
	"github.com/urmzd/droidhub/pkg/device/schema"
	droidmcp "github.com/urmzd/droidhub/pkg/mcp"
	"github.com/urmzd/droidhub/pkg/transport"
)

func main() {
	// Logging must go to stderr, stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/droidhub/droidhub.db)")
	adbPath := flag.String("adb", "", "Path to the adb binary (overrides the active profile)")
	consolePath := flag.String("console", "", "Serial console device; when set, adb is not used")
	baud := flag.Int("baud", console.DefaultBaudRate, "Serial console baud rate")
	flag.Parse()

	ctx := context.Background()

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *adbPath == "" {
		*adbPath = cfg.ADBPath()
	}

	commands := database.CommandLog()

	// No event stream over MCP, so the device list is refreshed on demand
	controller, _ := transport.Open(ctx, transport.Options{
		ADBPath:        *adbPath,
		ConsolePath:    *consolePath,
		BaudRate:       *baud,
		CommandTimeout: cfg.CommandTimeout(),
		Recorder:       commands,
	})
	defer controller.Close()

	validator := schema.NewValidator()

	mcpServer := droidmcp.NewServer(controller, validator, commands)

	log.Info().Str("profile", cfg.Profile.Name).Str("adb", *adbPath).Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
