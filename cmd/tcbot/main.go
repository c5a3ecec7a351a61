package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tcbot/internal/app"
	"tcbot/internal/config"
	"tcbot/internal/lobby"
	"tcbot/internal/session"
	"tcbot/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the configuration file")
	debug := flag.Bool("debug", false, "force debug logging")
	flag.Parse()

	// No .env file is the normal case in production.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("configuration failed")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := os.MkdirAll(cfg.TraceDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.TraceDir).Msg("cannot create trace directory")
	}

	lby := lobby.New(lobby.Config{
		URL:                cfg.ServerURL,
		Username:           loginAccount(cfg),
		Password:           loginPassword(cfg),
		ReconnectIntervals: cfg.ReconnectSchedule(),
		HeartbeatInterval:  cfg.HeartbeatInterval(),
		Settle:             cfg.Settle(),
	}, logger)
	lby.Start()

	var bots []app.Bot
	for _, bc := range cfg.Enabled() {
		sess := session.New(session.Config{
			Name:               bc.Name,
			Username:           bc.Username,
			Password:           bc.Password,
			ServerURL:          bc.Endpoint,
			AgentURL:           cfg.AgentURL,
			TraceDir:           cfg.TraceDir,
			ReconnectIntervals: cfg.ReconnectSchedule(),
			HeartbeatInterval:  cfg.HeartbeatInterval(),
			Settle:             cfg.Settle(),
			Delay:              cfg.Delay(),
		}, logger)
		sess.Start()
		bots = append(bots, sess)
		logger.Info().Str("bot", bc.Name).Msg("session started")
	}

	svc := app.NewService(lby.Registry(), bots, nil, logger)
	svc.RandomPick = cfg.RandomPick

	var front *telegram.Bot
	if cfg.TelegramToken != "" {
		front, err = telegram.NewBot(cfg.TelegramToken, cfg.AdminChat, svc, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram front-end failed")
		}
		go front.Start()
	} else {
		logger.Warn().Msg("TELEGRAM_TOKEN unset, running without command front-end")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")

	if front != nil {
		front.Close()
	}
	svc.Flush()
	svc.Close()
	lby.Close()
}

// The lobby observer logs in with the first roster account; the roster is
// required even when no bot is enabled.
func loginAccount(cfg *config.Config) string {
	if len(cfg.Bots) == 0 {
		return ""
	}
	return cfg.Bots[0].Username
}

func loginPassword(cfg *config.Config) string {
	if len(cfg.Bots) == 0 {
		return ""
	}
	return cfg.Bots[0].Password
}
