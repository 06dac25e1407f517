package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chatcore/internal/app"
	"chatcore/pkg/config"
	"chatcore/pkg/logger"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)

	_ = godotenv.Load(".env")
	flags := config.ParseCommandFlags()

	cfg, err := config.Load(flags.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	config.ApplyEnv(cfg)

	// Explicit flags win over env/config.
	if flags.Set["addr"] || cfg.Addr() == "" {
		cfg.Server.Address = flags.Addr
		cfg.Server.Port = 0
	}
	if flags.Set["db"] || cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = flags.DB
	}
	if cfg.Identity.ParticipantID == "" {
		cfg.Identity.ParticipantID = "me"
	}

	logger.InitWithLevel(cfg.Logging.Level)
	if dir := cfg.Storage.AuditDir; dir != "" {
		if err := logger.AttachAuditFileSink(dir); err != nil {
			log.Fatalf("failed to attach audit sink: %v", err)
		}
	}

	a, err := app.New(cfg, version, commit, buildDate)
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("engine exited: %v", err)
	}
}
