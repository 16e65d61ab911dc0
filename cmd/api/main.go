package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/command"
	"github.com/csmouse/csmouse/internal/config"
	"github.com/csmouse/csmouse/internal/engine"
	"github.com/csmouse/csmouse/internal/httpapi"
	apimw "github.com/csmouse/csmouse/internal/httpapi/middleware"
	"github.com/csmouse/csmouse/internal/logging"
	"github.com/csmouse/csmouse/internal/repo"
	"github.com/csmouse/csmouse/internal/repo/memory"
	"github.com/csmouse/csmouse/internal/repo/postgres"
	"github.com/csmouse/csmouse/internal/sms"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var traps repo.TrapStore
	var registry repo.RegistrationStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		traps, registry = pg, pg
		logger.Info("store", zap.String("backend", "postgres"))
	} else {
		mem := memory.New()
		traps, registry = mem, mem
		logger.Info("store", zap.String("backend", "memory"))
	}

	var gateway sms.Gateway
	if tw := sms.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, registry); tw != nil {
		gateway = tw
		logger.Info("gateway", zap.String("backend", "twilio"))
	} else {
		gateway = sms.NewConsole(registry, logger)
		logger.Warn("gateway", zap.String("backend", "console"),
			zap.String("hint", "set TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN to send real SMS"))
	}

	api := httpapi.NewServer(logger,
		traps,
		registry,
		engine.NewDelta(traps, gateway, logger),
		command.NewInterpreter(registry, logger),
		gateway,
		cfg.PublicBaseURL,
	)
	keys := apimw.Keys{Device: cfg.DeviceAPIKeys, Admin: cfg.AdminAPIKeys}

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router(keys, cfg.WebhookRPM, cfg.WebhookBurst)); err != nil {
		log.Fatal(err)
	}
}
