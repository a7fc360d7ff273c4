package main

import (
	"os"

	"agora/internal/config"
	"agora/internal/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadClient()
	logger.Configure(cfg.LogLevel, "")
	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
