package main

import (
	"flag"
	"os"

	"incidesk/config"
	"incidesk/core/appbootstrap"
	"incidesk/core/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if err := appbootstrap.Run(cfg, logger); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
