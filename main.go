package main

import (
	"fmt"
	"os"

	"github.com/SuttArt/Dateiwiederherstellung/cmd"
	"github.com/SuttArt/Dateiwiederherstellung/internal/config"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
)

func main() {
	// Config file can be pinned through the environment
	configFile := os.Getenv("EXT2RECOVER_CONFIG")

	if err := config.Initialize(configFile); err != nil {
		// Without configuration there is nothing sensible to run
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	logger.LogInfo("Application started", map[string]interface{}{
		"version": "0.1.0",
	})

	cmd.Execute()

	logger.Sync()
}

// initLogging sets up the logger based on application configuration
func initLogging() error {
	logConfig := logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	}

	return logger.InitLogger(logConfig)
}
