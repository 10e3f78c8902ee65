package main

import (
	"fmt"
	"log/slog"
	"os"

	app "github.com/rocketscienceinc/fourinrow-backend/internal"
	"github.com/rocketscienceinc/fourinrow-backend/internal/config"
)

const defaultConfigPath = "config.yml"

// main runs the four-in-a-row REST and websocket servers. CONFIG_PATH points
// to another config file than ./config.yml.
func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	conf, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fourinrow: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(conf.LogLevel)}))

	if err = app.RunApp(logger, conf); err != nil {
		logger.Error("fourinrow stopped", "error", err)
		os.Exit(1)
	}
}

// logLevel maps debug, info, warn and error to slog levels. Anything else is info.
func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}

	return level
}
