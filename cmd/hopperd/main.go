// Command hopperd runs the hopper daemon directly, without going through
// the CLI launcher. It reads the default configuration locations and keeps
// the resource set alive until SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"log"

	"hopper/internal/config"
	"hopper/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	development := flag.Bool("dev", false, "enable development logging output")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:    *logLevel,
		Development: *development,
	}); err != nil {
		log.Fatalf("hopperd: %v", err)
	}
}
