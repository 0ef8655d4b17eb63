// zerotrust-track is the host-resident agent described in §1: it
// observes every IPv4 TCP/UDP connection open/close via kernel conntrack,
// enriches each with process and user attribution, and fans the result
// out to the configured sinks.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alisle/zerotrust-track/internal/config"
	"github.com/alisle/zerotrust-track/internal/logging"
	"github.com/alisle/zerotrust-track/internal/supervisor"
)

const defaultConfigPath = "/etc/zerotrust-track/config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.StringP("config", "c", defaultConfigPath, "YAML config path")
		dataDir    = flag.StringP("data-directory", "d", "", "overrides the config's data directory")
		verbosity  int
	)
	flag.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	flag.Parse()

	logger, err := logging.New(verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zerotrust-track: failed to init logging: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorw("config load failed", "path", *configPath, "error", err)
		return 1
	}

	directory := *dataDir
	if directory == "" {
		directory = cfg.Directory
	}
	if directory == "" {
		logger.Errorw("no data directory configured; set directory in the config or pass -d")
		return 1
	}

	sup, err := supervisor.New(cfg, directory, logger)
	if err != nil {
		logger.Errorw("startup failed", "error", err)
		return 1
	}

	if err := sup.Run(); err != nil {
		logger.Errorw("pipeline failed", "error", err)
		return 1
	}
	return 0
}
