// atlasplan is a CLI utility for planning additional-light shadow atlas layouts offline.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/shadow-atlas/internal/config"
	"github.com/Faultbox/shadow-atlas/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "plan":
		err = cmdPlan(args)
	case "render":
		err = cmdRender(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`atlasplan - shadow atlas layout planner

Usage:
  atlasplan <command> [options]

Commands:
  plan [-format text|yaml] <scene.yaml>...   Allocate each scene and print the layout
  render [-max-edge N] <scene.yaml> <out.png> Draw the layout of one scene
  config [path]                              Print or save the effective config

Shared options:
  -config <path>      Config file (default ./atlas.yaml, then the user config dir)
  -atlas <size>       Atlas edge length
  -max-tiles <n>      Shadow tile slots, 0 = unbounded
  -reversed-z         Clip depth is reversed
  -debug              Debug logging
  -log-file <path>    Also log to a rotated file

Examples:
  atlasplan plan scenes/courtyard.yaml scenes/market.yaml
  atlasplan plan -format yaml -atlas 1024 scenes/courtyard.yaml
  atlasplan render scenes/courtyard.yaml courtyard.png
  atlasplan config -max-tiles 64 ~/.config/shadow-atlas/atlas.yaml`)
}

// setup parses the shared flags, loads the config and starts the logger.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return cfg.Write(os.Stdout)
	}
	if err := cfg.SaveTo(fs.Arg(0)); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	logger.Info("config saved", zap.String("path", fs.Arg(0)))
	return nil
}
