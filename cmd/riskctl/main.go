package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wwwlqh/insurance-risk-modeling/config"
	"github.com/wwwlqh/insurance-risk-modeling/logging"
	"github.com/wwwlqh/insurance-risk-modeling/ml"
	"github.com/wwwlqh/insurance-risk-modeling/scoring"
)

var (
	name    = "riskctl"
	version = "v0.0.1-default"
	commit  = ""

	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to the service config file",
		Value: "config.yaml",
	}

	artifactsFlag = &cli.StringFlag{
		Name:  "artifacts",
		Usage: "Artifact directory (optional, overrides artifacts.dir)",
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Operator tools for the insurance risk scoring artifacts",
		Flags: []cli.Flag{
			configFlag,
			artifactsFlag,
			debugFlag,
		},
		Commands: []*cli.Command{
			checkCmd,
			scoreCmd,
		},
	}
}

// runtime is what every subcommand needs: the loaded bundle and a service.
type runtime struct {
	cfg       *config.Config
	artifacts *ml.Artifacts
	service   *scoring.Service
	logger    *zap.Logger
}

func loadRuntime(cmd *cli.Command) (*runtime, error) {
	cfg, err := config.Load(cmd.String(configFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dir := cmd.String(artifactsFlag.Name); dir != "" {
		cfg.Artifacts.Dir = dir
	}

	level := "warn"
	if cmd.Bool(debugFlag.Name) {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level})
	if err != nil {
		return nil, err
	}

	artifacts, err := ml.LoadArtifacts(cfg.ArtifactConfig())
	if err != nil {
		return nil, err
	}
	service, err := scoring.NewService(artifacts, scoring.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, artifacts: artifacts, service: service, logger: logger}, nil
}
