package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/relver/internal/config"
	"git.home.luguber.info/inful/relver/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"relver.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Decide struct {
		Artifact string `arg:"" help:"Artifact name from the configuration"`
		Bump     string `short:"b" help:"Force a bump severity (patch|minor|major)"`
		JSON     bool   `help:"Emit the full decision as JSON"`
	} `cmd:"" help:"Run the version decision for one artifact"`

	Scan struct {
		Bump string `short:"b" help:"Force a bump severity for every artifact (patch|minor|major)"`
		JSON bool   `help:"Emit all results as JSON"`
	} `cmd:"" help:"Run the version decision for every configured artifact"`

	Show struct {
		Artifact string `arg:"" help:"Artifact name from the configuration"`
	} `cmd:"" help:"Print the persisted version record for an artifact"`

	History struct {
		Artifact string `arg:"" optional:"" help:"Limit to one artifact"`
		Limit    int    `short:"n" help:"Maximum entries" default:"20"`
	} `cmd:"" help:"Show recorded decision runs"`

	Daemon struct{} `cmd:"" help:"Run continuous versioning with scheduled and watched scans"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	if ctx.Command() == "init" {
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if CLI.Verbose {
		cfg.Log.Level = config.LogLevelDebug
	}
	cfg.Log.SetupLogging()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "decide <artifact>":
		err = runDecide(runCtx, cfg, CLI.Decide.Artifact, CLI.Decide.Bump, CLI.Decide.JSON)
	case "scan":
		err = runScan(runCtx, cfg, CLI.Scan.Bump, CLI.Scan.JSON)
	case "show <artifact>":
		err = runShow(cfg, CLI.Show.Artifact)
	case "history", "history <artifact>":
		err = runHistory(runCtx, cfg, CLI.History.Artifact, CLI.History.Limit)
	case "daemon":
		err = runDaemon(runCtx, cfg)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
