package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/relver/internal/config"
	"git.home.luguber.info/inful/relver/internal/daemon"
	"git.home.luguber.info/inful/relver/internal/engine"
	"git.home.luguber.info/inful/relver/internal/events"
	"git.home.luguber.info/inful/relver/internal/history"
	"git.home.luguber.info/inful/relver/internal/manifest"
	"git.home.luguber.info/inful/relver/internal/observability"
	"git.home.luguber.info/inful/relver/internal/retry"
	"git.home.luguber.info/inful/relver/internal/scan"
	"git.home.luguber.info/inful/relver/internal/versioning"
)

// buildSinks assembles the optional side-effect targets from configuration.
// The returned cleanup closes what was opened.
func buildSinks(cfg *config.Config, metrics *observability.Metrics) (scan.Sinks, func(), error) {
	sinks := scan.Sinks{Metrics: metrics, Retry: retry.DefaultPolicy()}
	var closers []func()

	if cfg.History != nil {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return scan.Sinks{}, nil, err
		}
		sinks.History = store
		closers = append(closers, func() { _ = store.Close() })
	}

	if cfg.Events != nil {
		pub, err := events.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix)
		if err != nil {
			// Event publishing is reporting infrastructure: a dead broker
			// degrades it but must not block versioning.
			slog.Warn("Event publisher unavailable, continuing without it", "error", err)
		} else {
			sinks.Events = pub
			closers = append(closers, pub.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return sinks, cleanup, nil
}

func parseBump(raw string) (versioning.BumpLevel, error) {
	if raw == "" {
		return "", nil
	}
	level, ok := versioning.ParseBumpLevel(raw)
	if !ok {
		return "", fmt.Errorf("invalid bump %q: must be patch, minor, or major", raw)
	}
	return level, nil
}

func runDecide(ctx context.Context, cfg *config.Config, name, bump string, asJSON bool) error {
	forced, err := parseBump(bump)
	if err != nil {
		return err
	}
	artifact, ok := cfg.ArtifactByName(name)
	if !ok {
		return fmt.Errorf("artifact %q is not configured", name)
	}

	sinks, cleanup, err := buildSinks(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	dec, err := engine.Run(ctx, engine.Options{
		ArtifactName: artifact.Name,
		Root:         artifact.Path,
		EntryPoint:   artifact.Entry,
		Exclude:      artifact.Exclude,
		PinsFile:     artifact.PinsFile,
		ForcedBump:   forced,
	})
	if err != nil {
		return err
	}
	scan.New(cfg, sinks).Apply(ctx, dec)

	if asJSON {
		data, jsonErr := dec.ToJSON()
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(dec.Summary())
	return nil
}

func runScan(ctx context.Context, cfg *config.Config, bump string, asJSON bool) error {
	forced, err := parseBump(bump)
	if err != nil {
		return err
	}
	if len(cfg.Artifacts) == 0 {
		return fmt.Errorf("no artifacts configured")
	}

	sinks, cleanup, err := buildSinks(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := scan.New(cfg, sinks).Run(ctx, forced)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(res)
	}
	for _, r := range res.Results {
		if r.Err() != nil {
			fmt.Printf("%s: failed: %v\n", r.Artifact, r.Err())
			continue
		}
		fmt.Println(r.Decision.Summary())
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed", res.Failed, len(res.Results))
	}
	return nil
}

func runShow(cfg *config.Config, name string) error {
	artifact, ok := cfg.ArtifactByName(name)
	if !ok {
		return fmt.Errorf("artifact %q is not configured", name)
	}

	rec, err := manifest.Load(artifact.Path)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("artifact %q has no version record yet", name)
	}
	data, err := rec.ToJSON()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, artifact string, limit int) error {
	if cfg.History == nil {
		return fmt.Errorf("history is not configured (set history.path)")
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []history.Entry
	if artifact != "" {
		entries, err = store.ByArtifact(ctx, artifact, limit)
	} else {
		entries, err = store.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no recorded decisions")
		return nil
	}
	for _, e := range entries {
		from := e.PreviousVersion
		if from == "" {
			from = "-"
		}
		fmt.Printf("%s  %-12s %-6s %s -> %s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Artifact, e.Decision, from, e.NextVersion, e.Reason)
	}
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	metrics := observability.NewMetrics()
	sinks, cleanup, err := buildSinks(cfg, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	d := daemon.New(cfg, scan.New(cfg, sinks))
	return d.Run(ctx, metrics.Handler())
}

func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote starter configuration to %s\n", path)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

const starterConfig = `# relver workspace configuration
workspace: .

log:
  level: info
  format: text

defaults:
  # Entry point scanned for export declarations, relative to each artifact.
  entry: src/index.js
  exclude: [node_modules, .git, .DS_Store, dist, build]
  # Shared pinned-versions file folded into every content hash.
  # pins_file: versions.pins

artifacts:
  - name: example
    path: packages/example

scan:
  workers: 4

# history:
#   path: .relver/history.db

# events:
#   url: nats://localhost:4222
#   subject_prefix: relver.decisions

daemon:
  interval: 5m
  listen: ":9475"
  watch: false
`
