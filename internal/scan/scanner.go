// Package scan orchestrates decision runs across every artifact in a
// workspace. Artifacts share no mutable state, so runs proceed in parallel
// behind a worker bound; a failed artifact never blocks the others, it is
// isolated into its own result entry.
package scan

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/relver/internal/config"
	"git.home.luguber.info/inful/relver/internal/engine"
	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/events"
	"git.home.luguber.info/inful/relver/internal/history"
	"git.home.luguber.info/inful/relver/internal/logfields"
	"git.home.luguber.info/inful/relver/internal/observability"
	"git.home.luguber.info/inful/relver/internal/retry"
	"git.home.luguber.info/inful/relver/internal/versioning"
)

// Sinks are the optional side-effect targets applied after each decision.
// Retry covers them, not the engine: decisions themselves are never retried.
type Sinks struct {
	History *history.Store
	Events  *events.Publisher
	Metrics *observability.Metrics
	Retry   retry.Policy
}

// ArtifactResult is the per-artifact outcome of a scan.
type ArtifactResult struct {
	Artifact string           `json:"artifact"`
	Decision *engine.Decision `json:"decision,omitempty"`
	Error    string           `json:"error,omitempty"`

	err error
}

// Err returns the artifact's failure, if any.
func (r ArtifactResult) Err() error { return r.err }

// Result aggregates one workspace scan.
type Result struct {
	Results  []ArtifactResult `json:"results"`
	Duration time.Duration    `json:"duration"`
	Failed   int              `json:"failed"`
}

// Scanner runs decisions for all configured artifacts.
type Scanner struct {
	cfg   *config.Config
	sinks Sinks
}

// New creates a scanner over cfg.
func New(cfg *config.Config, sinks Sinks) *Scanner {
	return &Scanner{cfg: cfg, sinks: sinks}
}

// Run executes one decision per configured artifact, at most
// cfg.Scan.Workers at a time. The returned error covers orchestration only;
// per-artifact failures land in the result entries.
func (s *Scanner) Run(ctx context.Context, forced versioning.BumpLevel) (*Result, error) {
	start := time.Now()

	results := make([]ArtifactResult, len(s.cfg.Artifacts))

	pool := newArtifactPool(s.cfg.Scan.Workers)
	for i, a := range s.cfg.Artifacts {
		i, resolved := i, s.cfg.ResolveArtifact(a)
		pool.Go(ctx, func() {
			results[i] = s.runOne(ctx, resolved, forced)
		})
	}
	pool.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Artifact < results[j].Artifact })

	res := &Result{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.err != nil {
			res.Failed++
		}
	}
	if s.sinks.Metrics != nil {
		s.sinks.Metrics.ObserveScan(res.Duration.Seconds())
	}

	slog.Info("Workspace scan complete",
		slog.Int("artifacts", len(results)),
		slog.Int("failed", res.Failed),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func (s *Scanner) runOne(ctx context.Context, a config.Artifact, forced versioning.BumpLevel) ArtifactResult {
	dec, err := engine.Run(ctx, engine.Options{
		ArtifactName: a.Name,
		Root:         a.Path,
		EntryPoint:   a.Entry,
		Exclude:      a.Exclude,
		PinsFile:     a.PinsFile,
		ForcedBump:   forced,
	})
	if err != nil {
		slog.Error("Decision run failed",
			logfields.Artifact(a.Name),
			logfields.Error(err))
		if s.sinks.Metrics != nil {
			s.sinks.Metrics.ObserveRunFailure(string(relerrors.CategoryOf(err)))
		}
		return ArtifactResult{Artifact: a.Name, Error: err.Error(), err: err}
	}

	s.Apply(ctx, dec)
	return ArtifactResult{Artifact: a.Name, Decision: dec}
}

// Apply feeds one decision into the configured sinks. Sink failures degrade
// reporting, never the decision: they are retried per policy, then logged.
func (s *Scanner) Apply(ctx context.Context, dec *engine.Decision) {
	if s.sinks.Metrics != nil {
		s.sinks.Metrics.ObserveDecision(dec)
	}

	if s.sinks.History != nil {
		if err := s.sinks.Retry.Do(ctx, func() error { return s.sinks.History.Record(ctx, dec) }); err != nil {
			slog.Error("History record failed after retries",
				logfields.Artifact(dec.Artifact),
				logfields.Error(err))
		}
	}

	if s.sinks.Events != nil && dec.Changed {
		if err := s.sinks.Retry.Do(ctx, func() error { return s.sinks.Events.Publish(dec) }); err != nil {
			slog.Warn("Decision event publish failed after retries",
				logfields.Artifact(dec.Artifact),
				logfields.Error(err))
		}
	}

	slog.Info("Decision",
		logfields.RunID(dec.RunID),
		logfields.Artifact(dec.Artifact),
		logfields.Decision(string(dec.Kind)),
		logfields.Reason(string(dec.Reason)),
		logfields.Version(dec.CurrentVersion),
		logfields.NextVersion(dec.NextVersion),
		logfields.ContentHash(dec.ContentHash))
}
