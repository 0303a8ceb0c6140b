package engine

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/relver/internal/manifest"
)

// DecisionKind is the terminal outcome of a decision run.
type DecisionKind string

const (
	DecisionNoop  DecisionKind = "noop"
	DecisionPatch DecisionKind = "patch"
	DecisionMinor DecisionKind = "minor"
	DecisionMajor DecisionKind = "major"
)

// Reason explains which rule of the decision table fired.
type Reason string

const (
	ReasonForced         Reason = "forced-override"
	ReasonInitial        Reason = "initial-build"
	ReasonNoChange       Reason = "no-change"
	ReasonExportRemoved  Reason = "export-removed"
	ReasonExportAdded    Reason = "export-added"
	ReasonContentChanged Reason = "content-changed"
)

// Decision is the structured result handed to callers.
type Decision struct {
	RunID    string       `json:"run_id"`
	Artifact string       `json:"artifact"`
	Kind     DecisionKind `json:"decision"`
	Reason   Reason       `json:"reason"`
	Changed  bool         `json:"changed"`

	// CurrentVersion is the previous version string; present on noop and on
	// any change with a prior record. Empty on an initial build.
	CurrentVersion string `json:"current_version,omitempty"`

	// NextVersion is the new version string, present when Changed.
	NextVersion string `json:"next_version,omitempty"`

	ContentHash    string   `json:"content_hash"`
	ExportsAdded   []string `json:"exports_added,omitempty"`
	ExportsRemoved []string `json:"exports_removed,omitempty"`
	InputFiles     []string `json:"input_files,omitempty"`

	// Record is the persisted VersionRecord; nil on noop.
	Record *manifest.VersionRecord `json:"-"`
}

// EffectiveVersion is the version the artifact carries after this run.
func (d *Decision) EffectiveVersion() string {
	if d.Changed {
		return d.NextVersion
	}
	return d.CurrentVersion
}

// Summary renders a one-line human summary for CLI output.
func (d *Decision) Summary() string {
	if !d.Changed {
		return fmt.Sprintf("%s: noop at %s", d.Artifact, d.CurrentVersion)
	}
	if d.CurrentVersion == "" {
		return fmt.Sprintf("%s: %s -> %s (%s)", d.Artifact, d.Kind, d.NextVersion, d.Reason)
	}
	return fmt.Sprintf("%s: %s %s -> %s (%s)", d.Artifact, d.Kind, d.CurrentVersion, d.NextVersion, d.Reason)
}

// ToJSON serializes the decision for CLI output and event publication.
func (d *Decision) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}
	return data, nil
}
