// Package manifest persists the per-artifact VersionRecord: the durable
// outcome of the last non-noop decision, read back by the next run.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/relver/internal/exports"
	"git.home.luguber.info/inful/relver/internal/versioning"
)

// Dir is the well-known directory inside an artifact holding relver state.
const Dir = ".relver"

// FileName is the manifest file name inside Dir.
const FileName = "manifest.json"

// VersionRecord is the persisted decision record, one per artifact. It is
// owned exclusively by the artifact's own directory and overwritten in place
// on every non-noop decision.
type VersionRecord struct {
	ArtifactName string `json:"artifact_name"`
	Version      string `json:"version"`
	ContentHash  string `json:"content_hash"`

	// ExportSignature is nil for the explicit "unknown" marker (no entry
	// point designated/found); otherwise it preserves encounter order for
	// diagnostics while comparisons treat it as a set.
	ExportSignature *[]string `json:"export_signature"`

	// InputFiles lists the relative paths that contributed to ContentHash.
	// Diagnostics only; never used in comparison.
	InputFiles []string `json:"input_files,omitempty"`

	// Commit is the enclosing repository's HEAD at build time, when one
	// could be resolved. Diagnostics only.
	Commit string `json:"commit,omitempty"`

	BuiltAt time.Time `json:"built_at"`
}

// Exports converts the persisted signature back to the extractor's type.
func (r *VersionRecord) Exports() exports.Signature {
	if r.ExportSignature == nil {
		return exports.Unknown()
	}
	return exports.Signature{Known: true, Entries: *r.ExportSignature}
}

// SetExports stores sig, mapping unknown to the null marker.
func (r *VersionRecord) SetExports(sig exports.Signature) {
	if !sig.Known {
		r.ExportSignature = nil
		return
	}
	entries := sig.Entries
	if entries == nil {
		entries = []string{}
	}
	r.ExportSignature = &entries
}

// validate reports whether the record carries every required field. Records
// failing validation are treated as absent by the store.
func (r *VersionRecord) validate() error {
	if r.ArtifactName == "" {
		return fmt.Errorf("missing artifact_name")
	}
	if _, err := versioning.Parse(r.Version); err != nil {
		return fmt.Errorf("invalid version: %w", err)
	}
	if r.ContentHash == "" {
		return fmt.Errorf("missing content_hash")
	}
	return nil
}

// ToJSON serializes the record for persistence.
func (r *VersionRecord) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}
