// Package engine implements the version decision procedure for one artifact:
// it combines the current tree hash and export surface with the previous
// VersionRecord (and an optional explicit override) into a bump
// classification and the next version.
//
// Each invocation operates on exactly one artifact directory and proceeds
// strictly sequentially: hash, extract, load, decide, persist. The engine
// holds no process-wide state; everything an invocation needs arrives in
// Options (exclusion list, entry point, pins file, forced bump), which keeps
// it trivially testable in isolation.
package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/exports"
	"git.home.luguber.info/inful/relver/internal/gitinfo"
	"git.home.luguber.info/inful/relver/internal/hashing"
	"git.home.luguber.info/inful/relver/internal/manifest"
	"git.home.luguber.info/inful/relver/internal/util/sets"
	"git.home.luguber.info/inful/relver/internal/versioning"
)

// Options configures a single decision run.
type Options struct {
	// ArtifactName is the stable identifier recorded in the manifest.
	ArtifactName string

	// Root is the artifact's source directory.
	Root string

	// EntryPoint optionally designates the export-surface file. Relative
	// paths are resolved against Root. Empty means no entry point, which
	// yields the explicit unknown signature.
	EntryPoint string

	// Exclude lists directory/file names skipped during hashing. The
	// manifest directory is always excluded regardless.
	Exclude []string

	// PinsFile optionally points at a shared pinned-versions file folded
	// into the content hash.
	PinsFile string

	// ForcedBump, when non-empty, overrides the decision table.
	ForcedBump versioning.BumpLevel

	// Now supplies timestamps; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// Run evaluates the decision table for one artifact and persists the new
// VersionRecord on any outcome other than noop.
func Run(ctx context.Context, opts Options) (*Decision, error) {
	if opts.ArtifactName == "" {
		return nil, relerrors.ValidationFailed("artifact_name", "must not be empty")
	}
	if opts.Root == "" {
		return nil, relerrors.ValidationFailed("root", "must not be empty")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hashRes, err := hashing.HashTree(opts.Root, hashing.Options{
		Exclude:  append([]string{manifest.Dir}, opts.Exclude...),
		PinsFile: opts.PinsFile,
	})
	if err != nil {
		return nil, err
	}

	currentExports, err := exports.Extract(resolveEntryPoint(opts.Root, opts.EntryPoint))
	if err != nil {
		return nil, err
	}

	previous, err := manifest.Load(opts.Root)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec := classify(previous, hashRes.Digest, currentExports, opts.ForcedBump)
	dec.RunID = uuid.NewString()
	dec.Artifact = opts.ArtifactName
	dec.ContentHash = hashRes.Digest
	dec.InputFiles = hashRes.InputFiles

	if !dec.Changed {
		return dec, nil
	}

	if previous != nil {
		// Bump arithmetic keeps versions monotonic by construction; the
		// check catches a manifest edited behind our back.
		less, lessErr := versioning.Less(previous.Version, dec.NextVersion)
		if lessErr != nil {
			return nil, relerrors.Wrap(lessErr, relerrors.CategoryInternal, relerrors.SeverityFatal, "version comparison failed")
		}
		if !less {
			return nil, relerrors.New(relerrors.CategoryInternal, relerrors.SeverityFatal, "next version would not increase").
				WithContext("previous", previous.Version).
				WithContext("next", dec.NextVersion)
		}
	}

	rec := &manifest.VersionRecord{
		ArtifactName: opts.ArtifactName,
		Version:      dec.NextVersion,
		ContentHash:  hashRes.Digest,
		InputFiles:   hashRes.InputFiles,
		Commit:       gitinfo.HeadCommit(opts.Root),
		BuiltAt:      now().UTC(),
	}
	rec.SetExports(currentExports)

	if err := manifest.Save(opts.Root, rec); err != nil {
		return nil, err
	}
	dec.Record = rec
	return dec, nil
}

// classify evaluates the decision table top to bottom, first match wins.
func classify(previous *manifest.VersionRecord, currentHash string, currentExports exports.Signature, forced versioning.BumpLevel) *Decision {
	// 1. Explicit override beats everything.
	if forced != "" {
		if previous == nil {
			// Nothing to bump from; the first version absorbs the override.
			return &Decision{
				Kind:        DecisionKind(forced),
				Reason:      ReasonForced,
				Changed:     true,
				NextVersion: versioning.InitialVersion,
			}
		}
		return bumped(previous, forced, ReasonForced, nil, nil)
	}

	// 2. First build of this artifact.
	if previous == nil {
		return &Decision{
			Kind:        DecisionMinor,
			Reason:      ReasonInitial,
			Changed:     true,
			NextVersion: versioning.InitialVersion,
		}
	}

	prevExports := previous.Exports()
	added, removed := diffExports(prevExports, currentExports)

	// 3. Nothing observable changed.
	if currentHash == previous.ContentHash && exportsUnchanged(prevExports, currentExports) {
		return &Decision{
			Kind:           DecisionNoop,
			Reason:         ReasonNoChange,
			CurrentVersion: previous.Version,
		}
	}

	comparable := prevExports.Known && currentExports.Known

	// 4. A removed export is breaking regardless of anything else.
	if comparable && len(removed) > 0 {
		return bumped(previous, versioning.BumpMajor, ReasonExportRemoved, added, removed)
	}

	// 5. New surface with nothing removed.
	if comparable && len(added) > 0 {
		return bumped(previous, versioning.BumpMinor, ReasonExportAdded, added, removed)
	}

	// 6. Content changed, or export comparability is unavailable.
	return bumped(previous, versioning.BumpPatch, ReasonContentChanged, nil, nil)
}

func bumped(previous *manifest.VersionRecord, level versioning.BumpLevel, reason Reason, added, removed []string) *Decision {
	next, err := versioning.Bump(previous.Version, level)
	if err != nil {
		// A previous record with an unbumpable version failed validation at
		// load time, so this only fires on internal misuse. Treat the prior
		// version as garbage and restart the artifact's version history.
		next = versioning.InitialVersion
	}
	return &Decision{
		Kind:           DecisionKind(level),
		Reason:         reason,
		Changed:        true,
		CurrentVersion: previous.Version,
		NextVersion:    next,
		ExportsAdded:   added,
		ExportsRemoved: removed,
	}
}

// exportsUnchanged reports whether the surfaces are both unknown or equal as
// sets. An asymmetric unknown is never "unchanged": comparability is
// unavailable, and the table conservatively falls through to patch.
func exportsUnchanged(prev, cur exports.Signature) bool {
	if !prev.Known && !cur.Known {
		return true
	}
	if prev.Known != cur.Known {
		return false
	}
	return sets.New(prev.Entries...).Equal(sets.New(cur.Entries...))
}

// diffExports returns additions in current-encounter order and removals in
// previous-encounter order. Set membership drives the diff; the signature
// slices only supply a stable order for diagnostics.
func diffExports(prev, cur exports.Signature) (added, removed []string) {
	if !prev.Known || !cur.Known {
		return nil, nil
	}
	prevSet := sets.New(prev.Entries...)
	curSet := sets.New(cur.Entries...)
	seen := sets.New[string]()
	for _, e := range cur.Entries {
		if !prevSet.Has(e) && !seen.Has(e) {
			added = append(added, e)
			seen.Add(e)
		}
	}
	seen = sets.New[string]()
	for _, e := range prev.Entries {
		if !curSet.Has(e) && !seen.Has(e) {
			removed = append(removed, e)
			seen.Add(e)
		}
	}
	return added, removed
}

func resolveEntryPoint(root, entry string) string {
	if entry == "" {
		return ""
	}
	if filepath.IsAbs(entry) {
		return entry
	}
	return filepath.Join(root, entry)
}
