package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyArtifact   = "artifact"
	KeyRunID      = "run_id"
	KeyDecision   = "decision"
	KeyReason     = "reason"
	KeyVersion    = "version"
	KeyNext       = "next_version"
	KeyHash       = "content_hash"
	KeyPath       = "path"
	KeyFiles      = "files"
	KeyWorker     = "worker"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Decision(d string) slog.Attr     { return slog.String(KeyDecision, d) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func NextVersion(v string) slog.Attr  { return slog.String(KeyNext, v) }
func ContentHash(h string) slog.Attr  { return slog.String(KeyHash, h) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
