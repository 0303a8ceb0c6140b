// Package versioning holds the semantic version arithmetic used by the
// decision engine: bump levels, ordered comparison, and the initial version
// assigned to artifacts that have never been built.
package versioning

// BumpLevel classifies how severely a version must change.
type BumpLevel string

const (
	// BumpPatch increments the patch component only.
	BumpPatch BumpLevel = "patch"

	// BumpMinor increments minor and resets patch.
	BumpMinor BumpLevel = "minor"

	// BumpMajor increments major and resets minor and patch.
	BumpMajor BumpLevel = "major"
)

// InitialVersion is assigned on an artifact's first decision run.
const InitialVersion = "0.1.0"

// ParseBumpLevel validates a caller-supplied bump override.
func ParseBumpLevel(raw string) (BumpLevel, bool) {
	switch BumpLevel(raw) {
	case BumpPatch, BumpMinor, BumpMajor:
		return BumpLevel(raw), true
	}
	return "", false
}
