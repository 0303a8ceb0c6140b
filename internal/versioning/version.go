package versioning

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Bump returns the version that results from applying level to current.
// Versions are plain major.minor.patch triples; pre-release and build
// metadata are rejected because the manifest never stores them.
func Bump(current string, level BumpLevel) (string, error) {
	v, err := Parse(current)
	if err != nil {
		return "", err
	}

	var next semver.Version
	switch level {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("unknown bump level %q", level)
	}
	return next.String(), nil
}

// Parse parses a plain semantic version triple.
func Parse(raw string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return nil, fmt.Errorf("version %q carries pre-release/build metadata, which manifests do not support", raw)
	}
	return v, nil
}

// Less reports whether version a orders strictly before b under semver
// ordering. Used to enforce monotonicity before a manifest write.
func Less(a, b string) (bool, error) {
	va, err := Parse(a)
	if err != nil {
		return false, err
	}
	vb, err := Parse(b)
	if err != nil {
		return false, err
	}
	return va.LessThan(vb), nil
}
