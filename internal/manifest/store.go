package manifest

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/logfields"
)

// Path returns the manifest location for an artifact directory.
func Path(artifactDir string) string {
	return filepath.Join(artifactDir, Dir, FileName)
}

// Load reads the previous VersionRecord for the artifact. A missing,
// unparsable, or incomplete record is "no prior build" — it returns
// (nil, nil) rather than an error, because a corrupted manifest must never
// block rebuilding.
func Load(artifactDir string) (*VersionRecord, error) {
	path := Path(artifactDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		// Unreadable-but-present gets the same recovery: the next save
		// overwrites it and the run proceeds as an initial build.
		slog.Warn("Manifest unreadable, treating as absent", logfields.Path(path), logfields.Error(err))
		return nil, nil
	}

	var rec VersionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("Manifest corrupted, treating as absent", logfields.Path(path), logfields.Error(err))
		return nil, nil
	}
	if err := rec.validate(); err != nil {
		slog.Warn("Manifest incomplete, treating as absent", logfields.Path(path), logfields.Error(err))
		return nil, nil
	}
	return &rec, nil
}

// Save persists rec for the artifact with a write-then-rename so an
// interrupted write never leaves a half-written manifest. A failed save is
// fatal for the decision run.
func Save(artifactDir string, rec *VersionRecord) error {
	path := Path(artifactDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return relerrors.ManifestWriteError(path, err)
	}

	data, err := rec.ToJSON()
	if err != nil {
		return relerrors.ManifestWriteError(path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), FileName+".tmp-*")
	if err != nil {
		return relerrors.ManifestWriteError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return relerrors.ManifestWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return relerrors.ManifestWriteError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return relerrors.ManifestWriteError(path, err)
	}
	return nil
}
