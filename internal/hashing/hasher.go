// Package hashing computes the deterministic content digest of an artifact's
// source tree. The digest is a pure function of the included relative paths,
// their raw byte contents, and the optional pinned-versions file; traversal
// order never influences it because paths are sorted before the final hash.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/util/sets"
)

// Options controls a single tree hash computation.
type Options struct {
	// Exclude holds directory and file names skipped wherever they appear
	// as a path component (dependency caches, OS metadata, the manifest
	// directory itself).
	Exclude []string

	// PinsFile is an optional path, usually outside Root, whose raw bytes
	// are folded into the digest last so that shared pinned-version changes
	// also invalidate the hash. A missing pins file contributes nothing.
	PinsFile string
}

// Result is the outcome of hashing one source tree.
type Result struct {
	// Digest is the lowercase hex sha256 digest of the tree state.
	Digest string

	// InputFiles lists the slash-separated relative paths that contributed
	// to the digest, sorted. Diagnostics only; never compared.
	InputFiles []string
}

// pinsLabel anchors the pins-file content at a fixed, well-known position in
// the digest input, after every tree entry.
const pinsLabel = "\x00pins\x00"

// HashTree walks root, applies the exclusion set, and produces the digest.
// An unreadable file under root is fatal for this artifact: it propagates
// rather than being silently skipped.
func HashTree(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, relerrors.SourceTreeError(root, err)
	}
	if !info.IsDir() {
		return nil, relerrors.SourceTreeError(root, fmt.Errorf("not a directory"))
	}

	excluded := sets.New(opts.Exclude...)

	var relPaths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if excluded.Has(d.Name()) && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, relerrors.SourceTreeError(root, err)
	}

	// Sorted paths make the digest independent of traversal order.
	sort.Strings(relPaths)

	h := sha256.New()
	for _, rel := range relPaths {
		content, readErr := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if readErr != nil {
			return nil, relerrors.SourceTreeError(root, fmt.Errorf("read %s: %w", rel, readErr))
		}
		fileSum := sha256.Sum256(content)
		fmt.Fprintf(h, "%s:%s\n", rel, hex.EncodeToString(fileSum[:]))
	}

	if opts.PinsFile != "" {
		pins, readErr := os.ReadFile(opts.PinsFile)
		switch {
		case readErr == nil:
			h.Write([]byte(pinsLabel))
			h.Write(pins)
		case os.IsNotExist(readErr):
			// Absent pins file contributes nothing.
		default:
			return nil, relerrors.SourceTreeError(root, fmt.Errorf("read pins file %s: %w", opts.PinsFile, readErr))
		}
	}

	return &Result{
		Digest:     strings.ToLower(hex.EncodeToString(h.Sum(nil))),
		InputFiles: relPaths,
	}, nil
}
