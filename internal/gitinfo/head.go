// Package gitinfo resolves repository metadata recorded in manifests for
// diagnostics.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// HeadCommit returns the HEAD commit hash of the repository enclosing dir,
// searching parent directories for the .git directory. It returns an empty
// string when dir is not inside a repository or HEAD cannot be resolved:
// the commit is a diagnostic annotation, never an input to the decision.
func HeadCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
