package bitbucket

import (
	"strings"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// FallbackBranch is used when a repository has no default branch (an empty
// repository, or the field was not returned).
const FallbackBranch = "master"

// ResolveFileURL builds the canonical raw-file URL for a file in a
// repository:
//
//	{repoWebURL}/src/{branch}/{filePath}
//
// filePath is treated as opaque: it already matches Bitbucket's URL scheme
// and must not be re-encoded.
func ResolveFileURL(repo domain.Repository, filePath string) string {
	branch := repo.DefaultBranch
	if branch == "" {
		branch = FallbackBranch
	}
	return strings.TrimRight(repo.WebURL, "/") + "/src/" + branch + "/" + filePath
}
