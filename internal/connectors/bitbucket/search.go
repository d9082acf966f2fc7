package bitbucket

import (
	"fmt"
	"strings"
)

// BuildSearchQuery constructs the code search query for a catalog path
// pattern: the quoted filename term, a path scope, and an optional
// repository scope for event-triggered scans.
//
//	"catalog-info.yaml" path:catalog-info.yaml repo:my-repo
func BuildSearchQuery(filename, catalogPath, scopeRepo string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q path:%s", filename, catalogPath)
	if scopeRepo != "" {
		fmt.Fprintf(&b, " repo:%s", scopeRepo)
	}
	return b.String()
}

// SearchFields is the response field projection for code searches. It
// excludes content-match payloads, keeps only the repository fields needed
// to build discovery targets, and strips the repository's other link
// objects to keep pages small.
func SearchFields() string {
	return strings.Join([]string{
		"-values.content_matches",
		"values.path_matches.*",
		"values.file.path",
		"values.file.commit.repository.slug",
		"values.file.commit.repository.project.key",
		"values.file.commit.repository.mainbranch.name",
		"values.file.commit.repository.links.html.href",
		"page",
		"pagelen",
		"size",
		"next",
	}, ",")
}
