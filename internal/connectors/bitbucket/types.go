package bitbucket

import "github.com/jbogarthyde/backstage/internal/core/domain"

// searchPage is one page of a code search response.
type searchPage struct {
	Size   int            `json:"size"`
	Page   int            `json:"page"`
	Next   string         `json:"next"`
	Values []SearchResult `json:"values"`
}

// SearchResult is one code search hit. The API returns both path matches
// and content matches; a hit with no path matches matched on file contents
// only and is irrelevant to discovery.
type SearchResult struct {
	PathMatches []PathMatch `json:"path_matches"`
	File        SearchFile  `json:"file"`
}

// PathMatch is one matched segment of a result's file path.
type PathMatch struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// SearchFile is the matched file and its owning repository.
type SearchFile struct {
	Path   string       `json:"path"`
	Commit SearchCommit `json:"commit"`
}

// SearchCommit carries the repository a search hit belongs to.
type SearchCommit struct {
	Repository Repository `json:"repository"`
}

// Repository is the projected subset of the API's repository object.
type Repository struct {
	Slug       string     `json:"slug"`
	Project    Project    `json:"project"`
	Mainbranch *Branch    `json:"mainbranch"`
	Links      RepoLinks  `json:"links"`
	Workspace  *Workspace `json:"workspace,omitempty"`
}

// Project groups repositories within a workspace.
type Project struct {
	Key string `json:"key"`
}

// Branch names a repository branch. Mainbranch is null for empty
// repositories.
type Branch struct {
	Name string `json:"name"`
}

// RepoLinks holds the repository's canonical web link.
type RepoLinks struct {
	HTML Link `json:"html"`
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Workspace identifies the workspace a repository lives in.
type Workspace struct {
	Slug string `json:"slug"`
}

// Domain converts the wire repository into the engine's repository model.
func (r Repository) Domain() domain.Repository {
	repo := domain.Repository{
		ProjectKey: r.Project.Key,
		Slug:       r.Slug,
		WebURL:     r.Links.HTML.Href,
	}
	if r.Mainbranch != nil {
		repo.DefaultBranch = r.Mainbranch.Name
	}
	return repo
}
