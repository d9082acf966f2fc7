package bitbucket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		catalogPath string
		scopeRepo   string
		want        string
	}{
		{
			name:        "default path",
			filename:    "catalog-info.yaml",
			catalogPath: "catalog-info.yaml",
			want:        `"catalog-info.yaml" path:catalog-info.yaml`,
		},
		{
			name:        "nested path",
			filename:    "catalog-info.yaml",
			catalogPath: "docs/catalog-info.yaml",
			want:        `"catalog-info.yaml" path:docs/catalog-info.yaml`,
		},
		{
			name:        "scoped to one repository",
			filename:    "catalog-info.yaml",
			catalogPath: "catalog-info.yaml",
			scopeRepo:   "widgets",
			want:        `"catalog-info.yaml" path:catalog-info.yaml repo:widgets`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSearchQuery(tt.filename, tt.catalogPath, tt.scopeRepo)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchFields(t *testing.T) {
	fields := SearchFields()

	assert.True(t, strings.HasPrefix(fields, "-values.content_matches,"),
		"content matches are excluded first")
	for _, field := range []string{
		"values.path_matches.*",
		"values.file.path",
		"values.file.commit.repository.slug",
		"values.file.commit.repository.project.key",
		"values.file.commit.repository.mainbranch.name",
		"values.file.commit.repository.links.html.href",
		"next",
	} {
		assert.Contains(t, strings.Split(fields, ","), field)
	}
}
