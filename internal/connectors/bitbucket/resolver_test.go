package bitbucket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

func TestResolveFileURL(t *testing.T) {
	tests := []struct {
		name     string
		repo     domain.Repository
		filePath string
		want     string
	}{
		{
			name: "default branch",
			repo: domain.Repository{
				WebURL:        "https://bitbucket.org/acme/widgets",
				DefaultBranch: "main",
			},
			filePath: "catalog-info.yaml",
			want:     "https://bitbucket.org/acme/widgets/src/main/catalog-info.yaml",
		},
		{
			name: "missing default branch falls back to master",
			repo: domain.Repository{
				WebURL: "https://bitbucket.org/acme/widgets",
			},
			filePath: "catalog-info.yaml",
			want:     "https://bitbucket.org/acme/widgets/src/master/catalog-info.yaml",
		},
		{
			name: "trailing slash on web url",
			repo: domain.Repository{
				WebURL:        "https://bitbucket.org/acme/widgets/",
				DefaultBranch: "develop",
			},
			filePath: "catalog-info.yaml",
			want:     "https://bitbucket.org/acme/widgets/src/develop/catalog-info.yaml",
		},
		{
			name: "nested file path used verbatim",
			repo: domain.Repository{
				WebURL:        "https://bitbucket.org/acme/widgets",
				DefaultBranch: "main",
			},
			filePath: "docs/services/catalog-info.yaml",
			want:     "https://bitbucket.org/acme/widgets/src/main/docs/services/catalog-info.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFileURL(tt.repo, tt.filePath))
		})
	}
}
