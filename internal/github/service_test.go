package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRepoDetailsFromURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "https with .git suffix",
			url:       "https://github.com/acme/storefront.git",
			wantOwner: "acme",
			wantRepo:  "storefront",
		},
		{
			name:      "https without suffix",
			url:       "https://github.com/acme/storefront",
			wantOwner: "acme",
			wantRepo:  "storefront",
		},
		{
			name:      "ssh URL",
			url:       "git@github.com:acme/storefront.git",
			wantOwner: "acme",
			wantRepo:  "storefront",
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: true,
		},
		{
			name:    "non-github host",
			url:     "https://gitlab.example.com/acme/storefront.git",
			wantErr: true,
		},
		{
			name:    "missing repo segment",
			url:     "https://github.com/acme",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ExtractRepoDetailsFromURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}
