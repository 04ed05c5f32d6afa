// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package caselist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "preserves order and trims whitespace",
			content: "DIEP Flap\n  Rhinoplasty  \nFacelift\n",
			want:    []string{"DIEP Flap", "Rhinoplasty", "Facelift"},
		},
		{
			name:    "skips blanks and comments",
			content: "# upcoming cases\n\nBlepharoplasty\n\n# done\nOtoplasty\n",
			want:    []string{"Blepharoplasty", "Otoplasty"},
		},
		{
			name:    "keeps duplicates",
			content: "Rhinoplasty\nRhinoplasty\n",
			want:    []string{"Rhinoplasty", "Rhinoplasty"},
		},
		{
			name:    "empty file is an error",
			content: "\n# only comments\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeList(t, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
