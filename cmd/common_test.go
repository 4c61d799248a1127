package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/rejectlabel/internal/config"
)

func TestRulesFlags_Resolve(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte(`
label: from-file
folder: all
chunk_size: 200
phrases:
  - position has been filled
`), 0600))

	tests := []struct {
		name          string
		args          []string
		wantLabel     string
		wantFolder    string
		wantChunkSize int
		wantPhrases   []string
		wantErr       bool
	}{
		{
			name:          "defaults",
			args:          nil,
			wantLabel:     config.DefaultLabel,
			wantFolder:    config.DefaultFolder,
			wantChunkSize: config.DefaultChunkSize,
			wantPhrases:   config.DefaultPhrases,
		},
		{
			name:          "flags without file",
			args:          []string{"--label", "Jobs", "--chunk-size", "10"},
			wantLabel:     "Jobs",
			wantFolder:    config.DefaultFolder,
			wantChunkSize: 10,
			wantPhrases:   config.DefaultPhrases,
		},
		{
			name:          "file only",
			args:          []string{"--rules", rulesFile},
			wantLabel:     "from-file",
			wantFolder:    "all",
			wantChunkSize: 200,
			wantPhrases:   []string{"position has been filled"},
		},
		{
			name:          "explicit flag wins over file",
			args:          []string{"--rules", rulesFile, "--label", "from-flag"},
			wantLabel:     "from-flag",
			wantFolder:    "all",
			wantChunkSize: 200,
			wantPhrases:   []string{"position has been filled"},
		},
		{
			name:    "chunk size out of range",
			args:    []string{"--chunk-size", "1001"},
			wantErr: true,
		},
		{
			name:    "empty label",
			args:    []string{"--label", ""},
			wantErr: true,
		},
		{
			name:    "missing rules file",
			args:    []string{"--rules", filepath.Join(dir, "missing.yaml")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags rulesFlags
			cmd := &cobra.Command{Use: "test"}
			flags.register(cmd.Flags())
			require.NoError(t, cmd.Flags().Parse(tt.args))

			rules, err := flags.resolve(cmd.Flags())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, rules.Label)
			assert.Equal(t, tt.wantFolder, rules.Folder)
			assert.Equal(t, tt.wantChunkSize, rules.ChunkSize)
			assert.Equal(t, tt.wantPhrases, rules.Phrases)
		})
	}
}

func TestAuthFlags_Defaults(t *testing.T) {
	var flags authFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(nil))

	assert.Equal(t, "credentials.json", flags.credentials)
	assert.Equal(t, "token.json", flags.token)
	assert.False(t, flags.noBrowser)
}
