package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfigFile(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantProblems int
	}{
		{
			name: "valid config",
			content: `
[server]
port = ":8090"

[buffer]
max_frames = 1500
max_age_seconds = 15.0

[queue]
capacity = 10000

[trigger]
mode = "edge"

[logging]
level = "info"
format = "json"
marker = "debug"
`,
			wantProblems: 0,
		},
		{
			name:         "empty config",
			content:      "",
			wantProblems: 0,
		},
		{
			name:         "unknown table",
			content:      "[webcam]\nenabled = true\n",
			wantProblems: 1,
		},
		{
			name:         "bad logging level",
			content:      "[logging]\nlevel = \"verbose\"\n",
			wantProblems: 1,
		},
		{
			name:         "bad logging format",
			content:      "[logging]\nformat = \"xml\"\n",
			wantProblems: 1,
		},
		{
			name:         "non-positive buffer bounds",
			content:      "[buffer]\nmax_frames = 0\nmax_age_seconds = -1.0\n",
			wantProblems: 2,
		},
		{
			name:         "non-positive queue capacity",
			content:      "[queue]\ncapacity = -5\n",
			wantProblems: 1,
		},
		{
			name:         "bad trigger mode",
			content:      "[trigger]\nmode = \"pulse\"\n",
			wantProblems: 1,
		},
		{
			name:         "negative nominal rate",
			content:      "[stream]\nnominal_rate = -100.0\n",
			wantProblems: 1,
		},
		{
			name:         "broken toml",
			content:      "not [valid",
			wantProblems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestConfig(t, tt.content)
			problems := validateConfigFile(path)
			if len(problems) != tt.wantProblems {
				t.Errorf("got %d problems %v, want %d", len(problems), problems, tt.wantProblems)
			}
		})
	}
}

func TestValidateConfigFileMissing(t *testing.T) {
	problems := validateConfigFile("/nonexistent/config.toml")
	if len(problems) != 1 {
		t.Errorf("got %v, want one problem for a missing file", problems)
	}
}
