package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFileCandidates loads environment variables from known files.
// godotenv never overrides existing process env vars.
func LoadEnvFileCandidates() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("KNODEX_ENV_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "knodex", "env"),
			filepath.Join(home, ConfigDir, "env"),
		)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}
