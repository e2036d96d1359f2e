package config

import (
	"os"

	"github.com/subosito/gotenv"

	"pulsescore-backend/internal/shared/telemetry"
)

// loadEnvFiles fills in variables from the given .env files. A variable that
// is already set to a non-empty value in the process keeps that value, and
// earlier files win over later ones. Missing files are skipped.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		vars, err := gotenv.StrictParse(f)
		_ = f.Close()
		if err != nil {
			telemetry.Warn("config.env_file_invalid", map[string]any{"path": path, "error": err.Error()})
			continue
		}
		for key, val := range vars {
			if key == "" || os.Getenv(key) != "" {
				continue
			}
			_ = os.Setenv(key, val)
		}
	}
}
