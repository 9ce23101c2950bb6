package app

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads dotenv files into the process environment. Later files
// override earlier ones. Variables already set to a non-empty value in the
// process environment win; missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	vars, err := godotenv.Read(existing...)
	if err != nil {
		return err
	}
	for k, v := range vars {
		if cur, ok := os.LookupEnv(k); ok && cur != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
