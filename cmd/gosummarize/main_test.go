package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/gosummarize/internal/app"
	"github.com/hyperifyio/gosummarize/internal/extractive"
	"github.com/hyperifyio/gosummarize/internal/rank"
	"github.com/hyperifyio/gosummarize/internal/synth"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{fmt.Errorf("init app: %w", errors.New("config: llm.model is required")), 1},
		{fmt.Errorf("%w: stdin", app.ErrNoDocument), 2},
		{fmt.Errorf("summarize: %w", extractive.ErrEmptyInput), 2},
		{fmt.Errorf("summarize: rank: %w", &rank.ConvergenceError{Iterations: 1000}), 2},
		{synth.ErrNoSubstantiveBody, 2},
		{app.ErrPromptTooLarge, 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestConfigFilePath_ReadsDotenv(t *testing.T) {
	t.Setenv("GOSUMMARIZE_CONFIG", "")
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("GOSUMMARIZE_CONFIG=/etc/gosummarize.yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := configFilePath(""); got != "" {
		t.Fatalf("expected no config before dotenv load, got %q", got)
	}
	if err := app.LoadEnvFiles(envFile); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := configFilePath(""); got != "/etc/gosummarize.yaml" {
		t.Fatalf("configFilePath() = %q, want the dotenv value", got)
	}
	if got := configFilePath(" custom.yaml "); got != "custom.yaml" {
		t.Fatalf("flag value must win, got %q", got)
	}
}
