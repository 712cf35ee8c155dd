package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# local overrides\nDOTENV_PLAIN=hello\nexport DOTENV_EXPORTED=\"quoted\"\nDOTENV_PRESET=from-file\nnot-a-pair\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOTENV_PLAIN", "")
	t.Setenv("DOTENV_EXPORTED", "")
	t.Setenv("DOTENV_PRESET", "from-env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if got := os.Getenv("DOTENV_PLAIN"); got != "hello" {
		t.Errorf("DOTENV_PLAIN = %q, want hello", got)
	}
	if got := os.Getenv("DOTENV_EXPORTED"); got != "quoted" {
		t.Errorf("DOTENV_EXPORTED = %q, want quoted (export prefix and quotes stripped)", got)
	}
	// Real environment wins over the file.
	if got := os.Getenv("DOTENV_PRESET"); got != "from-env" {
		t.Errorf("DOTENV_PRESET = %q, want from-env", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
