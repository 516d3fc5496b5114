package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRCFileSkipsBlankAndCommentLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc")
	content := "# a comment\n\ndata.location=ledger.db\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	settings, err := parseRCFile(path)
	if err != nil {
		t.Fatalf("parseRCFile: %v", err)
	}
	if got, want := settings["data.location"], "ledger.db"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseRCFileRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc")
	if err := os.WriteFile(path, []byte("not-a-key-value-line\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := parseRCFile(path); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestInitializeDefaultsDataLocationUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	os.Unsetenv("TATL_DATA_LOCATION")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	want := filepath.Join(home, appDirName, "ledger.db")
	if got := DataLocation(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEnvironmentOverridesDataLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TATL_DATA_LOCATION", "/tmp/custom.db")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := DataLocation(); got != "/tmp/custom.db" {
		t.Fatalf("got %q want /tmp/custom.db", got)
	}
}
