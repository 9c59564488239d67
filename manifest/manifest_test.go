package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/gcbridge/bridge"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[collector]
interval = "250ms"
poll-budget = 8

[log]
verbosity = 2
file = "logs/gcbridge.log"

[journal]
path = "passes.db"

[dump]
path = "/tmp/registry.cbor"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.SchedulerConfig()
	if cfg.Interval != 250*time.Millisecond {
		t.Errorf("interval = %s, want 250ms", cfg.Interval)
	}
	if cfg.PollBudget != 8 {
		t.Errorf("poll budget = %d, want 8", cfg.PollBudget)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got, want := *m.LogFile(), filepath.Join(m.Dir, "logs", "gcbridge.log"); got != want {
		t.Errorf("log file = %q, want %q", got, want)
	}
	if got, want := m.JournalPath(), filepath.Join(m.Dir, "passes.db"); got != want {
		t.Errorf("journal path = %q, want %q", got, want)
	}
	if got := m.DumpPath(); got != "/tmp/registry.cbor" {
		t.Errorf("dump path = %q, absolute paths should pass through", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = 1\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m.SchedulerConfig()
	if cfg.Interval != bridge.DefaultInterval {
		t.Errorf("default interval = %s, want %s", cfg.Interval, bridge.DefaultInterval)
	}
	if cfg.PollBudget != bridge.DefaultPollBudget {
		t.Errorf("default poll budget = %d, want %d", cfg.PollBudget, bridge.DefaultPollBudget)
	}
	if m.JournalPath() != "" || m.DumpPath() != "" || m.LogFile() != nil {
		t.Error("journal, dump and log file should default to disabled")
	}
}

func TestDefault(t *testing.T) {
	m := Default()
	if m.SchedulerConfig().Interval != bridge.DefaultInterval {
		t.Errorf("Default interval = %s", m.SchedulerConfig().Interval)
	}
}

func TestLoadManifestRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"interval": "[collector]\ninterval = \"soon\"\n",
		"budget":   "[collector]\npoll-budget = -1\n",
		"syntax":   "[collector\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, content)
			if _, err := Load(dir); err == nil {
				t.Error("expected an error")
			} else if !strings.Contains(err.Error(), FileName) {
				t.Errorf("error %q should name the file", err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[collector]\npoll-budget = 3\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("manifest not found from nested dir")
	}
	if m.Collector.PollBudget != 3 {
		t.Errorf("poll budget = %d, want 3", m.Collector.PollBudget)
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
}
