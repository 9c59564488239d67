// Package manifest handles gcbridge.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/gcbridge/bridge"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "gcbridge.toml"

// Manifest represents a gcbridge.toml configuration.
type Manifest struct {
	Collector Collector     `toml:"collector"`
	Log       Log           `toml:"log"`
	Journal   JournalConfig `toml:"journal"`
	Dump      DumpConfig    `toml:"dump"`

	// Dir is the directory containing the gcbridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Collector configures the collection cadence.
type Collector struct {
	Interval   string `toml:"interval"`
	PollBudget int    `toml:"poll-budget"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// JournalConfig configures the SQLite pass journal. An empty path disables it.
type JournalConfig struct {
	Path string `toml:"path"`
}

// DumpConfig configures where registry snapshots are written.
type DumpConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no gcbridge.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a gcbridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if _, err := time.ParseDuration(m.Collector.Interval); err != nil {
		return nil, fmt.Errorf("%s: collector.interval: %w", path, err)
	}
	if m.Collector.PollBudget < 0 {
		return nil, fmt.Errorf("%s: collector.poll-budget must not be negative", path)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a gcbridge.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Collector.Interval == "" {
		m.Collector.Interval = bridge.DefaultInterval.String()
	}
	if m.Collector.PollBudget == 0 {
		m.Collector.PollBudget = bridge.DefaultPollBudget
	}
}

// SchedulerConfig converts the [collector] table for bridge.NewScheduler.
func (m *Manifest) SchedulerConfig() bridge.SchedulerConfig {
	interval, _ := time.ParseDuration(m.Collector.Interval)
	return bridge.SchedulerConfig{
		Interval:   interval,
		PollBudget: m.Collector.PollBudget,
	}
}

// resolve makes p absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// JournalPath returns the journal database path, or "" when disabled.
func (m *Manifest) JournalPath() string {
	return m.resolve(m.Journal.Path)
}

// DumpPath returns the snapshot output path, or "" when disabled.
func (m *Manifest) DumpPath() string {
	return m.resolve(m.Dump.Path)
}

// LogFile returns the log file path, or nil to log to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.resolve(m.Log.File)
	return &p
}
