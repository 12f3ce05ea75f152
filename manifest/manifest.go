// Package manifest handles xtella.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "xtella.toml"

// DefaultStackCapacity is used when [machine] stack-capacity is unset.
const DefaultStackCapacity = 256

// Manifest represents an xtella.toml configuration.
type Manifest struct {
	Machine Machine `toml:"machine"`
	Log     Log     `toml:"log"`
	Run     Run     `toml:"run"`

	// Dir is the directory containing the xtella.toml file (set at load time).
	Dir string `toml:"-"`
}

// Machine configures the execution engine.
type Machine struct {
	StackCapacity int    `toml:"stack-capacity"`
	MemoryLimit   int64  `toml:"memory-limit"` // bytes, 0 = unlimited
	Timeout       string `toml:"timeout"`      // Go duration, empty = none
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"` // empty = stderr
}

// Run configures per-run behavior.
type Run struct {
	Trace bool `toml:"trace"`
}

// Default returns the configuration used when no xtella.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses an xtella.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes TOML data, applies defaults and validates the result.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an xtella.toml file,
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
	if m.Machine.StackCapacity == 0 {
		m.Machine.StackCapacity = DefaultStackCapacity
	}
}

// Validate reports the first invalid setting.
func (m *Manifest) Validate() error {
	if m.Machine.StackCapacity < 0 {
		return fmt.Errorf("machine.stack-capacity must be positive, got %d", m.Machine.StackCapacity)
	}
	if m.Machine.MemoryLimit < 0 {
		return fmt.Errorf("machine.memory-limit must not be negative, got %d", m.Machine.MemoryLimit)
	}
	if _, err := m.RunTimeout(); err != nil {
		return err
	}
	return nil
}

// RunTimeout returns the parsed machine.timeout, or 0 when unset.
func (m *Manifest) RunTimeout() (time.Duration, error) {
	if m.Machine.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.Machine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("machine.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("machine.timeout must not be negative, got %s", d)
	}
	return d, nil
}

// LogPath returns the configured log path, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.Path == "" {
		return nil
	}
	p := m.Log.Path
	if !filepath.IsAbs(p) && m.Dir != "" {
		p = filepath.Join(m.Dir, p)
	}
	return &p
}
