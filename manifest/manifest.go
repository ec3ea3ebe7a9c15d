// Package manifest handles rox.toml (or rox.yaml) project configuration.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File names searched for, in order of preference.
const (
	TOMLFile = "rox.toml"
	YAMLFile = "rox.yaml"
)

// TraceEnv enables execution tracing when present in the environment.
const TraceEnv = "ROX_TRACE_EXECUTION"

// DefaultAddr is the listen address used when [server] addr is unset.
const DefaultAddr = ":4567"

// Manifest represents a rox project configuration.
type Manifest struct {
	Project Project `toml:"project" yaml:"project"`
	VM      VM      `toml:"vm" yaml:"vm"`
	Log     Log     `toml:"log" yaml:"log"`
	Server  Server  `toml:"server" yaml:"server"`

	// Dir is the directory containing the manifest file (set at load time).
	Dir string `toml:"-" yaml:"-"`
	// Path is the manifest file itself, empty for Default().
	Path string `toml:"-" yaml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
}

// VM configures the virtual machine.
type VM struct {
	Trace bool `toml:"trace" yaml:"trace"`
}

// Log configures logging. Verbosity follows commonlog: -4 silences
// everything, 0 logs notices and above, 1 adds info, 2 adds debug.
type Log struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	Path      string `toml:"path" yaml:"path"`
}

// Server configures the HTTP evaluation service.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
}

// Load parses rox.toml, or failing that rox.yaml, from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, TOMLFile)
	if _, err := os.Stat(path); err != nil {
		if yamlPath := filepath.Join(dir, YAMLFile); fileExists(yamlPath) {
			path = yamlPath
		}
	}

	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// LoadFile parses a single manifest file. The format is chosen by extension.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = toml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Path = path
	m.Dir = filepath.Dir(path)
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a rox.toml or rox.yaml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if fileExists(filepath.Join(dir, TOMLFile)) || fileExists(filepath.Join(dir, YAMLFile)) {
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

// ApplyEnv overrides settings from the environment. lookup has the
// signature of os.LookupEnv.
func (m *Manifest) ApplyEnv(lookup func(string) (string, bool)) {
	if _, ok := lookup(TraceEnv); ok {
		m.VM.Trace = true
	}
	if v, ok := lookup("ROX_LOG_VERBOSITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			m.Log.Verbosity = n
		}
	}
	if v, ok := lookup("ROX_ADDR"); ok && v != "" {
		m.Server.Addr = v
	}
}

// Encode renders the manifest as TOML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves the manifest as rox.toml in dir.
func (m *Manifest) Write(dir string) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("cannot encode manifest: %w", err)
	}
	path := filepath.Join(dir, TOMLFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// LogPath returns the log file path, or nil to log to stderr.
func (l Log) LogPath() *string {
	if l.Path == "" {
		return nil
	}
	return &l.Path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
