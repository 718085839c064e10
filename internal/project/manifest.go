package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config mirrors tether.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Types   TypesConfig   `toml:"types"`
	Compile CompileConfig `toml:"compile"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// TypesConfig drives the typer stage. An empty Input skips it.
type TypesConfig struct {
	Input  string `toml:"input"`
	Base   string `toml:"base"`
	Output string `toml:"output"`
	// RejectDuplicates fails on names that are already defined.
	RejectDuplicates bool `toml:"reject_duplicates"`
}

type CompileConfig struct {
	// Units are glob patterns relative to the project root.
	Units    []string `toml:"units"`
	OutDir   string   `toml:"out_dir"`
	Packages string   `toml:"packages"`
	Exts     string   `toml:"exts"`
	Annotate bool     `toml:"annotate"`
}

type BuildConfig struct {
	Jobs  int  `toml:"jobs"`
	Cache bool `toml:"cache"`
}

// Manifest is a loaded tether.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// DefaultConfig is what `tether init` writes.
func DefaultConfig(name string) Config {
	return Config{
		Package: PackageConfig{Name: name},
		Types: TypesConfig{
			Input:  "types.th",
			Output: "build/types.bin",
		},
		Compile: CompileConfig{
			Units:  []string{"*.itd"},
			OutDir: "build",
			Exts:   "exts",
		},
		Build: BuildConfig{Cache: true},
	}
}

// LoadManifest finds and parses tether.toml from startDir upwards.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig parses and validates a manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Types.Input != "" && cfg.Types.Output == "" {
		return Config{}, fmt.Errorf("%s: [types].input requires [types].output", path)
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	if cfg.Compile.OutDir == "" {
		cfg.Compile.OutDir = "build"
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteConfig writes cfg to dir/tether.toml, refusing to overwrite.
func WriteConfig(dir string, cfg Config) (string, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := cfg.Encode()
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// Abs resolves a manifest-relative path. Empty stays empty.
func (m *Manifest) Abs(rel string) string {
	if rel == "" {
		return ""
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Root, filepath.FromSlash(rel))
}

// Units expands the [compile].units globs into a sorted, de-duplicated list of paths.
func (m *Manifest) Units() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range m.Config.Compile.Units {
		matches, err := filepath.Glob(m.Abs(pattern))
		if err != nil {
			return nil, fmt.Errorf("%s: bad unit pattern %q: %w", m.Path, pattern, err)
		}
		for _, p := range matches {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}
