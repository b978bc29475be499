package conf

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultConfig contains the embedded default configuration file. It is the
// base layer applied before any platform fact or configuration file.
//
//go:embed defaults.toml
var defaultConfig string

// MasterFiles names the configuration hierarchy under the configuration root,
// from the most general to the most specific.
var MasterFiles = []string{"supplier", "organization", "site", "user"}

// DropInDirName is the directory under the configuration root holding
// drop-in files.
const DropInDirName = "conf.d"

// DefaultLayer returns the embedded defaults.
func DefaultLayer() (ConfigMap, error) {
	m, err := Parse([]byte(defaultConfig), FormatTOML, Default)
	if err != nil {
		return ConfigMap{}, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return m, nil
}

// DefaultDir returns the configuration root used when none is given: the
// "gvconfig" directory next to the running executable.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "gvconfig")
}

// ConfigSource locates the configuration files of the hierarchy.
// See the Read method.
type ConfigSource struct {
	// Dir is the configuration root holding the master files.
	Dir string
	// DropInDir holds drop-in files. Defaults to Dir/conf.d.
	DropInDir string
}

// NewConfigSource returns the source rooted at dir.
func NewConfigSource(dir string) *ConfigSource {
	return &ConfigSource{Dir: dir, DropInDir: filepath.Join(dir, DropInDirName)}
}

// Paths returns the files that make up the hierarchy, lowest precedence
// first:
//  1. Master files, in MasterFiles order
//  2. Drop-in files, in lexicographic order
//
// Master files and the drop-in directory are optional.
func (cs *ConfigSource) Paths() ([]string, error) {
	var paths []string
	for _, name := range MasterFiles {
		if path, ok := cs.findMasterFile(name); ok {
			paths = append(paths, path)
		}
	}

	dropIns, err := cs.findDropInFiles()
	if err != nil {
		return paths, err
	}
	return append(paths, dropIns...), nil
}

// Read loads every file of the hierarchy and returns one layer per file that
// loaded. Files that failed are reported but do not stop the others.
func (cs *ConfigSource) Read() ([]ConfigMap, []LoadError) {
	paths, err := cs.Paths()
	layers, errs := LoadLayers(paths)
	if err != nil {
		slog.Error("failed to list drop-in files", "error", err, "dir", cs.dropInDir())
		errs = append(errs, LoadError{Path: cs.dropInDir(), Err: err})
	}
	return layers, errs
}

// findMasterFile returns the first existing file named name with one of the
// recognised extensions.
func (cs *ConfigSource) findMasterFile(name string) (string, bool) {
	for _, ext := range Extensions {
		path := filepath.Join(cs.Dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (cs *ConfigSource) dropInDir() string {
	if cs.DropInDir != "" {
		return cs.DropInDir
	}
	return filepath.Join(cs.Dir, DropInDirName)
}

// findDropInFiles lists the drop-in directory entries with a recognised
// extension, in lexicographic order regardless of format. A missing directory
// yields no files.
func (cs *ConfigSource) findDropInFiles() ([]string, error) {
	dir := cs.dropInDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read drop-in directory %s: %w", dir, err)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() || !recognised(entry.Name()) {
			continue
		}
		filenames = append(filenames, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(filenames)

	return filenames, nil
}

func recognised(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
