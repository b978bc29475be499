package conf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration document.
type Format int

const (
	FormatJSON Format = iota // JSON, with comments and trailing commas allowed
	FormatTOML
	FormatYAML
)

// Extensions lists the file extensions recognised for each format, in the
// order they are probed when discovering a master file.
var Extensions = []string{".json", ".jsonc", ".toml", ".yaml", ".yml"}

// FormatOf picks the format for path from its extension. Unknown extensions
// are read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadError reports a configuration file that contributed nothing.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("cannot load %s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// SchemaError reports a document whose structure cannot be turned into flat
// configuration entries.
type SchemaError struct {
	Key    string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Key == "" {
		return "invalid configuration document: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration key %q: %s", e.Key, e.Reason)
}

// Load reads every path and merges the results in order, later files taking
// precedence. A file that cannot be read or parsed is reported in the
// returned errors and skipped; it never stops the remaining files.
func Load(paths []string) (ConfigMap, []LoadError) {
	layers, errs := LoadLayers(paths)
	merged, _ := Merge(layers...)
	return merged, errs
}

// LoadLayers is like Load but returns one map per successfully loaded file,
// in the order of paths, leaving the merge to the caller.
func LoadLayers(paths []string) ([]ConfigMap, []LoadError) {
	var (
		layers []ConfigMap
		errs   []LoadError
	)
	for _, path := range paths {
		layer, err := LoadFile(path)
		if err != nil {
			errs = append(errs, LoadError{Path: path, Err: err})
			continue
		}
		layers = append(layers, layer)
	}
	return layers, errs
}

// LoadFile reads and parses a single configuration file.
func LoadFile(path string) (ConfigMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigMap{}, err
	}
	return Parse(data, FormatOf(path), File(path))
}

// Parse decodes data and flattens it into entries tagged with origin.
//
// Nested objects are flattened by joining keys with Separator, visiting keys
// in sorted order. Integers become int, other numbers float64. Keys listed in
// the top-level FinalKey array are marked non-overridable.
func Parse(data []byte, format Format, origin SourceTag) (ConfigMap, error) {
	doc, err := decode(data, format)
	if err != nil {
		return ConfigMap{}, err
	}
	if doc == nil {
		return ConfigMap{}, nil
	}
	root, ok := asObject(doc)
	if !ok {
		return ConfigMap{}, &SchemaError{Reason: fmt.Sprintf("top level must be an object, got %T", doc)}
	}

	final, err := finalKeys(root)
	if err != nil {
		return ConfigMap{}, err
	}
	delete(root, FinalKey)

	flat := make(map[string]any)
	var order []string
	if err := flatten("", root, flat, &order); err != nil {
		return ConfigMap{}, err
	}
	for key := range final {
		if _, ok := flat[key]; !ok {
			return ConfigMap{}, &SchemaError{Key: key, Reason: "listed in " + FinalKey + " but not set"}
		}
	}

	var m ConfigMap
	for _, key := range order {
		m.Set(ConfigEntry{
			Key:         key,
			Value:       flat[key],
			Origin:      origin,
			Overridable: !final[key],
		})
	}
	return m, nil
}

func decode(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		doc = table
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("failed to parse JSON: unexpected data after top-level value")
		}
	}
	return doc, nil
}

func finalKeys(root map[string]any) (map[string]bool, error) {
	raw, ok := root[FinalKey]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &SchemaError{Key: FinalKey, Reason: "must be an array of key names"}
	}
	final := make(map[string]bool, len(list))
	for _, item := range list {
		key, ok := item.(string)
		if !ok {
			return nil, &SchemaError{Key: FinalKey, Reason: fmt.Sprintf("entry %v is not a string", item)}
		}
		final[key] = true
	}
	return final, nil
}

func flatten(prefix string, obj map[string]any, out map[string]any, order *[]string) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			return &SchemaError{Key: prefix, Reason: "empty key"}
		}
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		if nested, ok := asObject(obj[k]); ok {
			if err := flatten(key, nested, out, order); err != nil {
				return err
			}
			continue
		}
		if _, dup := out[key]; dup {
			return &SchemaError{Key: key, Reason: "set more than once after flattening"}
		}
		out[key] = normalize(obj[k])
		*order = append(*order, key)
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case map[any]any:
		out := make(map[string]any, len(o))
		for k, val := range o {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func normalize(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		f, err := n.Float64()
		if err != nil {
			return n.String()
		}
		return f
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = normalize(item)
		}
		return out
	default:
		return v
	}
}
