package conf

import (
	"fmt"
	"strconv"
)

// SourceKind identifies the kind of layer a configuration entry came from.
type SourceKind int

const (
	SourceDefault SourceKind = iota
	SourcePlatform
	SourceFile
	SourceEnvironment
	SourceCommandLine
)

// SourceTag records where an entry originated. Path is only set for
// SourceFile.
type SourceTag struct {
	Kind SourceKind
	Path string
}

var (
	Default     = SourceTag{Kind: SourceDefault}
	Platform    = SourceTag{Kind: SourcePlatform}
	Environment = SourceTag{Kind: SourceEnvironment}
	CommandLine = SourceTag{Kind: SourceCommandLine}
)

// File returns the tag for entries read from path.
func File(path string) SourceTag {
	return SourceTag{Kind: SourceFile, Path: path}
}

func (t SourceTag) String() string {
	switch t.Kind {
	case SourceDefault:
		return "default"
	case SourcePlatform:
		return "platform"
	case SourceFile:
		return "file:" + t.Path
	case SourceEnvironment:
		return "environment"
	case SourceCommandLine:
		return "command line"
	default:
		return "unknown(" + strconv.Itoa(int(t.Kind)) + ")"
	}
}

// ConfigEntry is a single configuration value together with its origin.
type ConfigEntry struct {
	Key         string
	Value       any
	Origin      SourceTag
	Overridable bool
}

// ConfigMap is an insertion-ordered set of entries keyed by ConfigEntry.Key.
// The zero value is an empty map ready to use.
type ConfigMap struct {
	keys    []string
	entries map[string]ConfigEntry
}

// NewConfigMap returns a map holding entries, in order. A later entry with
// the same key replaces the earlier one in place.
func NewConfigMap(entries ...ConfigEntry) ConfigMap {
	var m ConfigMap
	for _, e := range entries {
		m.Set(e)
	}
	return m
}

// Set inserts e, or replaces the entry with the same key keeping its position.
func (m *ConfigMap) Set(e ConfigEntry) {
	if m.entries == nil {
		m.entries = make(map[string]ConfigEntry)
	}
	if _, ok := m.entries[e.Key]; !ok {
		m.keys = append(m.keys, e.Key)
	}
	m.entries[e.Key] = e
}

// Get returns the entry stored under key.
func (m ConfigMap) Get(key string) (ConfigEntry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Value returns the value stored under key, or nil.
func (m ConfigMap) Value(key string) any {
	return m.entries[key].Value
}

// Has reports whether key is present.
func (m ConfigMap) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

func (m ConfigMap) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m ConfigMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Entries returns the entries in insertion order.
func (m ConfigMap) Entries() []ConfigEntry {
	out := make([]ConfigEntry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.entries[k])
	}
	return out
}

// Clone returns a copy that shares no storage with m. Values themselves are
// not deep-copied.
func (m ConfigMap) Clone() ConfigMap {
	return NewConfigMap(m.Entries()...)
}

// Values returns the plain key/value view of the map.
func (m ConfigMap) Values() map[string]any {
	out := make(map[string]any, len(m.keys))
	for k, e := range m.entries {
		out[k] = e.Value
	}
	return out
}

// String returns the value under key formatted as a string. Missing keys and
// nil values yield "".
func (m ConfigMap) String(key string) string {
	switch v := m.Value(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool interprets the value under key as a boolean. Strings are parsed with
// strconv.ParseBool; anything else that is not a bool is false.
func (m ConfigMap) Bool(key string) bool {
	switch v := m.Value(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Int interprets the value under key as an integer.
func (m ConfigMap) Int(key string) (int, bool) {
	return toInt(m.Value(key))
}

// Strings returns the value under key as a string slice.
func (m ConfigMap) Strings(key string) []string {
	switch v := m.Value(key).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
