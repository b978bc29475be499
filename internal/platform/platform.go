package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/gvillage/startupapp/internal/conf"
)

// Fact is a single key/value pair learned from the operating system.
type Fact struct {
	Key   string
	Value any
}

// Step collects one group of related facts. It sees the facts gathered by
// earlier steps. A step may return facts together with an error; the facts
// are kept.
type Step struct {
	Name    string
	Collect func(known conf.ConfigMap) ([]Fact, error)
}

// Routine builds the collection steps for one operating system.
type Routine func(p *Provider) []Step

var (
	mu       sync.RWMutex
	routines = map[string]Routine{}
)

// Register makes routine the fact collector for goos. It replaces any
// routine registered earlier for the same name.
func Register(goos string, routine Routine) {
	mu.Lock()
	defer mu.Unlock()
	routines[goos] = routine
}

// Supported returns the operating systems with a registered routine.
func Supported() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(routines))
	for name := range routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(goos string) (Routine, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := routines[goos]
	return r, ok
}

// Provider queries the host for read-only facts.
type Provider struct {
	// GOOS selects the routine. Defaults to runtime.GOOS.
	GOOS string
	// Registry is the user account database scanned for the display name.
	// Defaults to /etc/passwd.
	Registry string
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
	// Warnf reports field-level problems that do not stop collection.
	// Defaults to slog.Warn.
	Warnf func(format string, args ...any)
}

// NewProvider returns a provider for the running system.
func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	return runtime.GOOS
}

func (p *Provider) warnf(format string, args ...any) {
	if p.Warnf != nil {
		p.Warnf(format, args...)
		return
	}
	slog.Warn(fmt.Sprintf(format, args...))
}

// Collect runs every step of the routine registered for the provider's
// operating system. Facts are returned non-overridable and tagged
// conf.Platform, followed by the plid fact naming the operating system.
//
// A failing step is reported as a *PartialFactError and the remaining steps
// still run. With no registered routine Collect returns *UnsupportedError.
func (p *Provider) Collect() (conf.ConfigMap, []*PartialFactError, error) {
	goos := p.goos()
	routine, ok := lookup(goos)
	if !ok {
		return conf.ConfigMap{}, nil, &UnsupportedError{GOOS: goos}
	}

	var (
		facts   conf.ConfigMap
		partial []*PartialFactError
	)
	add := func(key string, value any) {
		facts.Set(conf.ConfigEntry{
			Key:    key,
			Value:  value,
			Origin: conf.Platform,
		})
	}

	for _, step := range routine(p) {
		found, err := step.Collect(facts)
		for _, f := range found {
			add(f.Key, f.Value)
		}
		if err != nil {
			partial = append(partial, &PartialFactError{Fact: step.Name, Err: err})
		}
	}
	add(conf.KeyPlatformID, goos)

	return facts, partial, nil
}
