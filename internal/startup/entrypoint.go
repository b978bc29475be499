package startup

import (
	"context"
	"fmt"
	"sync"

	"github.com/gvillage/startupapp/internal/conf"
)

// Application is the program the controller starts. Run returns the process
// exit code; zero means success.
//
// An interrupt cancels ctx. Run should then return ctx.Err() or
// ErrInterrupted; the controller treats either as a clean stop. A second
// interrupt terminates the process.
type Application interface {
	Run(ctx context.Context, cfg conf.ConfigMap) (int, error)
}

// Starter is implemented by applications that need to prepare before Run. A
// positive code stops the startup.
type Starter interface {
	Startup(ctx context.Context, cfg conf.ConfigMap) (int, error)
}

// Stopper is implemented by applications that need to clean up after Run.
type Stopper interface {
	Shutdown(ctx context.Context) (int, error)
}

// EntryPoint names an application by the package, module and class keys of
// the configuration (umpkg, umname, umclass).
type EntryPoint struct {
	Package string
	Module  string
	Class   string
}

func (ep EntryPoint) String() string {
	return fmt.Sprintf("%s/%s.%s", ep.Package, ep.Module, ep.Class)
}

// Factory creates a fresh application.
type Factory func() Application

// Registry maps entry points to the factories of the applications linked
// into the program.
type Registry struct {
	mu        sync.RWMutex
	factories map[EntryPoint]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[EntryPoint]Factory)}
}

// Register makes factory available under ep, replacing any earlier one.
func (r *Registry) Register(ep EntryPoint, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ep] = factory
}

// Resolve creates the application named by cfg.
func (r *Registry) Resolve(cfg conf.ConfigMap) (Application, error) {
	ep := EntryPoint{
		Package: cfg.String(conf.KeyEntryPackage),
		Module:  cfg.String(conf.KeyEntryModule),
		Class:   cfg.String(conf.KeyEntryClass),
	}
	var missing []string
	for _, field := range []struct{ key, value string }{
		{conf.KeyEntryPackage, ep.Package},
		{conf.KeyEntryModule, ep.Module},
		{conf.KeyEntryClass, ep.Class},
	} {
		if field.value == "" {
			missing = append(missing, field.key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingEntryPointError{Missing: missing, EntryPoint: ep}
	}

	if r == nil {
		return nil, &MissingEntryPointError{EntryPoint: ep}
	}
	r.mu.RLock()
	factory, ok := r.factories[ep]
	r.mu.RUnlock()
	if !ok {
		return nil, &MissingEntryPointError{EntryPoint: ep}
	}
	return factory(), nil
}
