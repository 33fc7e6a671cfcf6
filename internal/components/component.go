package components

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

const (
	StorageComponentName  = "storage"
	PlatformComponentName = "platforms"
	ServerComponentName   = "server"
)

type IComponent interface {
	Name() string
	Dependencies() []string
	Validate() error
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
}

type Registry struct {
	components map[string]IComponent
	order      []string
}

func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]IComponent),
		order:      make([]string, 0),
	}
}

func (r *Registry) Register(component IComponent) error {
	name := component.Name()
	if _, exists := r.components[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components[name] = component
	return nil
}

func (r *Registry) Get(name string) IComponent {
	comp, exists := r.components[name]
	if !exists {
		panic(fmt.Sprintf("component %s not found", name))
	}
	return comp
}

// Lookup is Get without the panic.
func (r *Registry) Lookup(name string) (IComponent, bool) {
	comp, exists := r.components[name]
	return comp, exists
}

// InitializeAll validates every component, then initializes them so that
// each one starts after its dependencies.
func (r *Registry) InitializeAll(ctx context.Context) error {
	order, err := r.initOrder()
	if err != nil {
		return err
	}

	for _, name := range order {
		comp := r.components[name]
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("component %s validation failed: %w", name, err)
		}
	}

	for _, name := range order {
		comp := r.components[name]
		slog.DebugContext(ctx, "Initializing component", "component", name)
		if err := comp.Initialize(ctx); err != nil {
			r.closeInitialized(ctx)
			return fmt.Errorf("component %s initialization failed: %w", name, err)
		}
		r.order = append(r.order, name)
	}

	return nil
}

// initOrder lists registered components dependencies first. Independent
// components keep name order so startup is deterministic.
func (r *Registry) initOrder() ([]string, error) {
	names := slices.Sorted(maps.Keys(r.components))
	order := make([]string, 0, len(names))
	state := make(map[string]int, len(names)) // 1 visiting, 2 done

	var visit func(name, from string) error
	visit = func(name, from string) error {
		switch state[name] {
		case 1:
			return fmt.Errorf("component dependency cycle through %s", name)
		case 2:
			return nil
		}

		comp, ok := r.components[name]
		if !ok {
			return fmt.Errorf("component %s depends on %s which is not registered", from, name)
		}

		state[name] = 1
		for _, dep := range comp.Dependencies() {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		state[name] = 2
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name, ""); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CloseAll closes components in reverse initialization order.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.closeInitialized(ctx)
	return nil
}

func (r *Registry) closeInitialized(ctx context.Context) {
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		comp := r.components[name]
		if err := comp.Close(ctx); err != nil {
			slog.ErrorContext(ctx, "Error closing component", "component", name, "error", err)
		}
	}
	r.order = r.order[:0]
}
