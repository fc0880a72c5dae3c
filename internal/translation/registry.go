package translation

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a Backend from a validated config of its kind.
type Factory func(cfg BackendConfig, opts Options) (Backend, error)

// Registry maps backend kinds to factories.
type Registry struct {
	factories map[Kind]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// DefaultRegistry knows the three built-in backends.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.Register(KindCloudChat, func(cfg BackendConfig, opts Options) (Backend, error) {
		c, ok := cfg.(CloudChatConfig)
		if !ok {
			return nil, fmt.Errorf("%s factory got %T", KindCloudChat, cfg)
		}
		return NewCloudChat(c, opts), nil
	})
	_ = registry.Register(KindLocalChat, func(cfg BackendConfig, opts Options) (Backend, error) {
		c, ok := cfg.(LocalChatConfig)
		if !ok {
			return nil, fmt.Errorf("%s factory got %T", KindLocalChat, cfg)
		}
		return NewLocalChat(c, opts), nil
	})
	_ = registry.Register(KindDedicated, func(cfg BackendConfig, opts Options) (Backend, error) {
		c, ok := cfg.(DedicatedConfig)
		if !ok {
			return nil, fmt.Errorf("%s factory got %T", KindDedicated, cfg)
		}
		return NewDedicated(c, opts), nil
	})
	return registry
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if factory == nil {
		return fmt.Errorf("factory is nil")
	}
	name := Kind(normalizeKindName(string(kind)))
	if name == "" {
		return fmt.Errorf("backend kind is required")
	}
	r.factories[name] = factory
	return nil
}

// New validates cfg and builds the backend registered for its kind.
func (r *Registry) New(cfg BackendConfig, opts Options) (Backend, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("backend config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, ok := r.factories[cfg.Kind()]
	if !ok {
		return nil, fmt.Errorf("backend %q is not registered (available: %s)", cfg.Kind(), strings.Join(r.Kinds(), ", "))
	}
	return factory(cfg, opts)
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

// NewBackend builds a backend from the default registry.
func NewBackend(cfg BackendConfig, opts Options) (Backend, error) {
	return DefaultRegistry.New(cfg, opts)
}

var kindAliases = map[string]Kind{
	"openai":         KindCloudChat,
	"cloud":          KindCloudChat,
	"cloud_chat":     KindCloudChat,
	"ollama":         KindLocalChat,
	"local":          KindLocalChat,
	"local_chat":     KindLocalChat,
	"libretranslate": KindDedicated,
	"dedicated":      KindDedicated,
}

// ParseKind resolves a user-supplied backend name, accepting the service
// names as aliases.
func ParseKind(raw string) (Kind, error) {
	name := normalizeKindName(raw)
	if kind, ok := kindAliases[name]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("unknown backend %q (supported: cloud_chat, local_chat, dedicated)", raw)
}

func normalizeKindName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(name, "-", "_")
}
